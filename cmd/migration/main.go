package main

import (
	"ar_hunt/cmd/migration/versions"
	"flag"
	"fmt"
	"log"
	"net/url"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func postgresDsn(uri string) string {
	parts, err := url.Parse(uri)
	if err != nil {
		log.Fatalf("error parsing db uri: %v", err)
	}
	pwd, _ := parts.User.Password()
	dbname := strings.TrimPrefix(parts.Path, "/")
	return fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v", parts.Hostname(), parts.User.Username(), pwd, dbname, parts.Port())
}

func main() {
	dbUri := flag.String("db_uri", "", "Postgres database URI")
	sqlitePath := flag.String("sqlite", "", "Sqlite database file, used instead of --db_uri")
	flag.Parse()

	var dialector gorm.Dialector
	switch {
	case *dbUri != "":
		dialector = postgres.Open(postgresDsn(*dbUri))
	case *sqlitePath != "":
		dialector = sqlite.Open(*sqlitePath)
	default:
		log.Fatalf("Missing --db_uri or --sqlite arg")
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	if err := versions.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("migration completed successfully")
}
