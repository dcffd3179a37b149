package versions

import (
	"ar_hunt/hunt_server/schema"
	"log/slog"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func newMigrator(db *gorm.DB, initSchema bool) *gormigrate.Gormigrate {
	migration := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID:      "1",
			Migrate: Migration_1_initial_schema,
		},
		{
			ID:       "2",
			Migrate:  Migration_2_unique_attempts,
			Rollback: Rollback_2_unique_attempts,
		},
	})

	if initSchema {
		migration.InitSchema(func(txn *gorm.DB) error {
			slog.Info("clean database detected, running full schema initialization")
			return txn.AutoMigrate(schema.AllModels()...)
		})
	}

	return migration
}

// Migrate brings the database up to the current schema. A clean database is
// initialized directly from the current models.
func Migrate(db *gorm.DB) error {
	return newMigrator(db, true).Migrate()
}
