package versions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userV1 struct {
	Id       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username string    `gorm:"unique;size:50;not null"`
	Email    string    `gorm:"unique;size:254;not null"`
	Password []byte
	Level    string `gorm:"size:20;not null;default:'FACILITATOR'"`
}

func (userV1) TableName() string { return "users" }

type eventV1 struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:200;not null"`
	Description string
	StartDate   int64  `gorm:"not null"`
	EndDate     int64  `gorm:"not null"`
	IsPublic    bool   `gorm:"not null;default:false"`
	Visible     bool   `gorm:"not null;default:false"`
	EventCode   string `gorm:"uniqueIndex;size:20;not null"`
	CreatedBy   string `gorm:"size:254;not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (eventV1) TableName() string { return "events" }

type assetV1 struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventId     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"size:200;not null"`
	Description string
	ImagePath   string  `gorm:"size:500"`
	Latitude    float64 `gorm:"not null"`
	Longitude   float64 `gorm:"not null"`
	Visible     bool    `gorm:"not null;default:false"`
	CreatedBy   string  `gorm:"size:254;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (assetV1) TableName() string { return "assets" }

type quizV1 struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventId   uuid.UUID `gorm:"type:uuid;not null;index"`
	AssetId   uuid.UUID `gorm:"type:uuid;not null;index"`
	Question  string    `gorm:"not null"`
	Option1   string
	Option2   string
	Option3   string
	Option4   string
	Answer    int    `gorm:"not null"`
	Points    int    `gorm:"not null"`
	Visible   bool   `gorm:"not null;default:false"`
	CreatedBy string `gorm:"size:254;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (quizV1) TableName() string { return "quizzes" }

// Attempts were only guarded by an existence check before insert.
type attemptV1 struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventId   uuid.UUID `gorm:"type:uuid;not null"`
	Username  string    `gorm:"size:100;not null"`
	AssetId   uuid.UUID `gorm:"type:uuid;not null"`
	Points    int       `gorm:"not null"`
	CreatedAt time.Time
}

func (attemptV1) TableName() string { return "attempts" }

type leaderboardV1 struct {
	EventId     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username    string    `gorm:"size:100;primaryKey"`
	TotalPoints int       `gorm:"not null;default:0"`
}

func (leaderboardV1) TableName() string { return "leaderboards" }

type eventPermissionV1 struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_event_permission"`
	Email     string    `gorm:"size:254;not null;uniqueIndex:idx_event_permission"`
	CreatedBy string    `gorm:"size:254;not null"`
	CreatedAt time.Time
}

func (eventPermissionV1) TableName() string { return "event_permissions" }

type logV1 struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Actor     string    `gorm:"size:254;not null"`
	EventId   uuid.UUID `gorm:"type:uuid;index"`
	EntityId  string    `gorm:"size:100"`
	Message   string    `gorm:"not null"`
	Timestamp time.Time `gorm:"not null;index"`
}

func (logV1) TableName() string { return "logs" }

func Migration_1_initial_schema(db *gorm.DB) error {
	return db.AutoMigrate(
		&userV1{}, &eventV1{}, &assetV1{}, &quizV1{}, &attemptV1{},
		&leaderboardV1{}, &eventPermissionV1{}, &logV1{},
	)
}
