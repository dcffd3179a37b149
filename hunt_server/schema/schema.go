package schema

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Username string `gorm:"unique;size:50;not null"`
	Email    string `gorm:"unique;size:254;not null"`
	Password []byte

	Level string `gorm:"size:20;not null;default:'FACILITATOR'"`
}

type Event struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `json:"description"`

	// Unix seconds.
	StartDate int64 `gorm:"not null" json:"startDate"`
	EndDate   int64 `gorm:"not null" json:"endDate"`

	IsPublic bool `gorm:"not null;default:false" json:"isPublic"`
	Visible  bool `gorm:"not null;default:false" json:"visible"`

	EventCode string `gorm:"uniqueIndex;size:20;not null" json:"eventCode"`

	CreatedBy string    `gorm:"size:254;not null;index" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Asset struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	EventId uuid.UUID `gorm:"type:uuid;not null;index" json:"eventID"`

	Name        string  `gorm:"size:200;not null" json:"name"`
	Description string  `json:"description"`
	ImagePath   string  `gorm:"size:500" json:"imageSource"`
	Latitude    float64 `gorm:"not null" json:"latitude"`
	Longitude   float64 `gorm:"not null" json:"longitude"`
	Visible     bool    `gorm:"not null;default:false" json:"visible"`

	CreatedBy string    `gorm:"size:254;not null" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Quiz struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	EventId uuid.UUID `gorm:"type:uuid;not null;index" json:"eventID"`
	AssetId uuid.UUID `gorm:"type:uuid;not null;index" json:"assetID"`

	Question string `gorm:"not null" json:"question"`
	Option1  string `json:"option1"`
	Option2  string `json:"option2"`
	Option3  string `json:"option3"`
	Option4  string `json:"option4"`
	// 1-based index of the correct option.
	Answer  int  `gorm:"not null" json:"answer"`
	Points  int  `gorm:"not null" json:"points"`
	Visible bool `gorm:"not null;default:false" json:"visible"`

	CreatedBy string    `gorm:"size:254;not null" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (q *Quiz) Options() []string {
	return []string{q.Option1, q.Option2, q.Option3, q.Option4}
}

// At most one attempt may exist per (event, player, asset). The unique index is
// what rejects a second scoring request for the same quiz.
type Attempt struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	EventId  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_unique" json:"eventID"`
	Username string    `gorm:"size:100;not null;uniqueIndex:idx_attempt_unique" json:"username"`
	AssetId  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_unique" json:"assetID"`

	Points    int       `gorm:"not null" json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

type Leaderboard struct {
	EventId  uuid.UUID `gorm:"type:uuid;primaryKey" json:"eventID"`
	Username string    `gorm:"size:100;primaryKey" json:"username"`

	TotalPoints int `gorm:"not null;default:0" json:"totalPoints"`
}

type EventPermission struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	EventId uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_event_permission" json:"eventID"`
	Email   string    `gorm:"size:254;not null;uniqueIndex:idx_event_permission" json:"email"`

	CreatedBy string    `gorm:"size:254;not null" json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type Log struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Actor    string    `gorm:"size:254;not null" json:"actor"`
	EventId  uuid.UUID `gorm:"type:uuid;index" json:"eventID"`
	EntityId string    `gorm:"size:100" json:"entityID"`
	Message  string    `gorm:"not null" json:"message"`

	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

func AllModels() []interface{} {
	return []interface{}{
		&User{}, &Event{}, &Asset{}, &Quiz{}, &Attempt{}, &Leaderboard{}, &EventPermission{}, &Log{},
	}
}
