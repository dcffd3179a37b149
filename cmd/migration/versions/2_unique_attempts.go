package versions

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type attemptV2 struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	EventId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_unique"`
	Username  string    `gorm:"size:100;not null;uniqueIndex:idx_attempt_unique"`
	AssetId   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_unique"`
	Points    int       `gorm:"not null"`
	CreatedAt time.Time
}

func (attemptV2) TableName() string { return "attempts" }

type attemptKey struct {
	eventId  uuid.UUID
	username string
	assetId  uuid.UUID
}

// Migration_2_unique_attempts removes attempts recorded twice by concurrent
// submissions, takes their points back off the leaderboard, and then adds the
// unique index on (event, player, asset).
func Migration_2_unique_attempts(db *gorm.DB) error {
	return db.Transaction(func(txn *gorm.DB) error {
		var attempts []attemptV2
		if err := txn.Order("created_at asc").Order("id asc").Find(&attempts).Error; err != nil {
			return fmt.Errorf("error listing attempts: %w", err)
		}

		seen := make(map[attemptKey]struct{}, len(attempts))
		duplicates := make([]uuid.UUID, 0)
		for _, attempt := range attempts {
			key := attemptKey{eventId: attempt.EventId, username: attempt.Username, assetId: attempt.AssetId}
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				continue
			}

			duplicates = append(duplicates, attempt.Id)
			result := txn.Model(&leaderboardV1{}).
				Where("event_id = ? AND username = ?", attempt.EventId, attempt.Username).
				Update("total_points", gorm.Expr("total_points - ?", attempt.Points))
			if result.Error != nil {
				return fmt.Errorf("error correcting leaderboard for duplicate attempt %v: %w", attempt.Id, result.Error)
			}
		}

		if len(duplicates) > 0 {
			slog.Info("removing duplicate attempts", "count", len(duplicates))
			if err := txn.Where("id IN ?", duplicates).Delete(&attemptV2{}).Error; err != nil {
				return fmt.Errorf("error deleting duplicate attempts: %w", err)
			}
		}

		if err := txn.Migrator().CreateIndex(&attemptV2{}, "idx_attempt_unique"); err != nil {
			return fmt.Errorf("error creating attempt unique index: %w", err)
		}
		return nil
	})
}

func Rollback_2_unique_attempts(db *gorm.DB) error {
	return db.Migrator().DropIndex(&attemptV2{}, "idx_attempt_unique")
}
