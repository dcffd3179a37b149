package services

import (
	"ar_hunt/hunt_server/schema"
	"ar_hunt/hunt_server/storage"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// deletion tracks what a cascading delete removed so metrics and stored images
// are only touched once the transaction commits.
type deletion struct {
	actor string

	events      int
	assets      int
	quizzes     int
	attempts    int
	leaderboard int
	permissions int

	images []string
}

func (d *deletion) attemptsWhere(txn *gorm.DB, eventId uuid.UUID, query string, args ...interface{}) error {
	var attempts []schema.Attempt
	result := txn.Where(query, args...).Find(&attempts)
	if result.Error != nil {
		slog.Error("sql error listing attempts for delete", "error", result.Error)
		return dbError()
	}

	if len(attempts) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(attempts))
	for _, attempt := range attempts {
		if err := appendLog(txn, d.actor, eventId, attempt.Id.String(), fmt.Sprintf("Delete Attempt %v", attempt.Id)); err != nil {
			return err
		}
		ids = append(ids, attempt.Id)
	}

	result = txn.Where("id IN ?", ids).Delete(&schema.Attempt{})
	if result.Error != nil {
		slog.Error("sql error deleting attempts", "error", result.Error)
		return dbError()
	}
	d.attempts += int(result.RowsAffected)
	return nil
}

func (d *deletion) quiz(txn *gorm.DB, quiz schema.Quiz) error {
	err := d.attemptsWhere(txn, quiz.EventId, "event_id = ? AND asset_id = ?", quiz.EventId, quiz.AssetId)
	if err != nil {
		return err
	}

	if err := appendLog(txn, d.actor, quiz.EventId, quiz.Id.String(), fmt.Sprintf("Delete Quiz %v", quiz.Id)); err != nil {
		return err
	}

	result := txn.Delete(&schema.Quiz{Id: quiz.Id})
	if result.Error != nil {
		slog.Error("sql error deleting quiz", "quiz_id", quiz.Id, "error", result.Error)
		return dbError()
	}
	d.quizzes++
	return nil
}

func (d *deletion) asset(txn *gorm.DB, asset schema.Asset) error {
	var quizzes []schema.Quiz
	result := txn.Where("asset_id = ?", asset.Id).Find(&quizzes)
	if result.Error != nil {
		slog.Error("sql error listing quizzes for asset", "asset_id", asset.Id, "error", result.Error)
		return dbError()
	}

	for _, quiz := range quizzes {
		if err := d.quiz(txn, quiz); err != nil {
			return err
		}
	}

	if err := d.attemptsWhere(txn, asset.EventId, "asset_id = ?", asset.Id); err != nil {
		return err
	}

	if err := appendLog(txn, d.actor, asset.EventId, asset.Id.String(), fmt.Sprintf("Delete Asset %v", asset.Id)); err != nil {
		return err
	}

	result = txn.Delete(&schema.Asset{Id: asset.Id})
	if result.Error != nil {
		slog.Error("sql error deleting asset", "asset_id", asset.Id, "error", result.Error)
		return dbError()
	}
	d.assets++

	if asset.ImagePath != "" {
		d.images = append(d.images, asset.ImagePath)
	}
	return nil
}

// event removes assets (with their quizzes and attempts), then any rows still
// keyed by the event, and the event itself last.
func (d *deletion) event(txn *gorm.DB, event schema.Event) error {
	var assets []schema.Asset
	result := txn.Where("event_id = ?", event.Id).Find(&assets)
	if result.Error != nil {
		slog.Error("sql error listing assets for event", "event_id", event.Id, "error", result.Error)
		return dbError()
	}

	for _, asset := range assets {
		if err := d.asset(txn, asset); err != nil {
			return err
		}
	}

	var quizzes []schema.Quiz
	result = txn.Where("event_id = ?", event.Id).Find(&quizzes)
	if result.Error != nil {
		slog.Error("sql error listing quizzes for event", "event_id", event.Id, "error", result.Error)
		return dbError()
	}
	for _, quiz := range quizzes {
		if err := d.quiz(txn, quiz); err != nil {
			return err
		}
	}

	if err := d.attemptsWhere(txn, event.Id, "event_id = ?", event.Id); err != nil {
		return err
	}

	result = txn.Where("event_id = ?", event.Id).Delete(&schema.Leaderboard{})
	if result.Error != nil {
		slog.Error("sql error deleting leaderboard for event", "event_id", event.Id, "error", result.Error)
		return dbError()
	}
	d.leaderboard += int(result.RowsAffected)

	result = txn.Where("event_id = ?", event.Id).Delete(&schema.EventPermission{})
	if result.Error != nil {
		slog.Error("sql error deleting permissions for event", "event_id", event.Id, "error", result.Error)
		return dbError()
	}
	d.permissions += int(result.RowsAffected)

	if err := appendLog(txn, d.actor, event.Id, event.Id.String(), fmt.Sprintf("Delete Event %v", event.Id)); err != nil {
		return err
	}

	result = txn.Delete(&schema.Event{Id: event.Id})
	if result.Error != nil {
		slog.Error("sql error deleting event", "event_id", event.Id, "error", result.Error)
		return dbError()
	}
	d.events++
	return nil
}

// committed removes stored images and records metrics. Image removal failures
// leave orphaned files behind but do not fail the request.
func (d *deletion) committed(store storage.Storage) {
	for _, image := range d.images {
		if store == nil {
			break
		}
		if err := store.Delete(image); err != nil {
			slog.Warn("unable to remove asset image", "path", image, "error", err)
		}
	}

	cascadeDeletes.WithLabelValues("event").Add(float64(d.events))
	cascadeDeletes.WithLabelValues("asset").Add(float64(d.assets))
	cascadeDeletes.WithLabelValues("quiz").Add(float64(d.quizzes))
	cascadeDeletes.WithLabelValues("attempt").Add(float64(d.attempts))
	cascadeDeletes.WithLabelValues("leaderboard").Add(float64(d.leaderboard))
	cascadeDeletes.WithLabelValues("permission").Add(float64(d.permissions))
}
