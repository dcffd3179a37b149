package services

import (
	"ar_hunt/hunt_server/config"
	"ar_hunt/hunt_server/schema"
	"ar_hunt/utils/logging"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplySeed creates the events described by seed. Events whose code is already
// taken are skipped so the seed can be applied on every start.
func ApplySeed(db *gorm.DB, seed *config.Seed) error {
	organizer, err := schema.GetUserByEmail(seed.Organizer, db)
	if err != nil {
		return fmt.Errorf("error loading seed organizer %v: %w", seed.Organizer, err)
	}
	if organizer.Level != schema.Organizer {
		return fmt.Errorf("seed owner %v is not an organizer", seed.Organizer)
	}

	return db.Transaction(func(txn *gorm.DB) error {
		for _, seedEvent := range seed.Events {
			code := strings.ToUpper(seedEvent.EventCode)
			if code != "" {
				_, err := schema.GetEventByCode(code, txn)
				if err == nil {
					slog.Info("seed event already exists, skipping", "code", logging.SYSTEM, "event_code", code)
					continue
				}
				if !errors.Is(err, schema.ErrEventNotFound) {
					return err
				}
			} else {
				code, err = newEventCode(txn)
				if err != nil {
					return err
				}
			}

			if err := seedEventRows(txn, organizer.Email, code, seedEvent); err != nil {
				return fmt.Errorf("error seeding event '%v': %w", seedEvent.Name, err)
			}
		}
		return nil
	})
}

func seedEventRows(txn *gorm.DB, owner, code string, seedEvent config.SeedEvent) error {
	event := schema.Event{
		Id:          uuid.New(),
		Name:        seedEvent.Name,
		Description: seedEvent.Description,
		StartDate:   seedEvent.Start.Unix(),
		EndDate:     seedEvent.End.Unix(),
		IsPublic:    seedEvent.IsPublic,
		Visible:     seedEvent.Visible,
		EventCode:   code,
		CreatedBy:   owner,
	}
	if err := txn.Create(&event).Error; err != nil {
		return fmt.Errorf("error creating event: %w", err)
	}
	if err := schema.AppendLog(txn, owner, event.Id, event.Id.String(), fmt.Sprintf("Create Event %v", event.Id)); err != nil {
		return err
	}

	for _, seedAsset := range seedEvent.Assets {
		if err := validateCoordinates(seedAsset.Latitude, seedAsset.Longitude); err != nil {
			return fmt.Errorf("asset '%v': %w", seedAsset.Name, err)
		}

		asset := schema.Asset{
			Id:          uuid.New(),
			EventId:     event.Id,
			Name:        seedAsset.Name,
			Description: seedAsset.Description,
			Latitude:    seedAsset.Latitude,
			Longitude:   seedAsset.Longitude,
			Visible:     seedAsset.Visible,
			CreatedBy:   owner,
		}
		if err := txn.Create(&asset).Error; err != nil {
			return fmt.Errorf("error creating asset: %w", err)
		}
		if err := schema.AppendLog(txn, owner, event.Id, asset.Id.String(), fmt.Sprintf("Create Asset %v", asset.Id)); err != nil {
			return err
		}

		for _, seedQuiz := range seedAsset.Quizzes {
			content, err := newQuizContent(seedQuiz.Question, seedQuiz.Options, seedQuiz.Answer, seedQuiz.Points)
			if err != nil {
				return fmt.Errorf("quiz '%v': %w", seedQuiz.Question, err)
			}

			quiz := schema.Quiz{Id: uuid.New(), EventId: event.Id, AssetId: asset.Id, Visible: seedQuiz.Visible, CreatedBy: owner}
			content.apply(&quiz)
			if err := createQuiz(txn, quiz); err != nil {
				return err
			}
		}
	}

	slog.Info("seeded event", "code", logging.SYSTEM, "event_id", event.Id, "event_code", code, "assets", len(seedEvent.Assets))
	return nil
}
