package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type SeedQuiz struct {
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
	Answer   int      `yaml:"answer"`
	Points   int      `yaml:"points"`
	Visible  bool     `yaml:"visible"`
}

type SeedAsset struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Latitude    float64    `yaml:"latitude"`
	Longitude   float64    `yaml:"longitude"`
	Visible     bool       `yaml:"visible"`
	Quizzes     []SeedQuiz `yaml:"quizzes"`
}

type SeedEvent struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	EventCode   string      `yaml:"event_code"`
	Start       time.Time   `yaml:"start"`
	End         time.Time   `yaml:"end"`
	IsPublic    bool        `yaml:"public"`
	Visible     bool        `yaml:"visible"`
	Assets      []SeedAsset `yaml:"assets"`
}

// Seed describes events to load into an empty deployment, owned by Organizer.
type Seed struct {
	Organizer string      `yaml:"organizer"`
	Events    []SeedEvent `yaml:"events"`
}

func (s *Seed) Validate() error {
	if s.Organizer == "" {
		return errors.New("seed must specify an organizer email")
	}

	for i, event := range s.Events {
		if event.Name == "" {
			return fmt.Errorf("event %d is missing a name", i)
		}
		if event.Start.IsZero() || event.End.IsZero() {
			return fmt.Errorf("event '%v' must specify start and end", event.Name)
		}
		if event.End.Before(event.Start) {
			return fmt.Errorf("event '%v' ends before it starts", event.Name)
		}
		for _, asset := range event.Assets {
			if asset.Name == "" {
				return fmt.Errorf("event '%v' has an asset without a name", event.Name)
			}
		}
	}

	return nil
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("error parsing seed file: %w", err)
	}

	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}

	return &seed, nil
}
