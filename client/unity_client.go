package client

import (
	"ar_hunt/hunt_server/schema"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// UnityClient calls the AR client endpoints with the shared secret.
type UnityClient struct {
	BaseClient
}

func NewUnityClient(baseUrl, secret string) *UnityClient {
	return &UnityClient{BaseClient: NewBaseClient(baseUrl, secret)}
}

// SubmitPoints records a player's answer to the quiz on an asset. A repeated
// submission returns an error matching ErrAlreadyAttempted.
func (c *UnityClient) SubmitPoints(eventId uuid.UUID, username string, assetId uuid.UUID, points int) error {
	body := map[string]interface{}{
		"eventID":  eventId.String(),
		"username": username,
		"assetID":  assetId.String(),
		"points":   points,
	}
	return c.Post("/api/unity/points").Json(body).Do(nil)
}

func (c *UnityClient) Leaderboard(eventId uuid.UUID) ([]schema.Leaderboard, error) {
	var rows []schema.Leaderboard
	err := c.Post("/api/unity/leaderboard").Json(map[string]string{"eventID": eventId.String()}).Do(&rows)
	return rows, err
}

type UnityEvent struct {
	Event   schema.Event   `json:"event"`
	Assets  []schema.Asset `json:"assets"`
	Quizzes []schema.Quiz  `json:"quizzes"`
}

func (c *UnityClient) JoinEvent(eventCode string) (UnityEvent, error) {
	var res UnityEvent
	err := c.Post("/api/unity/event").Json(map[string]string{"eventCode": eventCode}).Do(&res)
	if err != nil {
		return UnityEvent{}, fmt.Errorf("failed to join event %v: %w", eventCode, err)
	}
	return res, nil
}

func (c *UnityClient) Attempted(eventId uuid.UUID, username string, assetId uuid.UUID) (bool, error) {
	var res struct {
		Attempted bool `json:"attempted"`
	}
	body := map[string]string{
		"eventID":  eventId.String(),
		"username": username,
		"assetID":  assetId.String(),
	}
	err := c.Post("/api/unity/attempted").Json(body).Do(&res)
	return res.Attempted, err
}

func (c *UnityClient) AssetImage(assetId uuid.UUID, w io.Writer) error {
	return c.Get(fmt.Sprintf("/api/unity/image/%v", assetId)).Download(w)
}
