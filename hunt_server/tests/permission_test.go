package tests

import (
	"ar_hunt/hunt_server/schema"
	"errors"
	"testing"
)

func TestGrantRevokePermissions(t *testing.T) {
	env := setupTestEnv(t)

	organizer, err := env.organizerClient()
	if err != nil {
		t.Fatal(err)
	}

	other, err := env.newOrganizer("organizer456")
	if err != nil {
		t.Fatal(err)
	}

	facilitator, err := env.newFacilitator("facilitator1")
	if err != nil {
		t.Fatal(err)
	}

	event, err := organizer.createEvent("Quad Hunt")
	if err != nil {
		t.Fatal(err)
	}

	_, err = facilitator.grantPermission(event.Id, "facilitator1@mail.com")
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("facilitators cannot grant permissions")
	}

	_, err = other.grantPermission(event.Id, "facilitator1@mail.com")
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("only the event creator can grant permissions")
	}

	_, err = organizer.grantPermission(event.Id, "nobody@mail.com")
	if errorMessage(err) != "No facilitator found with this email" {
		t.Fatalf("expected unknown facilitator, got %v", err)
	}

	_, err = organizer.grantPermission(event.Id, "organizer456@mail.com")
	if errorMessage(err) != "Permissions can only be granted to facilitators" {
		t.Fatalf("expected facilitator only error, got %v", err)
	}

	perm, err := organizer.grantPermission(event.Id, "facilitator1@mail.com")
	if err != nil {
		t.Fatal(err)
	}

	_, err = organizer.grantPermission(event.Id, "facilitator1@mail.com")
	if errorMessage(err) != "Permission already granted" {
		t.Fatalf("expected duplicate permission, got %v", err)
	}

	perms, err := organizer.listPermissions(event.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 1 || perms[0].Id != perm.Id || perms[0].Email != "facilitator1@mail.com" {
		t.Fatal("permission listing wrong")
	}

	events, err := facilitator.listEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Id != event.Id {
		t.Fatal("facilitator should see the granted event")
	}

	err = other.revokePermission(perm.Id)
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("only the event creator can revoke permissions")
	}

	if err := organizer.revokePermission(perm.Id); err != nil {
		t.Fatal(err)
	}

	events, err = facilitator.listEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatal("facilitator should no longer see the event")
	}

	if env.count(&schema.EventPermission{}, "1 = 1") != 0 {
		t.Fatal("permission should be deleted")
	}
}

func TestLeaderboardAndAttemptsAdmin(t *testing.T) {
	env := setupTestEnv(t)
	f := setupScoring(t, env)

	facilitator, err := env.newFacilitator("facilitator1")
	if err != nil {
		t.Fatal(err)
	}

	for _, player := range []string{"player1", "player2"} {
		if err := f.unity.submitPoints(f.event.Id, player, f.asset.Id, 10); err != nil {
			t.Fatal(err)
		}
	}

	_, err = facilitator.leaderboard(f.event.Id)
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("facilitator has not been granted the event")
	}

	if _, err := f.organizer.grantPermission(f.event.Id, "facilitator1@mail.com"); err != nil {
		t.Fatal(err)
	}

	rows, err := facilitator.leaderboard(f.event.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatal("expected 2 leaderboard rows")
	}

	attempts, err := facilitator.attempts(f.event.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 2 {
		t.Fatal("expected 2 attempts")
	}

	err = facilitator.deleteAttempt(attempts[0].Id)
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("facilitators cannot delete attempts")
	}

	if err := f.organizer.deleteAttempt(attempts[0].Id); err != nil {
		t.Fatal(err)
	}
	if env.count(&schema.Attempt{}, "event_id = ?", f.event.Id) != 1 {
		t.Fatal("attempt should be deleted")
	}

	err = facilitator.deleteLeaderboard(f.event.Id)
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("facilitators cannot reset the leaderboard")
	}

	if err := f.organizer.deleteLeaderboard(f.event.Id); err != nil {
		t.Fatal(err)
	}

	rows, err = f.organizer.leaderboard(f.event.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatal("leaderboard should be empty")
	}
}

func TestEventLogs(t *testing.T) {
	env := setupTestEnv(t)
	f := setupScoring(t, env)

	other, err := env.newOrganizer("organizer456")
	if err != nil {
		t.Fatal(err)
	}

	if err := f.unity.submitPoints(f.event.Id, "player1", f.asset.Id, 10); err != nil {
		t.Fatal(err)
	}

	_, err = other.logs(f.event.Id)
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("only the creator can read event logs")
	}

	logs, err := f.organizer.logs(f.event.Id)
	if err != nil {
		t.Fatal(err)
	}

	expected := []struct {
		actor   string
		message string
	}{
		{organizerEmail, "Create Event " + f.event.Id.String()},
		{organizerEmail, "Create Asset " + f.asset.Id.String()},
		{organizerEmail, "Create Quiz " + f.quiz.Id.String()},
		{"player1", "Attempted Quiz from " + f.asset.Id.String()},
	}

	found := 0
	for _, e := range expected {
		for _, log := range logs {
			if log.Actor == e.actor && log.Message == e.message {
				found++
				break
			}
		}
	}
	if found != len(expected) {
		t.Fatalf("expected logs missing, got %+v", logs)
	}

	for i := 1; i < len(logs); i++ {
		if logs[i].Timestamp.Before(logs[i-1].Timestamp) {
			t.Fatal("logs should be ordered by time")
		}
	}
}
