package tests

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/hunt_server/schema"
	"bytes"
	"errors"
	"net/http"
	"testing"
)

func TestSignupLogin(t *testing.T) {
	env := setupTestEnv(t)

	c := env.newClient()
	login, err := c.signup("facilitator1", "facilitator1@mail.com", "pwd")
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.signup("facilitator1", "someone@mail.com", "pwd")
	if errorMessage(err) != "Username is already in use" {
		t.Fatalf("expected username in use, got %v", err)
	}

	_, err = c.signup("someone", "facilitator1@mail.com", "pwd")
	if errorMessage(err) != "Email is already in use" {
		t.Fatalf("expected email in use, got %v", err)
	}

	_, err = c.signup("", "blank@mail.com", "pwd")
	if errorMessage(err) != "Information incomplete!" {
		t.Fatalf("expected missing information, got %v", err)
	}

	err = c.login(loginInfo{Email: login.Email, Password: "wrong"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatal("login with wrong password should fail")
	}

	err = c.login(loginInfo{Email: "nobody@mail.com", Password: "pwd"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatal("login with unknown email should fail")
	}

	if err := c.login(login); err != nil {
		t.Fatal(err)
	}

	info, err := c.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Username != "facilitator1" || info.Level != schema.Facilitator || info.Id != c.userId {
		t.Fatal("signup should create a facilitator")
	}
}

func TestOrganizerCreatesUsers(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.organizerClient()
	if err != nil {
		t.Fatal(err)
	}

	facilitator, err := env.newFacilitator("facilitator1")
	if err != nil {
		t.Fatal(err)
	}

	_, err = facilitator.createUser("sneaky", schema.Organizer)
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("facilitators cannot create users")
	}

	_, err = admin.createUser("badlevel", "ADMIN")
	if errorMessage(err) != "Invalid user level" {
		t.Fatalf("expected invalid level, got %v", err)
	}

	login, err := admin.createUser("organizer456", schema.Organizer)
	if err != nil {
		t.Fatal(err)
	}

	c := env.newClient()
	if err := c.login(login); err != nil {
		t.Fatal(err)
	}
	info, err := c.userInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.Level != schema.Organizer {
		t.Fatal("user should be an organizer")
	}

	var users []userInfo
	if err := admin.Get("/api/user/list").Do(&users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}

	err = facilitator.Get("/api/user/list").Do(nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("facilitators cannot list users")
	}
}

func TestDevSession(t *testing.T) {
	db := openTestDb(t)
	auditLog := auth.NewAuditLogger(new(bytes.Buffer))

	sessions, err := auth.NewMockSessionProvider(db, auditLog, "dev@mail.com", schema.Organizer)
	if err != nil {
		t.Fatal(err)
	}

	env := newTestEnv(t, db, sessions, auditLog)

	// Every request runs as the dev user, no token required.
	c := env.newClient()
	event, err := c.createEvent("Dev Hunt")
	if err != nil {
		t.Fatal(err)
	}
	if event.CreatedBy != "dev@mail.com" {
		t.Fatal("event should be created by the dev user")
	}

	events, err := c.listEvents()
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || !events[0].IsCreator {
		t.Fatal("dev user should see their event")
	}

	res := c.Post("/api/user/signup").Json(map[string]string{
		"email": "x@mail.com", "username": "x", "password": "pwd",
	}).Raw()
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatal("signup is disabled for dev sessions")
	}

	_, err = auth.NewMockSessionProvider(db, auditLog, "dev@mail.com", "ADMIN")
	if err == nil {
		t.Fatal("invalid dev session level should be rejected")
	}
}
