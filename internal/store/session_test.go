package store

import (
	"testing"
	"time"

	"github.com/ritualhq/ritual/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := NewUserStore(db).Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewSessionStore(db), u.ID
}

func TestSessionCreateAndGet(t *testing.T) {
	ss, userID := setupSessionTestDB(t)

	sess, err := ss.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(sess.Token))
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Error("new session already expired")
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got == nil || got.UserID != userID {
		t.Errorf("got %+v, want session for user %d", got, userID)
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	ss, userID := setupSessionTestDB(t)

	a, err := ss.Create(userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := ss.Create(userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Token == b.Token {
		t.Error("two sessions share a token")
	}
}

func TestSessionDelete(t *testing.T) {
	ss, userID := setupSessionTestDB(t)

	sess, err := ss.Create(userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := ss.Delete(sess.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestSessionUnknownToken(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	got, err := ss.GetByToken("does-not-exist")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown token")
	}
}
