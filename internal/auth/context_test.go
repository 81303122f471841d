package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{UserID: 1, SessionID: 3}
	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
}

func TestFromContextEmpty(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected no AuthContext in empty context")
	}
}

func TestUserIDFallback(t *testing.T) {
	if id := UserID(context.Background()); id != 0 {
		t.Errorf("UserID = %d, want 0", id)
	}
	ctx := WithAuth(context.Background(), AuthContext{UserID: 42})
	if id := UserID(ctx); id != 42 {
		t.Errorf("UserID = %d, want 42", id)
	}
}
