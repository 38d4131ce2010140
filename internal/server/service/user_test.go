package service

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"chesskit/internal/server/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "test.db"), false)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.InitDB(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	svc := New(store, []byte("test-secret-minimum-32-characters"))
	t.Cleanup(func() {
		_ = svc.Shutdown(time.Second)
	})
	return svc
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.CreateUser("alice", "", "password1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := svc.GenerateUserToken(user.UserID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	gotID, _, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}
	if gotID != user.UserID {
		t.Errorf("token user = %q, want %q", gotID, user.UserID)
	}

	if err := svc.Logout(user.UserID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, _, err := svc.ValidateToken(token); err == nil {
		t.Error("token still valid after logout")
	}
}

func TestNewTokenReplacesSession(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.CreateUser("bob", "", "password1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	first, err := svc.GenerateUserToken(user.UserID)
	if err != nil {
		t.Fatalf("first token: %v", err)
	}
	second, err := svc.GenerateUserToken(user.UserID)
	if err != nil {
		t.Fatalf("second token: %v", err)
	}

	// One active session per user: a new login revokes the old token
	if _, _, err := svc.ValidateToken(first); err == nil {
		t.Error("first token survived a second login")
	}
	if _, _, err := svc.ValidateToken(second); err != nil {
		t.Errorf("second token rejected: %v", err)
	}
}

func TestCreateUserCapacity(t *testing.T) {
	svc := newTestService(t)

	for i := 0; i < MaxUsers; i++ {
		record := storage.UserRecord{
			UserID:       fmt.Sprintf("id-%03d", i),
			Username:     fmt.Sprintf("user%03d", i),
			PasswordHash: "unused",
			AccountType:  "temp",
			CreatedAt:    time.Now().UTC(),
		}
		if err := svc.store.CreateUser(record); err != nil {
			t.Fatalf("seed user %d: %v", i, err)
		}
	}

	if _, err := svc.CreateUser("overflow", "", "password1"); err == nil {
		t.Error("registration accepted past the user cap")
	}
}
