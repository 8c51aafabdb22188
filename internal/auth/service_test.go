package auth

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"storefront/internal/fakestore"
	"storefront/internal/kvstore"
)

type stubVerifier struct {
	token    string
	err      error
	lastUser string
	lastPass string
}

func (s *stubVerifier) Login(_ context.Context, username, password string) (string, error) {
	s.lastUser = username
	s.lastPass = password
	return s.token, s.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestLoginPersistsToken(t *testing.T) {
	ctx := context.Background()
	storage := kvstore.NewMemory()
	verifier := &stubVerifier{token: "tok-1"}
	svc := New(ctx, verifier, storage, testLogger())

	if svc.IsAuthenticated() {
		t.Fatalf("fresh service should not be authenticated")
	}
	if err := svc.Login(ctx, "mor_2314", "83r5^_"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if verifier.lastUser != "mor_2314" || verifier.lastPass != "83r5^_" {
		t.Fatalf("credentials not forwarded: %+v", verifier)
	}
	if !svc.IsAuthenticated() || svc.Token() != "tok-1" {
		t.Fatalf("expected authenticated session with tok-1")
	}

	data, err := storage.Get(ctx, "token")
	if err != nil {
		t.Fatalf("token not persisted: %v", err)
	}
	if string(data) != "tok-1" {
		t.Fatalf("unexpected persisted token: %s", data)
	}
}

func TestSessionRestoredAcrossRestart(t *testing.T) {
	ctx := context.Background()
	storage := kvstore.NewMemory()
	if err := storage.Set(ctx, "token", []byte("tok-old")); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	svc := New(ctx, &stubVerifier{}, storage, testLogger())
	if !svc.IsAuthenticated() || svc.Token() != "tok-old" {
		t.Fatalf("expected restored session, got %q", svc.Token())
	}
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{err: fakestore.ErrInvalidCredentials}
	svc := New(ctx, verifier, kvstore.NewMemory(), testLogger())

	err := svc.Login(ctx, "user", "wrong")
	if !errors.Is(err, fakestore.ErrInvalidCredentials) {
		t.Fatalf("expected verifier error passed through, got %v", err)
	}
	if svc.IsAuthenticated() {
		t.Fatalf("failed login must not authenticate")
	}
}

func TestLogoutClearsToken(t *testing.T) {
	ctx := context.Background()
	storage := kvstore.NewMemory()
	svc := New(ctx, &stubVerifier{token: "tok-1"}, storage, testLogger())
	if err := svc.Login(ctx, "user", "pass"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if svc.IsAuthenticated() {
		t.Fatalf("expected logged-out session")
	}
	if _, err := storage.Get(ctx, "token"); err == nil {
		t.Fatalf("expected persisted token removed")
	}

	// Logout twice is fine.
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}
