package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/log"
	"fintrack/internal/storage"
)

func newTestDirectory(store storage.Store) *Directory {
	return NewDirectory(store, WithCost(bcrypt.MinCost), WithLogger(log.Discard()))
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	dir := newTestDirectory(store)

	u, err := dir.Register(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == "" || u.PasswordHash == "s3cret" {
		t.Fatalf("user not initialized properly: %+v", u)
	}

	got, err := dir.Authenticate(ctx, "alice", "s3cret")
	if err != nil || got.ID != u.ID {
		t.Fatalf("Authenticate: %+v, %v", got, err)
	}

	// A fresh directory over the same store sees the persisted user.
	again := newTestDirectory(store)
	if _, err := again.Authenticate(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("persisted user not found: %v", err)
	}

	for _, tc := range []struct{ user, pass string }{
		{"alice", "wrong"},
		{"bob", "s3cret"},
	} {
		if _, err := dir.Authenticate(ctx, tc.user, tc.pass); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s/%s: expected ErrInvalidCredentials, got %v", tc.user, tc.pass, err)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	dir := newTestDirectory(storage.NewMemoryStore())
	if _, err := dir.Register(ctx, "alice", "pw"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"duplicate", "alice", "other", ErrUserExists},
		{"empty username", "", "pw", ErrInvalidUsername},
		{"space in username", "a b", "pw", ErrInvalidUsername},
		{"comma in username", "a,b", "pw", ErrInvalidUsername},
		{"empty password", "carol", "", ErrInvalidPassword},
		{"password too long", "carol", strings.Repeat("p", 73), ErrInvalidPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dir.Register(ctx, tt.username, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	all, err := dir.Users(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("expected exactly one user, got %d (err=%v)", len(all), err)
	}
}

func TestAccountOwnership(t *testing.T) {
	ctx := context.Background()
	dir := newTestDirectory(storage.NewMemoryStore())

	if ids, err := dir.Accounts(ctx, "u1"); err != nil || len(ids) != 0 {
		t.Fatalf("new user should own nothing: %v %v", ids, err)
	}
	for _, id := range []string{"a1", "a2", "a1"} {
		if err := dir.AddAccount(ctx, "u1", id); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := dir.Accounts(ctx, "u1")
	if err != nil || len(ids) != 2 || ids[0] != "a1" || ids[1] != "a2" {
		t.Fatalf("unexpected accounts %v (err=%v)", ids, err)
	}

	if ok, _ := dir.Owns(ctx, "u1", "a2"); !ok {
		t.Errorf("u1 should own a2")
	}
	if ok, _ := dir.Owns(ctx, "u2", "a2"); ok {
		t.Errorf("u2 should not own a2")
	}
}
