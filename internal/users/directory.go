// Package users stores registered users and the accounts each one owns.
package users

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/codec"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

var (
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUsername    = errors.New("username must be non-empty and contain no spaces or commas")
	ErrInvalidPassword    = errors.New("password must be 1 to 72 bytes")
)

type User = codec.User

// Directory is the credential store. All users live in one record file;
// each user's account ids live in a separate file.
type Directory struct {
	mu     sync.Mutex
	store  storage.Store
	layout storage.Layout
	cost   int
	now    func() time.Time
	logger *log.Logger
}

type Option func(*Directory)

// WithCost overrides the bcrypt cost, mainly to keep tests fast.
func WithCost(cost int) Option {
	return func(d *Directory) { d.cost = cost }
}

func WithLogger(l *log.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(d *Directory) { d.now = now }
}

func NewDirectory(store storage.Store, opts ...Option) *Directory {
	d := &Directory{
		store:  store,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: log.FromContext(context.Background()),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.WithComponent(log.ComponentUsers)
	return d
}

// Register creates a user with a bcrypt hashed password.
func (d *Directory) Register(ctx context.Context, username, password string) (User, error) {
	if !validUsername(username) {
		return User{}, ErrInvalidUsername
	}
	if len(password) == 0 || len(password) > 72 {
		return User{}, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	all, err := d.load(ctx)
	if err != nil {
		return User{}, err
	}
	if slices.ContainsFunc(all, func(u User) bool { return u.Username == username }) {
		return User{}, ErrUserExists
	}

	u := User{
		Username:     username,
		PasswordHash: string(hash),
		ID:           uuid.NewString(),
		Timestamps:   core.NewTimestamps(d.now()),
	}
	if err := d.save(ctx, append(all, u)); err != nil {
		return User{}, err
	}

	d.logger.InfoContext(ctx, "User registered", log.FieldUsername, u.Username, log.FieldUserID, u.ID)
	return u, nil
}

// Authenticate returns the user when the password matches. Unknown users and
// wrong passwords yield the same error.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (User, error) {
	d.mu.Lock()
	all, err := d.load(ctx)
	d.mu.Unlock()
	if err != nil {
		return User{}, err
	}

	idx := slices.IndexFunc(all, func(u User) bool { return u.Username == username })
	if idx < 0 {
		return User{}, ErrInvalidCredentials
	}
	u := all[idx]
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		d.logger.WarnContext(ctx, "Authentication failed", log.FieldUsername, username)
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Users lists every registered user in registration order.
func (d *Directory) Users(ctx context.Context) ([]User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(ctx)
}

// AddAccount records that userID owns accountID. Adding twice is a no-op.
func (d *Directory) AddAccount(ctx context.Context, userID, accountID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids, err := d.accounts(ctx, userID)
	if err != nil {
		return err
	}
	if slices.Contains(ids, accountID) {
		return nil
	}
	path := d.layout.UserAccountsFile(userID)
	if err := d.store.EnsureDirectory(ctx, d.layout.UsersDir()); err != nil {
		return fmt.Errorf("%w: create users directory: %w", core.ErrIO, err)
	}
	if err := d.store.Write(ctx, path, codec.EncodeIDs(append(ids, accountID))); err != nil {
		return fmt.Errorf("%w: save account list: %w", core.ErrIO, err)
	}
	return nil
}

// Accounts returns the account ids owned by userID.
func (d *Directory) Accounts(ctx context.Context, userID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accounts(ctx, userID)
}

// Owns reports whether accountID belongs to userID.
func (d *Directory) Owns(ctx context.Context, userID, accountID string) (bool, error) {
	ids, err := d.Accounts(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, accountID), nil
}

func (d *Directory) accounts(ctx context.Context, userID string) ([]string, error) {
	content, err := d.store.Read(ctx, d.layout.UserAccountsFile(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: load account list: %w", core.ErrIO, err)
	}
	return codec.DecodeIDs(content), nil
}

func (d *Directory) load(ctx context.Context) ([]User, error) {
	content, err := d.store.Read(ctx, d.layout.UsersFile())
	if err != nil {
		return nil, fmt.Errorf("%w: load users: %w", core.ErrIO, err)
	}
	all, err := codec.DecodeUsers(content)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return all, nil
}

func (d *Directory) save(ctx context.Context, all []User) error {
	if err := d.store.EnsureDirectory(ctx, d.layout.UsersDir()); err != nil {
		return fmt.Errorf("%w: create users directory: %w", core.ErrIO, err)
	}
	if err := d.store.Write(ctx, d.layout.UsersFile(), codec.EncodeUsers(all)); err != nil {
		return fmt.Errorf("%w: save users: %w", core.ErrIO, err)
	}
	return nil
}

func validUsername(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '"'
	})
}
