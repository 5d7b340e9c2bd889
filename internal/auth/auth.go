// internal/auth/auth.go
//
// Optional player accounts so best records follow a player across browsers.
// Responsibilities:
//   - Username/password validation and bcrypt hashing.
//   - User rows in the key-value store ("user:name:<lower>", "user:id:<id>").
//   - HS256 JWT signing and verification.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/concentration/internal/store"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// User is an account row.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Claims is the identity carried by a token.
type Claims struct {
	ID       string
	Username string
}

// Service manages accounts and tokens.
type Service struct {
	kv     store.KV
	secret []byte
	ttl    time.Duration

	mu sync.Mutex // serialises signups so usernames stay unique
}

// NewService builds a Service signing tokens with secret, valid for ttl.
func NewService(kv store.KV, secret string, ttl time.Duration) *Service {
	return &Service{kv: kv, secret: []byte(secret), ttl: ttl}
}

func nameKey(username string) string { return "user:name:" + strings.ToLower(username) }
func idKey(id string) string         { return "user:id:" + id }

// normalizeUsername trims whitespace.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 72 {
		return errors.New("password must be 8–72 chars")
	}
	return nil
}

// Signup validates input, checks uniqueness, hashes the password and stores
// the user.
func (s *Service) Signup(ctx context.Context, username, pw string) (*User, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.kv.Get(ctx, nameKey(username)); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	b, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, nameKey(username), string(b)); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	if err := s.kv.Set(ctx, idKey(u.ID), strings.ToLower(username)); err != nil {
		return nil, fmt.Errorf("store user id: %w", err)
	}
	return u, nil
}

// Login checks credentials. Unknown users and wrong passwords both return
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, pw string) (*User, error) {
	u, err := s.findByName(ctx, normalizeUsername(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// FindByID loads a user or returns store.ErrNotFound.
func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	name, err := s.kv.Get(ctx, idKey(id))
	if err != nil {
		return nil, err
	}
	return s.findByName(ctx, name)
}

func (s *Service) findByName(ctx context.Context, username string) (*User, error) {
	raw, err := s.kv.Get(ctx, nameKey(username))
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// Sign creates an HS256 token for u and returns it with its expiry.
func (s *Service) Sign(u *User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       u.ID,
		"username": u.Username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// Parse verifies a token's signature and expiry.
func (s *Service) Parse(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return Claims{}, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{ID: id, Username: username}, nil
}
