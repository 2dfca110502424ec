package auth

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	SessionCookie     = "session_id"
)

// SessionStore wraps Redis for session management.
type SessionStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	secure bool
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration, secure bool) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{rdb: rdb, ttl: ttl, secure: secure}
}

// Create stores a new session mapping sessionID -> userID.
func (s *SessionStore) Create(ctx context.Context, userID int64) (string, error) {
	sid := uuid.New().String()
	err := s.rdb.Set(ctx, "session:"+sid, strconv.FormatInt(userID, 10), s.ttl).Err()
	return sid, err
}

// Get returns the userID for a session. ok is false if the session is
// missing or expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (int64, bool, error) {
	val, err := s.rdb.Get(ctx, "session:"+sessionID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt session %s: %w", sessionID, err)
	}
	return id, true, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, "session:"+sessionID).Err()
}

// Cookie builds the session cookie for sid.
func (s *SessionStore) Cookie(sid string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl / time.Second),
	}
}

// ExpiredCookie clears the session cookie in the browser.
func (s *SessionStore) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	}
}
