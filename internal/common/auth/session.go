// Package auth resolves bearer tokens to dashboard principals. Sessions are
// issued elsewhere; this package only reads (and, for tooling, writes) them.
package auth

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"loan-dashboard/internal/common/errors"
	"loan-dashboard/internal/common/logger"
	"loan-dashboard/internal/common/validation"
	"loan-dashboard/internal/models"
)

const DefaultKeyPrefix = "session:"

var principalSchema = validation.MustCompile(validation.PrincipalSchema)

type SessionStore struct {
	rdb    redis.Cmdable
	prefix string
	logger logger.Logger
}

func NewSessionStore(rdb redis.Cmdable, prefix string, log logger.Logger) *SessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &SessionStore{rdb: rdb, prefix: prefix, logger: log}
}

func (s *SessionStore) key(token string) string {
	return s.prefix + token
}

// Resolve returns the principal stored for token. Every way a session can be
// unusable (no token, no key, bad JSON, missing id or role) is an auth error;
// only a store failure is returned as a plain error.
func (s *SessionStore) Resolve(ctx context.Context, token string) (*models.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.NewNotAuthenticatedError("missing session token")
	}

	raw, err := s.rdb.Get(ctx, s.key(token)).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.NewNotAuthenticatedError("session not found")
	}
	if err != nil {
		s.logger.Error("Session lookup failed", map[string]interface{}{"error": err})
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}

	result := principalSchema.ValidateBytes(raw)
	if !result.Valid {
		s.logger.Warn("Rejected malformed session", map[string]interface{}{
			"errors": result.GetErrorMessages(),
		})
		return nil, errors.NewNotAuthenticatedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var principal models.Principal
	if err := json.Unmarshal(raw, &principal); err != nil || !principal.Valid() {
		return nil, errors.NewNotAuthenticatedError("session does not hold a principal")
	}
	return &principal, nil
}

// Save stores principal under token. A zero ttl keeps the key forever.
func (s *SessionStore) Save(ctx context.Context, token string, principal models.Principal, ttl time.Duration) error {
	if !principal.Valid() {
		return errors.NewInvalidCommandError("Principal requires id and role", fmt.Sprintf("%+v", principal))
	}
	data, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("failed to marshal principal: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(token), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const scheme = "bearer "
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return ""
	}
	return strings.TrimSpace(header[len(scheme):])
}
