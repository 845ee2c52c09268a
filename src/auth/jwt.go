package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is checked when no Authorization header is present.
const CookieName = "trustek_token"

var ErrSessionStoreUnavailable = errors.New("auth: session store unavailable")

// Sessions reports whether a session id is still active.
type Sessions interface {
	Active(ctx context.Context, sessionID string) (bool, error)
}

// RedisSessions stores session ids under session:<sid>.
type RedisSessions struct {
	rdb *redis.Client
}

func NewRedisSessions(rdb *redis.Client) *RedisSessions {
	return &RedisSessions{rdb: rdb}
}

func sessionKey(sid string) string { return "session:" + sid }

func (s *RedisSessions) Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, sessionKey(sessionID), userID, ttl).Err()
}

func (s *RedisSessions) Revoke(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func (s *RedisSessions) Active(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrSessionStoreUnavailable, err)
	}
	return n > 0, nil
}

// JWTStateProvider resolves users from HS256 tokens. When Sessions is set the
// token's sid must also be active.
type JWTStateProvider struct {
	Secret   []byte
	Sessions Sessions
	Timeout  time.Duration
}

func NewJWTStateProvider(secret []byte, sessions Sessions) *JWTStateProvider {
	return &JWTStateProvider{Secret: secret, Sessions: sessions, Timeout: 2 * time.Second}
}

func (p *JWTStateProvider) State(c *gin.Context) AuthState {
	raw := bearerToken(c)
	if raw == "" {
		return AuthState{}
	}
	user, err := p.parse(raw)
	if err != nil {
		return AuthState{}
	}
	if p.Sessions == nil || user.SessionID == "" {
		return AuthState{User: user}
	}

	ctx := c.Request.Context()
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	active, err := p.Sessions.Active(ctx, user.SessionID)
	if err != nil {
		return AuthState{IsLoading: true}
	}
	if !active {
		return AuthState{}
	}
	return AuthState{User: user}
}

func (p *JWTStateProvider) parse(raw string) (*User, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return p.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("missing subject")
	}
	sid, _ := claims["sid"].(string)
	return &User{ID: sub, SessionID: sid}, nil
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if v, err := c.Cookie(CookieName); err == nil {
		return v
	}
	return ""
}

// IssueToken mints an HS256 token for userID. An empty sessionID gets a fresh
// uuid; the returned token carries it in the sid claim.
func IssueToken(secret []byte, userID, sessionID string, ttl time.Duration) (string, string, error) {
	if len(secret) == 0 {
		return "", "", errors.New("auth: JWT secret not configured")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"sid": sessionID,
		"exp": time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString(secret)
	return signed, sessionID, err
}
