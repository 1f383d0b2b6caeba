package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nicuwatch/nicudash/internal/domain/alarm"
)

// AccessTokenCookie is read when no Authorization header is present
const AccessTokenCookie = "accessToken"

var (
	ErrMissingToken = errors.New("missing authentication token")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims are the session claims issued by the login service
type Claims struct {
	UserID int64  `json:"uid"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Gate resolves the acting clinician for a request
type Gate interface {
	Authenticate(r *http.Request) (*alarm.Actor, error)
}

// JWTGate verifies HS256 session tokens
type JWTGate struct {
	secret []byte
	issuer string
}

func NewJWTGate(secret, issuer string) *JWTGate {
	return &JWTGate{secret: []byte(secret), issuer: issuer}
}

func (g *JWTGate) Authenticate(r *http.Request) (*alarm.Actor, error) {
	tokenStr := tokenFromRequest(r)
	if tokenStr == "" {
		return nil, ErrMissingToken
	}

	claims, err := ParseClaims(tokenStr, g.secret, g.issuer)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 || !ValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}

	return &alarm.Actor{UserID: claims.UserID, Name: claims.Name, Role: claims.Role}, nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// ParseClaims validates signature, expiry and, when set, the issuer
func ParseClaims(tokenStr string, secret []byte, issuer string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}

// MintToken signs a token for actor. Used by tooling and tests; production tokens come from the login service.
func MintToken(actor alarm.Actor, secret, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: actor.UserID,
		Name:   actor.Name,
		Role:   actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString([]byte(secret))
}
