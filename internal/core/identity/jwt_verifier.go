// Package identity verifies bearer tokens issued by an external identity provider.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/Slidewise/internal/config"
	"github.com/markdave123-py/Slidewise/internal/core"
)

var _ core.TokenVerifier = (*JWTVerifier)(nil)

// JWTVerifier validates tokens with a JWKS endpoint or a shared HMAC secret.
type JWTVerifier struct {
	keyFunc jwt.Keyfunc
	methods []string
	issuer  string
	jwks    *keyfunc.JWKS
}

// NewVerifier builds a verifier from config. It returns nil when neither
// AUTH_JWKS_URL nor JWT_SECRET is set; every caller is then anonymous.
func NewVerifier(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*JWTVerifier, error) {
	switch {
	case cfg.AuthJWKSURL != "":
		jwks, err := keyfunc.Get(cfg.AuthJWKSURL, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Error().Err(err).Msg("jwks refresh error")
			},
		})
		if err != nil {
			return nil, fmt.Errorf("fetch jwks: %w", err)
		}
		return &JWTVerifier{
			keyFunc: jwks.Keyfunc,
			methods: []string{"RS256", "RS384", "RS512", "ES256"},
			issuer:  cfg.AuthIssuer,
			jwks:    jwks,
		}, nil
	case cfg.JWTSecret != "":
		return NewHMACVerifier(cfg.JWTSecret, cfg.AuthIssuer), nil
	default:
		log.Warn().Msg("no AUTH_JWKS_URL or JWT_SECRET; all requests are anonymous")
		return nil, nil
	}
}

// NewHMACVerifier accepts HS256 tokens signed with secret.
func NewHMACVerifier(secret, issuer string) *JWTVerifier {
	key := []byte(secret)
	return &JWTVerifier{
		keyFunc: func(*jwt.Token) (interface{}, error) { return key, nil },
		methods: []string{"HS256"},
		issuer:  issuer,
	}
}

// Verify parses and validates token. The user id is the sub claim, or
// user_id for tokens minted by older deployments.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*core.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods(v.methods), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.keyFunc, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}

	userID, _ := claims["sub"].(string)
	if strings.TrimSpace(userID) == "" {
		userID, _ = claims["user_id"].(string)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: token has no subject", core.ErrUnauthorized)
	}
	return &core.Identity{UserID: userID, Claims: claims}, nil
}

// Close stops background JWKS refreshes.
func (v *JWTVerifier) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}
