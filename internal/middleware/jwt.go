package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/guttosm/bundle-service/internal/domain/dto"
	"github.com/guttosm/bundle-service/internal/i18n"
)

const (
	// ContextKeySubject holds the authenticated caller, if any.
	ContextKeySubject = "subject"
	// ContextKeyShop holds the shop domain from a storefront token.
	ContextKeyShop = "shop"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// StorefrontClaims are the claims of a storefront session token.
type StorefrontClaims struct {
	jwt.RegisteredClaims
	// Dest is the shop the token was issued for.
	Dest string `json:"dest,omitempty"`
}

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(tokenString string) (*StorefrontClaims, error)
}

// HMACTokenValidator validates HS256 tokens signed with a shared secret.
type HMACTokenValidator struct {
	secret []byte
	issuer string
}

// NewHMACTokenValidator creates a validator. An empty issuer accepts any issuer.
func NewHMACTokenValidator(secret []byte, issuer string) *HMACTokenValidator {
	return &HMACTokenValidator{secret: secret, issuer: issuer}
}

// Validate parses and verifies tokenString.
func (v *HMACTokenValidator) Validate(tokenString string) (*StorefrontClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &StorefrontClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*StorefrontClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// JWTAuth returns a middleware that validates storefront bearer tokens.
func JWTAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, i18n.ErrKeyTokenRequired)
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, i18n.ErrKeyInvalidToken)
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			abortUnauthorized(c, i18n.ErrKeyTokenRequired)
			return
		}

		claims, err := validator.Validate(tokenString)
		if err != nil {
			abortUnauthorized(c, i18n.ErrKeyInvalidToken)
			return
		}

		c.Set(ContextKeySubject, claims.Subject)
		c.Set(ContextKeyShop, claims.Dest)

		c.Next()
	}
}

// GetSubject returns the authenticated caller stored by the auth middleware.
func GetSubject(c *gin.Context) string {
	return c.GetString(ContextKeySubject)
}

func abortUnauthorized(c *gin.Context, key string) {
	message := i18n.GetTranslator().Translate(key, i18n.GetLocale(c))
	errorResp := dto.NewError(dto.ErrCodeUnauthorized, message).
		WithRequestID(GetRequestID(c))
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResp)
}
