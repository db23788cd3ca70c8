//go:build ignore

// generate_keys prints fresh auth secrets in .env format and, with -token,
// a storefront session token for local requests.
//
//	go run scripts/generate_keys.go -api-keys 3
//	go run scripts/generate_keys.go -token -secret "$JWT_SECRET_KEY" -shop demo.myshopify.com
package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/guttosm/bundle-service/internal/middleware"
)

func randomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func printSecrets(apiKeys int) error {
	secret, err := randomSecret(32)
	if err != nil {
		return fmt.Errorf("jwt secret: %w", err)
	}
	keys := make([]string, apiKeys)
	for i := range keys {
		if keys[i], err = randomSecret(24); err != nil {
			return fmt.Errorf("api key: %w", err)
		}
	}

	fmt.Println("# HS256 secret shared with the storefront issuing session tokens")
	fmt.Printf("JWT_SECRET_KEY=%s\n", secret)
	if apiKeys > 0 {
		fmt.Println("# server-to-server callers, sent in X-API-Key")
		fmt.Printf("API_KEYS=%s\n", strings.Join(keys, ","))
	}
	return nil
}

func printToken(secret, issuer, subject, shop string, ttl time.Duration) error {
	if secret == "" {
		return fmt.Errorf("-secret is required with -token")
	}
	now := time.Now()
	claims := middleware.StorefrontClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Dest: shop,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return err
	}
	fmt.Printf("Authorization: Bearer %s\n", signed)
	return nil
}

func main() {
	apiKeys := flag.Int("api-keys", 2, "number of API keys to generate")
	token := flag.Bool("token", false, "mint a session token instead of generating secrets")
	secret := flag.String("secret", os.Getenv("JWT_SECRET_KEY"), "signing secret for -token")
	issuer := flag.String("issuer", os.Getenv("JWT_ISSUER"), "iss claim for -token")
	subject := flag.String("subject", "dev-customer", "sub claim for -token")
	shop := flag.String("shop", "", "dest claim for -token")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	var err error
	if *token {
		err = printToken(*secret, *issuer, *subject, *shop, *ttl)
	} else {
		err = printSecrets(*apiKeys)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate_keys: %v\n", err)
		os.Exit(1)
	}
}
