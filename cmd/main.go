// Package main is the entry point for the bundle-service application.
//
// @title           Bundle Service API
// @version         1.0.0
// @description     API for building product bundles: pricing, validation and cart submission.
//
//	Storefronts send a selection (or the actions that build one) and get back a quote,
//	the rule violations blocking checkout and, on submission, the cart line items and redirect.
//
// @termsOfService  http://swagger.io/terms/
//
// @contact.name   API Support
// @contact.email  support@example.com
// @contact.url    https://github.com/guttosm/bundle-service
//
// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT
//
// @host      localhost:8080
// @BasePath  /
//
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
// @description                 API key for authentication. Required if authentication is enabled.
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Storefront token as "Bearer <jwt>". Replaces API keys when JWT_SECRET_KEY is set.
//
// @tag.name        Bundles
// @tag.description Bundle catalog, quotes and cart submission
//
// @tag.name        Cart
// @tag.description Cart submission through the storefront prepare and cart endpoints
//
// @tag.name        Sessions
// @tag.description Server-side selection sessions
//
// @tag.name        Health
// @tag.description Health check endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/guttosm/bundle-service/docs" // swagger docs

	"github.com/guttosm/bundle-service/config"
	"github.com/guttosm/bundle-service/internal/app"
	"github.com/guttosm/bundle-service/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("Invalid configuration")
	}

	application, err := app.InitializeApp(cfg)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("Failed to initialize application")
	}
	server := app.NewServer(application.Router, cfg.Server.Port,
		app.WithWriteTimeout(app.CartTimeout(cfg.Storefront)),
		app.WithShutdownHook(application.Close),
	)

	if err := server.Run(ctx); err != nil {
		_ = application.Close(context.Background())
		logger.Logger().Fatal().Err(err).Msg("Server error")
	}
}
