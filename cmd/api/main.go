package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hlchau/lucky-draw-system/internal/cache"
	"github.com/hlchau/lucky-draw-system/internal/config"
	"github.com/hlchau/lucky-draw-system/internal/handler"
	"github.com/hlchau/lucky-draw-system/internal/repository"
	"github.com/hlchau/lucky-draw-system/internal/service"
	"github.com/hlchau/lucky-draw-system/internal/validator"
	"github.com/hlchau/lucky-draw-system/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	// Durable store: source of truth, fail hard if unreachable.
	pool, err := database.NewPool(ctx, cfg.DB.URL, cfg.DB.MaxRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Cache: a hint, not a dependency. A bad URL is a config bug; an
	// unreachable server only costs cache misses.
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid redis URL")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable at startup, continuing without cache hits")
	}

	app := fiber.New(fiber.Config{
		AppName:      "Lucky Draw System",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	validate := validator.New()

	// Layered wiring: repositories over the shared pool, services on top,
	// handlers at the edge.
	userRepo := repository.NewUserRepository(pool)
	campaignRepo := repository.NewCampaignRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	drawRepo := repository.NewDrawRepository()
	drawCache := cache.New(redisClient)

	userService := service.NewUserService(userRepo)
	campaignService := service.NewCampaignService(pool, campaignRepo)
	drawService := service.NewDrawService(pool, drawRepo, campaignRepo, couponRepo, drawCache)
	redeemService := service.NewRedeemService(couponRepo)

	userHandler := handler.NewUserHandler(userService, validate)
	campaignHandler := handler.NewCampaignHandler(campaignService, validate)
	drawHandler := handler.NewDrawHandler(drawService, validate)
	redeemHandler := handler.NewRedeemHandler(redeemService, validate)
	healthHandler := handler.NewHealthHandler(pool)

	app.Get("/health", healthHandler.Check)

	app.Get("/user", userHandler.ListUsers)
	app.Post("/user", userHandler.CreateUser)
	app.Delete("/user/:id", userHandler.DeleteUser)

	app.Post("/campaign", campaignHandler.CreateCampaign)
	app.Get("/campaign/:id", campaignHandler.GetCampaign)

	app.Post("/draw", drawHandler.Draw)
	app.Post("/redeem", redeemHandler.Redeem)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("addr", cfg.Server.Addr()).Msg("starting server")
		if err := app.Listen(cfg.Server.Addr()); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close connections AFTER the server drains (even if shutdown timed out)
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("error closing redis client")
	}
	pool.Close()
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
