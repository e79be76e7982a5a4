package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auth-center/backend/internal/config"
	"github.com/auth-center/backend/internal/db"
	"github.com/auth-center/backend/internal/events"
	apphttp "github.com/auth-center/backend/internal/http"
	"github.com/auth-center/backend/internal/http/handlers"
	"github.com/auth-center/backend/internal/metrics"
	"github.com/auth-center/backend/internal/models"
	"github.com/auth-center/backend/internal/services"
	"github.com/auth-center/backend/internal/store"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	// Events (optional)
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
		cancel()
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		publisher = events.NewRedisPublisher(rdb, log)
	}

	// Stores
	sessions := store.New[models.QRSession](cfg.SessionTTL)
	states := store.New[models.OAuthState](cfg.StateTTL)
	codes := store.New[models.ExchangeCode](cfg.CodeTTL)
	nonces := store.New[string](cfg.NonceTTL)

	m := metrics.New()
	audit := services.NewAuditTrail(publisher, cfg.OutboundTimeout, log)

	// Services
	exchangeService := services.NewExchangeService(codes, cfg.AppTokens, audit, m, log)
	botClient := services.NewBotClient(cfg.TelegramAPIURL, cfg.BotToken, cfg.OutboundTimeout, log)
	telegramService := services.NewTelegramService(services.TelegramConfig{
		BotUsername:  cfg.BotUsername,
		BotToken:     cfg.BotToken,
		WidgetMaxAge: cfg.WidgetMaxAge,
	}, sessions, exchangeService, botClient, audit, m, log)
	solanaService := services.NewSolanaService(nonces, exchangeService, audit, m, log)
	googleService := services.NewGoogleService(services.GoogleConfig{
		ClientID:        cfg.GoogleClientID,
		ClientSecret:    cfg.GoogleClientSecret,
		CallbackURL:     cfg.GoogleCallbackURL,
		DefaultRedirect: cfg.DefaultRedirect,
		Timeout:         cfg.OutboundTimeout,
	}, states, exchangeService, audit, m, log)

	// Handlers
	telegramHandler := handlers.NewTelegramHandler(telegramService, log)
	solanaHandler := handlers.NewSolanaHandler(solanaService, log)
	googleHandler := handlers.NewGoogleHandler(googleService, log)
	exchangeHandler := handlers.NewExchangeHandler(exchangeService, log)
	metaHandler := handlers.NewMetaHandler(cfg)

	app := apphttp.NewApp(log)
	apphttp.SetupRouter(app, cfg, log, m, telegramHandler, solanaHandler, googleHandler, exchangeHandler, metaHandler)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting auth center",
		zap.String("addr", addr),
		zap.Strings("methods", metaHandler.EnabledMethods()),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
