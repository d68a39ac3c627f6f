package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/NataTusia/Haah-and-Cash/catalogue"
	"github.com/NataTusia/Haah-and-Cash/config"
	"github.com/NataTusia/Haah-and-Cash/db"
	"github.com/NataTusia/Haah-and-Cash/generator"
	"github.com/NataTusia/Haah-and-Cash/httpclient"
	"github.com/NataTusia/Haah-and-Cash/logger"
	"github.com/NataTusia/Haah-and-Cash/media"
	"github.com/NataTusia/Haah-and-Cash/orchestrator"
	"github.com/NataTusia/Haah-and-Cash/repositories"
	"github.com/NataTusia/Haah-and-Cash/retry"
	"github.com/NataTusia/Haah-and-Cash/scheduler"
	"github.com/NataTusia/Haah-and-Cash/server"
	"github.com/NataTusia/Haah-and-Cash/transport/telegram"
)

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.InitFromLevel(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		logger.Log.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logger.Log.Errorf("unknown timezone %q: %v", cfg.Schedule.Timezone, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// catalogue
	pg, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Errorf("failed to open catalogue database: %v", err)
		os.Exit(1)
	}
	defer pg.Close()
	cat := catalogue.NewPostgresCatalogue(pg,
		retry.Fixed("catalogue", cfg.Catalogue.RetryMaxTries, cfg.Catalogue.RetryBackoff),
		cfg.Catalogue.ExcludedPostTypes)

	// generation audit log is optional
	var recorder generator.Recorder
	var failures telegram.FailureCounter
	if cfg.MongoURI != "" {
		mc, mdb, err := db.InitMongo(ctx, cfg.MongoURI, "")
		if err != nil {
			logger.Log.Warnf("generation log disabled, MongoDB unavailable: %v", err)
		} else {
			defer mc.Disconnect(context.Background())
			repo := repositories.NewGenerationLogRepository(mdb)
			recorder, failures = repo, repo
		}
	}

	llm, err := generator.NewTextGenerator(ctx, cfg)
	if err != nil {
		logger.Log.Errorf("failed to create text generator: %v", err)
		os.Exit(1)
	}
	policy := generator.NewPolicy(llm, generator.Options{
		Provider:       cfg.LLM.Provider,
		BrandName:      cfg.LLM.BrandName,
		TargetLanguage: cfg.LLM.TargetLanguage,
		Quota:          generator.NewQuotaLimiterFromConfig(cfg.GenerationQuota, loc),
		Recorder:       recorder,
	})

	unsplash := media.NewUnsplashClient(
		httpclient.New(httpclient.Config{Timeout: cfg.Media.Timeout, RedactQuery: true}),
		cfg.Media.BaseURL, cfg.UnsplashKey)
	photos := media.NewResolver(unsplash, media.Options{
		FallbackKeyword:      cfg.Media.FallbackKeyword,
		PlaceholderURL:       cfg.Media.PlaceholderURL,
		ScriptPlaceholderURL: cfg.Media.ScriptPlaceholderURL,
	})

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Log.Errorf("failed to connect to Telegram: %v", err)
		os.Exit(1)
	}
	logger.InfoWithFields("authorized on Telegram", logger.Fields{"bot": api.Self.UserName})
	bot := telegram.NewBot(api, cfg.AdminID, cfg.ChannelID)

	orch := orchestrator.New(cat, policy, photos, bot, bot, orchestrator.Options{
		Location:       loc,
		ErrorSignature: cfg.Telegram.ErrorSignature,
	})

	sched, err := scheduler.New(orch, cfg.Schedule, loc)
	if err != nil {
		logger.Log.Errorf("failed to build schedule: %v", err)
		os.Exit(1)
	}

	handler := telegram.NewHandler(bot, orch, telegram.HandlerOptions{
		BrandName: cfg.LLM.BrandName,
		Location:  loc,
		Schedule:  sched,
		Failures:  failures,
	})

	logger.Log.Info("starting draft bot...")

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(ctx, server.New(pg, orch), cfg.Server.Port); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Errorf("health server error: %v", err)
		}
	}()

	sched.Start()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.Run(ctx, updates)
	}()

	<-sigChan
	logger.Log.Info("received shutdown signal, stopping draft bot...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	sched.Stop(stopCtx)
	api.StopReceivingUpdates()
	cancel()
	wg.Wait()

	logger.Log.Info("draft bot stopped")
}
