package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cortexhub/mnemo/internal/agent"
	"github.com/cortexhub/mnemo/internal/channel"
	"github.com/cortexhub/mnemo/internal/channel/discord"
	"github.com/cortexhub/mnemo/internal/channel/telegram"
	"github.com/cortexhub/mnemo/internal/channel/webchat"
	"github.com/cortexhub/mnemo/internal/config"
	"github.com/cortexhub/mnemo/internal/gate"
	"github.com/cortexhub/mnemo/internal/intent"
	"github.com/cortexhub/mnemo/internal/logging"
	"github.com/cortexhub/mnemo/internal/memory"
	"github.com/cortexhub/mnemo/internal/reply"
	"github.com/cortexhub/mnemo/internal/scheduler"
	"github.com/cortexhub/mnemo/internal/server"
	"github.com/cortexhub/mnemo/internal/tui"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	consoleFlag := flag.Bool("console", false, "Chat locally on this terminal instead of serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewWithConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.FilePath)
	defer log.Close()
	logger := log.Component("main")

	logger.Info("Starting mnemo", "version", version)

	store, err := memory.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	generator, genName := buildGenerator(cfg, log)
	classifier := intent.New()

	if *consoleFlag {
		runConsole(cfg, log, store, classifier, generator, genName)
		return
	}

	if cfg.Telegram.Token == "" {
		logger.Error("Telegram token required (BOT_TOKEN env or telegram.token)")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tg := telegram.NewTelegramAdapter(telegram.Options{
		Token:       cfg.Telegram.Token,
		Polling:     cfg.Telegram.Transport == "polling",
		WebhookURL:  cfg.Telegram.WebhookURL,
		WebhookPath: cfg.Telegram.WebhookPath,
		Secret:      cfg.Telegram.Secret,
	}, log.Component("telegram"))

	g := gate.New(cfg.Gate.RequiredChannel, tg, log.Component("gate"))
	var cache *gate.RedisCache
	if cfg.Redis.Addr != "" {
		cache, err = gate.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Verdict cache unavailable", "error", err)
			cache = nil
		} else {
			g.SetCache(cache, cfg.Gate.GetCacheTTL())
			defer cache.Close()
		}
	}

	adapters := []channel.Adapter{tg}
	if cfg.Discord.Token != "" {
		adapters = append(adapters, discord.NewDiscordAdapter(cfg.Discord.Token, log.Component("discord")))
	}
	var wc *webchat.WebChatAdapter
	if cfg.WebChat.Enabled {
		wc = webchat.NewWebChatAdapter(true, log.Component("webchat"))
		adapters = append(adapters, wc)
	}

	// Telegram must come up; the side channels degrade to warnings.
	if err := tg.Start(ctx); err != nil {
		logger.Error("Failed to start telegram", "error", err)
		os.Exit(1)
	}
	logger.Info("Adapter started", "adapter", tg.Name(), "transport", cfg.Telegram.Transport)
	for _, adapter := range adapters[1:] {
		if err := adapter.Start(ctx); err != nil {
			logger.Error("Failed to start adapter", "adapter", adapter.Name(), "error", err)
		} else {
			logger.Info("Adapter started", "adapter", adapter.Name())
		}
	}

	loop := agent.New(store, g, classifier, generator, agent.Options{
		BotUsername: tg.Username(),
		WakeWord:    cfg.Bot.WakeWord,
		OwnerID:     cfg.Bot.OwnerID,
	}, log.Component("agent"))

	// One pump per channel; messages within a channel stay in arrival order.
	for _, adapter := range adapters {
		go func(a channel.Adapter) {
			for msg := range a.Incoming() {
				loop.Process(ctx, msg, a)
			}
		}(adapter)
	}

	sched, err := scheduler.NewScheduler(store, cfg.Maintenance.Schedule, log.Component("scheduler"))
	if err != nil {
		logger.Error("Failed to create scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()
	logger.Info("Scheduler started", "schedule", cfg.Maintenance.Schedule)

	srvOpts := server.Options{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		BotName:     cfg.Bot.Name,
		WebhookPath: cfg.Telegram.WebhookPath,
		Store:       store,
	}
	if cfg.Telegram.Transport == "webhook" {
		srvOpts.Webhook = tg.WebhookHandler()
	}
	if wc != nil {
		srvOpts.WebSocket = wc.Handler()
	}
	if cache != nil {
		srvOpts.Cache = cache
	}
	srv := server.New(srvOpts, log.Component("server"))

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()
	for _, adapter := range adapters {
		if err := adapter.Stop(); err != nil {
			logger.Error("Failed to stop adapter", "adapter", adapter.Name(), "error", err)
		}
	}
	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Shutdown complete")
}

// buildGenerator picks the LLM generator when a key is present and falls
// back to canned replies otherwise.
func buildGenerator(cfg *config.Config, log *logging.Logger) (reply.Generator, string) {
	logger := log.Component("reply")
	if cfg.OpenAI.APIKey != "" {
		gen, err := reply.NewOpenAIGenerator(reply.OpenAIOptions{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
		if err == nil {
			logger.Info("Using OpenAI generator", "model", cfg.OpenAI.Model)
			return gen, "openai/" + cfg.OpenAI.Model
		}
		logger.Warn("OpenAI generator unavailable, using static replies", "error", err)
	} else {
		logger.Info("No OpenAI key, using static replies")
	}
	return reply.NewStaticGenerator(), "static"
}

// runConsole chats with the bot on this terminal. The membership gate stays
// off: the operator at the keyboard is not a Telegram user.
func runConsole(cfg *config.Config, log *logging.Logger, store memory.Store, classifier *intent.Classifier, generator reply.Generator, genName string) {
	g := gate.New("", nil, log.Component("gate"))
	loop := agent.New(store, g, classifier, generator, agent.Options{
		BotUsername: cfg.Bot.Name,
		WakeWord:    cfg.Bot.WakeWord,
		OwnerID:     cfg.Bot.OwnerID,
	}, log.Component("agent"))

	app := tui.NewApp(tui.Info{
		BotName:   cfg.Bot.Name,
		WakeWord:  cfg.Bot.WakeWord,
		Generator: genName,
		GateOn:    false,
		DBPath:    cfg.Storage.DBPath,
	}, loop, store)

	if err := tui.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
}
