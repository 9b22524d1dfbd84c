package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	yaml := []byte(`
server:
  port: 18800
  host: localhost
bot:
  wake_word: madara
  owner_id: "7"
telegram:
  token: tg-token
  transport: polling
gate:
  required_channel: mychannel
  cache_ttl: 10m
openai:
  model: gpt-4o
storage:
  db_path: /tmp/test.db
`)
	f, _ := os.CreateTemp("", "config-*.yaml")
	f.Write(yaml)
	f.Close()
	defer os.Remove(f.Name())

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 18800 {
		t.Errorf("Expected port 18800, got %d", cfg.Server.Port)
	}
	if cfg.Bot.WakeWord != "madara" {
		t.Errorf("Expected wake word madara, got %s", cfg.Bot.WakeWord)
	}
	if cfg.Telegram.Transport != "polling" {
		t.Errorf("Expected polling, got %s", cfg.Telegram.Transport)
	}
	if cfg.Gate.RequiredChannel != "@mychannel" {
		t.Errorf("Expected @mychannel, got %s", cfg.Gate.RequiredChannel)
	}
	if cfg.Gate.GetCacheTTL() != 10*time.Minute {
		t.Errorf("Expected 10m TTL, got %v", cfg.Gate.GetCacheTTL())
	}
	// Unset sections keep their defaults.
	if cfg.Telegram.WebhookPath != "/webhook" {
		t.Errorf("Expected /webhook, got %s", cfg.Telegram.WebhookPath)
	}
	if cfg.Maintenance.Schedule != "30 3 * * *" {
		t.Errorf("Expected default schedule, got %s", cfg.Maintenance.Schedule)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Bot.Name != "mnemo" || cfg.Bot.WakeWord != "mnemo" {
		t.Errorf("Unexpected bot defaults: %+v", cfg.Bot)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("Expected default model, got %s", cfg.OpenAI.Model)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "from-bot-token")
	t.Setenv("TELEGRAM_TOKEN", "from-telegram-token")
	t.Setenv("REQUIRED_CHANNEL", "-100123456")
	t.Setenv("OWNER_ID", "42")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("MNEMO_DB_PATH", "/data/mnemo.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Telegram.Token != "from-bot-token" {
		t.Errorf("BOT_TOKEN must outrank TELEGRAM_TOKEN, got %s", cfg.Telegram.Token)
	}
	if cfg.Gate.RequiredChannel != "-100123456" {
		t.Errorf("Chat ids must pass through unprefixed, got %s", cfg.Gate.RequiredChannel)
	}
	if cfg.Bot.OwnerID != "42" {
		t.Errorf("Expected owner 42, got %s", cfg.Bot.OwnerID)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected redis addr, got %s", cfg.Redis.Addr)
	}
	if cfg.Storage.DBPath != "/data/mnemo.db" {
		t.Errorf("Expected db path override, got %s", cfg.Storage.DBPath)
	}
}

func TestNormalizeChannel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"mychannel", "@mychannel"},
		{"@mychannel", "@mychannel"},
		{"-1001234567890", "-1001234567890"},
		{"  spaced  ", "@spaced"},
	}
	for _, tt := range tests {
		if got := normalizeChannel(tt.in); got != tt.want {
			t.Errorf("normalizeChannel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid port", func(c *Config) { c.Server.Port = -1 }},
		{"invalid transport", func(c *Config) { c.Telegram.Transport = "carrier-pigeon" }},
		{"webhook path without slash", func(c *Config) { c.Telegram.WebhookPath = "webhook" }},
		{"non-numeric owner", func(c *Config) { c.Bot.OwnerID = "bob" }},
		{"invalid log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"invalid log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"empty schedule", func(c *Config) { c.Maintenance.Schedule = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
