package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for mnemo
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Bot         BotConfig         `yaml:"bot"`
	Telegram    TelegramConfig    `yaml:"telegram"`
	Discord     DiscordConfig     `yaml:"discord"`
	WebChat     WebChatConfig     `yaml:"webchat"`
	Gate        GateConfig        `yaml:"gate"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Redis       RedisConfig       `yaml:"redis"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// BotConfig defines the bot identity
type BotConfig struct {
	Name     string `yaml:"name"`
	WakeWord string `yaml:"wake_word"`
	OwnerID  string `yaml:"owner_id"`
}

// TelegramConfig defines Telegram channel settings
type TelegramConfig struct {
	Token       string `yaml:"token"`
	Transport   string `yaml:"transport"`
	WebhookURL  string `yaml:"webhook_url"`
	WebhookPath string `yaml:"webhook_path"`
	Secret      string `yaml:"secret"`
}

// DiscordConfig defines Discord channel settings
type DiscordConfig struct {
	Token string `yaml:"token"`
}

// WebChatConfig defines WebChat channel settings
type WebChatConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GateConfig defines the channel-membership gate
type GateConfig struct {
	RequiredChannel string `yaml:"required_channel"`
	CacheTTL        string `yaml:"cache_ttl"`
}

// GetCacheTTL returns the verdict cache TTL as a time.Duration
func (g *GateConfig) GetCacheTTL() time.Duration {
	if g.CacheTTL == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(g.CacheTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// OpenAIConfig defines reply generation settings
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// RedisConfig defines the optional verdict cache backend
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig defines the SQLite store location
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// LoggingConfig defines logging settings
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file_path"`
}

// MaintenanceConfig defines the store maintenance job
type MaintenanceConfig struct {
	Schedule string `yaml:"schedule"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Server:      ServerConfig{Port: 8080, Host: "0.0.0.0"},
		Bot:         BotConfig{Name: "mnemo", WakeWord: "mnemo"},
		Telegram:    TelegramConfig{Transport: "webhook", WebhookPath: "/webhook"},
		Gate:        GateConfig{CacheTTL: "5m"},
		OpenAI:      OpenAIConfig{Model: "gpt-4o-mini"},
		Storage:     StorageConfig{DBPath: "mnemo.db"},
		Logging:     LoggingConfig{Level: "info", Format: "text"},
		Maintenance: MaintenanceConfig{Schedule: "30 3 * * *"},
	}
}

// Load loads configuration from a YAML file with environment variable
// overrides. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.Gate.RequiredChannel = normalizeChannel(cfg.Gate.RequiredChannel)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// BOT_TOKEN outranks TELEGRAM_TOKEN.
func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		fmt.Sscanf(port, "%d", &c.Server.Port)
	}
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if url := os.Getenv("WEBHOOK_URL"); url != "" {
		c.Telegram.WebhookURL = url
	}
	if secret := os.Getenv("WEBHOOK_SECRET"); secret != "" {
		c.Telegram.Secret = secret
	}
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		c.Discord.Token = token
	}
	if ch := os.Getenv("REQUIRED_CHANNEL"); ch != "" {
		c.Gate.RequiredChannel = ch
	}
	if owner := os.Getenv("OWNER_ID"); owner != "" {
		c.Bot.OwnerID = owner
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		c.OpenAI.APIKey = apiKey
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.OpenAI.Model = model
	}
	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		c.OpenAI.BaseURL = url
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if path := os.Getenv("MNEMO_DB_PATH"); path != "" {
		c.Storage.DBPath = path
	}
}

// normalizeChannel canonicalizes the required-channel reference: @names and
// -100… chat ids pass through, bare names gain the @.
func normalizeChannel(ch string) string {
	ch = strings.TrimSpace(ch)
	if ch == "" {
		return ""
	}
	if strings.HasPrefix(ch, "@") || strings.HasPrefix(ch, "-100") {
		return ch
	}
	return "@" + ch
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Telegram.Transport != "webhook" && c.Telegram.Transport != "polling" {
		return fmt.Errorf("invalid telegram transport: %q", c.Telegram.Transport)
	}
	if !strings.HasPrefix(c.Telegram.WebhookPath, "/") {
		return fmt.Errorf("webhook path must start with /: %q", c.Telegram.WebhookPath)
	}
	if c.Bot.OwnerID != "" {
		if _, err := strconv.ParseInt(c.Bot.OwnerID, 10, 64); err != nil {
			return fmt.Errorf("owner_id must be a numeric user id: %q", c.Bot.OwnerID)
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	if c.Maintenance.Schedule == "" {
		return fmt.Errorf("maintenance schedule is required")
	}
	return nil
}
