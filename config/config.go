package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging         LoggingConfig   `yaml:"logging"`
	LLM             LLMConfig       `yaml:"llm"`
	GenerationQuota QuotaConfig     `yaml:"generation_quota"`
	Schedule        ScheduleConfig  `yaml:"schedule"`
	Catalogue       CatalogueConfig `yaml:"catalogue"`
	Media           MediaConfig     `yaml:"media"`
	Telegram        TelegramConfig  `yaml:"telegram"`
	Server          ServerConfig    `yaml:"server"`

	// Values below come from the environment only.
	BotToken     string `yaml:"-"`
	DatabaseURL  string `yaml:"-"`
	ChannelID    string `yaml:"-"`
	AdminID      int64  `yaml:"-"`
	UnsplashKey  string `yaml:"-"`
	GeminiAPIKey string `yaml:"-"`
	OpenAIAPIKey string `yaml:"-"`
	MongoURI     string `yaml:"-"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LLMConfig selects the text generation backend and the voice of the prompts.
type LLMConfig struct {
	// Provider is "google" (Gemini) or "openai".
	Provider       string `yaml:"provider"`
	ModelName      string `yaml:"model_name"`
	BaseURL        string `yaml:"base_url"`
	TargetLanguage string `yaml:"target_language"`
	BrandName      string `yaml:"brand_name"`
}

// QuotaConfig limits LLM calls. Values <= 0 mean no limit.
type QuotaConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	RequestsPerDay    int `yaml:"requests_per_day"`
}

// ScheduleConfig holds one cron spec (minute hour dom month dow) per draft channel.
type ScheduleConfig struct {
	Timezone  string `yaml:"timezone"`
	Morning   string `yaml:"morning"`
	Midday    string `yaml:"midday"`
	Evening   string `yaml:"evening"`
	Secondary string `yaml:"secondary"`
}

type CatalogueConfig struct {
	// ExcludedPostTypes are secondary-channel post types filtered out at query level.
	ExcludedPostTypes []string      `yaml:"excluded_post_types"`
	RetryMaxTries     uint          `yaml:"retry_max_tries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
}

type MediaConfig struct {
	BaseURL              string        `yaml:"base_url"`
	FallbackKeyword      string        `yaml:"fallback_keyword"`
	PlaceholderURL       string        `yaml:"placeholder_url"`
	ScriptPlaceholderURL string        `yaml:"script_placeholder_url"`
	Timeout              time.Duration `yaml:"timeout"`
}

type TelegramConfig struct {
	ErrorSignature string `yaml:"error_signature"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

var config *AppConfig

func InitApp() {
	c, err := Load(GetBasePath())
	if err != nil {
		panic(err)
	}
	config = c
}

func GetConfig() AppConfig {
	if config == nil {
		InitApp()
	}

	return *config
}

// Load reads .env and config.yaml from dir, applies defaults and environment overrides.
// A missing config.yaml is not an error; defaults are used instead.
func Load(dir string) (*AppConfig, error) {
	// load environment variables
	godotenv.Load(filepath.Join(dir, ENV_FILE))

	var c AppConfig
	data, err := os.ReadFile(filepath.Join(dir, CONFIG_FILE))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, err
		}
	}

	c.applyDefaults()
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "google"
	}
	if c.LLM.ModelName == "" {
		c.LLM.ModelName = "gemini-flash-latest"
	}
	if c.LLM.TargetLanguage == "" {
		c.LLM.TargetLanguage = "russian"
	}
	if c.LLM.BrandName == "" {
		c.LLM.BrandName = "Hash & Cash"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Europe/Kyiv"
	}
	if c.Schedule.Morning == "" {
		c.Schedule.Morning = "0 9 * * *"
	}
	if c.Schedule.Midday == "" {
		c.Schedule.Midday = "0 14 * * *"
	}
	if c.Schedule.Evening == "" {
		c.Schedule.Evening = "0 19 * * *"
	}
	if c.Schedule.Secondary == "" {
		c.Schedule.Secondary = "0 12 * * *"
	}
	if c.Catalogue.ExcludedPostTypes == nil {
		c.Catalogue.ExcludedPostTypes = []string{"Disabled"}
	}
	if c.Catalogue.RetryMaxTries == 0 {
		c.Catalogue.RetryMaxTries = 3
	}
	if c.Catalogue.RetryBackoff == 0 {
		c.Catalogue.RetryBackoff = 5 * time.Second
	}
	if c.Media.BaseURL == "" {
		c.Media.BaseURL = "https://api.unsplash.com"
	}
	if c.Media.FallbackKeyword == "" {
		c.Media.FallbackKeyword = "cryptocurrency"
	}
	if c.Media.PlaceholderURL == "" {
		c.Media.PlaceholderURL = "https://images.unsplash.com/photo-1518546305927-5a555bb7020d?q=80&w=1000&auto=format&fit=crop"
	}
	if c.Media.ScriptPlaceholderURL == "" {
		c.Media.ScriptPlaceholderURL = "https://images.unsplash.com/photo-1611162617474-5b21e879e113?q=80&w=1000&auto=format&fit=crop"
	}
	if c.Media.Timeout == 0 {
		c.Media.Timeout = 10 * time.Second
	}
	if c.Server.Port == 0 {
		c.Server.Port = 10000
	}
}

func (c *AppConfig) applyEnv() error {
	c.BotToken = os.Getenv("BOT_TOKEN")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.ChannelID = os.Getenv("CHANNEL_ID")
	c.UnsplashKey = os.Getenv("UNSPLASH_KEY")
	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.MongoURI = os.Getenv("MONGO_URI")

	if v := os.Getenv("ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.New("ADMIN_ID must be an integer")
		}
		c.AdminID = id
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("PORT must be an integer")
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate reports the first missing value the bot cannot run without.
func (c *AppConfig) Validate() error {
	switch {
	case c.BotToken == "":
		return errors.New("BOT_TOKEN environment variable is not set")
	case c.AdminID == 0:
		return errors.New("ADMIN_ID environment variable is not set")
	case c.DatabaseURL == "":
		return errors.New("DATABASE_URL environment variable is not set")
	case c.ChannelID == "":
		return errors.New("CHANNEL_ID environment variable is not set")
	}
	return nil
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
