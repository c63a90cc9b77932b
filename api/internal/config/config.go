// Package config reads settings from the environment, optionally on top of a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port   string `yaml:"port"`
	Engine string `yaml:"engine"`

	GeminiAPIKey   string `yaml:"geminiApiKey"`
	GeminiModel    string `yaml:"geminiModel"`
	OpenAIAPIKey   string `yaml:"openaiApiKey"`
	OpenAIModel    string `yaml:"openaiModel"`
	ThinkingBudget int    `yaml:"thinkingBudget"`
	PromptFile     string `yaml:"promptFile"`

	PriceRegion    string   `yaml:"priceRegion"`
	PriceCurrency  string   `yaml:"priceCurrency"`
	PriceRetailers []string `yaml:"priceRetailers"`

	Store       string `yaml:"store"`
	StoreDir    string `yaml:"storeDir"`
	SQLitePath  string `yaml:"sqlitePath"`
	DatabaseURL string `yaml:"databaseUrl"`
	Minio       Minio  `yaml:"minio"`

	TelegramBotToken string   `yaml:"telegramBotToken"`
	WebhookURL       string   `yaml:"webhookUrl"`
	CORSOrigins      []string `yaml:"corsOrigins"`
	LogLevel         string   `yaml:"logLevel"`
}

type Minio struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucketName"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"useSSL"`
}

func defaults() Config {
	return Config{
		Port:           "8000",
		Engine:         "gemini",
		GeminiModel:    "gemini-3-pro-preview",
		OpenAIModel:    "gpt-4o",
		ThinkingBudget: 32768,
		PriceRegion:    "India",
		PriceCurrency:  "INR",
		Store:          "file",
		StoreDir:       "data",
		SQLitePath:     "data/chip-scanner.sqlite",
		Minio:          Minio{Bucket: "chip-scanner"},
		CORSOrigins:    []string{"*"},
		LogLevel:       "info",
	}
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func getEnvBool(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func getEnvList(k string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load builds the config: defaults, then the YAML file at CONFIG_PATH (if set), then env.
// API keys are optional here; a missing key fails each request instead.
func Load() (*Config, error) {
	cfg := defaults()
	if path := getEnv("CONFIG_PATH", ""); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Engine = getEnv("ENGINE", cfg.Engine)
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.PromptFile = getEnv("PROMPT_FILE", cfg.PromptFile)
	cfg.PriceRegion = getEnv("PRICE_REGION", cfg.PriceRegion)
	cfg.PriceCurrency = getEnv("PRICE_CURRENCY", cfg.PriceCurrency)
	cfg.PriceRetailers = getEnvList("PRICE_RETAILERS", cfg.PriceRetailers)
	cfg.Store = getEnv("STORE", cfg.Store)
	cfg.StoreDir = getEnv("STORE_DIR", cfg.StoreDir)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.Minio.Endpoint = getEnv("MINIO_ENDPOINT", cfg.Minio.Endpoint)
	cfg.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Minio.AccessKey)
	cfg.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.Minio.SecretKey)
	cfg.Minio.Bucket = getEnv("MINIO_BUCKET", cfg.Minio.Bucket)
	cfg.Minio.Region = getEnv("MINIO_REGION", cfg.Minio.Region)
	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	cfg.WebhookURL = getEnv("WEBHOOK_URL", cfg.WebhookURL)
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.ThinkingBudget, err = getEnvInt("THINKING_BUDGET", cfg.ThinkingBudget); err != nil {
		return nil, err
	}
	if cfg.Minio.UseSSL, err = getEnvBool("MINIO_USE_SSL", cfg.Minio.UseSSL); err != nil {
		return nil, err
	}
	if cfg.ThinkingBudget < 0 {
		return nil, fmt.Errorf("THINKING_BUDGET must not be negative, got %d", cfg.ThinkingBudget)
	}
	return &cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
