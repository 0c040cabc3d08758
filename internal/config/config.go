// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables redis-backed components
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	Provider          string   `yaml:"provider"` // openai | gemini
	OpenAIKeys        []string `yaml:"openai_keys"`
	OpenAIBaseURL     string   `yaml:"openai_base_url"`
	GeminiKey         string   `yaml:"gemini_key"`
	GeminiURL         string   `yaml:"gemini_url"`
	DefaultModel      string   `yaml:"default_model"`
	MaxOutputTokens   int      `yaml:"max_output_tokens"`
	MaxPromptTokens   int      `yaml:"max_prompt_tokens"`
	ConcurrentLimit   int      `yaml:"concurrent_limit"` // max concurrent AI calls
	PreparedQuestions int      `yaml:"prepared_questions"`
}

type SpeechConfig struct {
	APIKey             string `yaml:"api_key"` // falls back to the first ai.openai_keys entry
	BaseURL            string `yaml:"base_url"`
	TranscriptionModel string `yaml:"transcription_model"`
	TTSModel           string `yaml:"tts_model"`
	Voice              string `yaml:"voice"`
	Format             string `yaml:"format"`
	SynthesizeReplies  bool   `yaml:"synthesize_replies"`
}

type StorageConfig struct {
	Backend   string        `yaml:"backend"` // fs | redis
	Root      string        `yaml:"root"`
	Extension string        `yaml:"extension"`
	TTL       time.Duration `yaml:"ttl"` // redis backend only: retention of chunks and combined audio
}

// InterviewConfig carries product policy for the interview engine.
type InterviewConfig struct {
	GenerationTimeout      time.Duration `yaml:"generation_timeout"`
	PreparedTimeout        time.Duration `yaml:"prepared_timeout"`
	TranscriptionTimeout   time.Duration `yaml:"transcription_timeout"`
	TurnLockTTL            time.Duration `yaml:"turn_lock_ttl"`
	PostponeLockWindow     time.Duration `yaml:"postpone_lock_window"`
	MaxPostponementsPerJob int           `yaml:"max_postponements_per_job"`
	CredentialTTL          time.Duration `yaml:"credential_ttl"`
	AccessLinkBaseURL      string        `yaml:"access_link_base_url"`
	NotificationWorkers    int           `yaml:"notification_workers"`
	NotificationQueue      int           `yaml:"notification_queue"`
	StartAttempts          int           `yaml:"start_attempts"` // per access token and window, redis only
	StartAttemptWindow     time.Duration `yaml:"start_attempt_window"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
	TokenSecret   string `yaml:"token_secret"`
}

type MailConfig struct {
	Host     string `yaml:"host"` // empty keeps the log-only mailer
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type TelegramConfig struct {
	Token       string `yaml:"token"`
	AlertChatID int64  `yaml:"alert_chat_id"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Speech    SpeechConfig    `yaml:"speech"`
	Storage   StorageConfig   `yaml:"storage"`
	Interview InterviewConfig `yaml:"interview"`
	Security  SecurityConfig  `yaml:"security"`
	Mail      MailConfig      `yaml:"mail"`
	Telegram  TelegramConfig  `yaml:"telegram"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies an optional .env file and
// environment overrides for secrets, then fills defaults.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()
	cfg.applyEnv()

	cfg.Runtime.Dev = dev
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML and applies defaults without touching the environment.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Admin.Port == 0 {
		c.Admin.Port = 9090
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL, time.Hour)

	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	if c.AI.DefaultModel == "" {
		c.AI.DefaultModel = "gpt-4o-mini"
	}
	if c.AI.ConcurrentLimit <= 0 {
		c.AI.ConcurrentLimit = 16
	}
	if c.AI.MaxOutputTokens <= 0 {
		c.AI.MaxOutputTokens = 1024
	}
	if c.AI.MaxPromptTokens <= 0 {
		c.AI.MaxPromptTokens = 6000
	}
	if c.AI.PreparedQuestions <= 0 {
		c.AI.PreparedQuestions = 8
	}

	if c.Speech.TranscriptionModel == "" {
		c.Speech.TranscriptionModel = "whisper-1"
	}
	if c.Speech.TTSModel == "" {
		c.Speech.TTSModel = "tts-1"
	}
	if c.Speech.Voice == "" {
		c.Speech.Voice = "alloy"
	}
	if c.Speech.Format == "" {
		c.Speech.Format = "mp3"
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "fs"
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "data/audio"
	}
	if c.Storage.Extension == "" {
		c.Storage.Extension = "webm"
	}
	c.Storage.TTL = normalizeTTL(c.Storage.TTL, 7*24*time.Hour)

	iv := &c.Interview
	iv.GenerationTimeout = normalizeTTL(iv.GenerationTimeout, 5*time.Second)
	iv.PreparedTimeout = normalizeTTL(iv.PreparedTimeout, 30*time.Second)
	iv.TranscriptionTimeout = normalizeTTL(iv.TranscriptionTimeout, 60*time.Second)
	iv.TurnLockTTL = normalizeTTL(iv.TurnLockTTL, 2*time.Minute)
	iv.PostponeLockWindow = normalizeTTL(iv.PostponeLockWindow, 2*time.Minute)
	iv.CredentialTTL = normalizeTTL(iv.CredentialTTL, 24*time.Hour)
	if iv.MaxPostponementsPerJob <= 0 {
		iv.MaxPostponementsPerJob = 1
	}
	if iv.NotificationWorkers <= 0 {
		iv.NotificationWorkers = 4
	}
	if iv.NotificationQueue <= 0 {
		iv.NotificationQueue = 16
	}
	if iv.StartAttempts <= 0 {
		iv.StartAttempts = 10
	}
	iv.StartAttemptWindow = normalizeTTL(iv.StartAttemptWindow, time.Minute)

	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Database.URL, "DATABASE_URL")
	setFromEnv(&c.Redis.URL, "REDIS_URL")
	setFromEnv(&c.Redis.Password, "REDIS_PASSWORD")
	setFromEnv(&c.AI.GeminiKey, "GEMINI_API_KEY")
	setFromEnv(&c.Speech.APIKey, "SPEECH_API_KEY")
	setFromEnv(&c.Security.TokenSecret, "TOKEN_SECRET")
	setFromEnv(&c.Security.EncryptionKey, "ENCRYPTION_KEY")
	setFromEnv(&c.Mail.Password, "SMTP_PASSWORD")
	setFromEnv(&c.Telegram.Token, "TELEGRAM_TOKEN")
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEYS")); v != "" {
		c.AI.OpenAIKeys = splitList(v)
	}
}

// Minimal validation
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if len(c.Security.TokenSecret) < 32 && !c.Runtime.Dev {
		return errors.New("security.token_secret must be at least 32 bytes")
	}
	switch c.Storage.Backend {
	case "fs":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("storage.backend=redis requires redis.url")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeTTL(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
