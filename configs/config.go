package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/maheshrc27/postpipe/internal/models"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	Endpoint   string
	PublicURL  string
}

type Graph struct {
	BaseURL            string
	FacebookPageID     string
	FacebookPageToken  string
	InstagramAccountID string
	InstagramToken     string
}

type Twitter struct {
	BaseURL     string
	UploadURL   string
	AccessToken string
}

type Generation struct {
	BaseURL     string
	APIKey      string
	Model       string
	VisionModel string
}

type Config struct {
	Port              string
	LogLevel          string
	PostgresURI       string
	RedisURI          string
	RowStore          string
	GoogleCredentials string
	SenderEmail       string
	DashboardURL      string
	SecretKey         string
	APIKey            string
	PlatformsFile     string
	ScheduleCron      string
	PublishCron       string

	Window            models.Window
	MaxDuePostsPerRun int
	PollAttempts      int
	PollInterval      time.Duration

	R2         R2
	Graph      Graph
	Twitter    Twitter
	Generation Generation

	Platforms []models.PlatformConfig
	Prompts   Prompts
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		PostgresURI:       getEnv("POSTGRES_URI", ""),
		RedisURI:          getEnv("REDIS_URI", "localhost:6379"),
		RowStore:          getEnv("ROW_STORE", "sheets"),
		GoogleCredentials: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", ""),
		DashboardURL:      getEnv("DASHBOARD_URL", "http://localhost:8501"),
		SecretKey:         getEnv("SECRET_KEY", ""),
		APIKey:            getEnv("API_KEY", ""),
		PlatformsFile:     getEnv("PLATFORMS_FILE", ""),
		ScheduleCron:      getEnv("SCHEDULE_CRON", ""),
		PublishCron:       getEnv("PUBLISH_CRON", "@every 00h15m00s"),
		MaxDuePostsPerRun: getEnvInt("MAX_DUE_POSTS_PER_RUN", 1),
		PollAttempts:      getEnvInt("CONTAINER_POLL_ATTEMPTS", 10),
		PollInterval:      getEnvDuration("CONTAINER_POLL_INTERVAL", 5*time.Second),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			Endpoint:   getEnv("R2_ENDPOINT", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Graph: Graph{
			BaseURL:            getEnv("GRAPH_API_URL", "https://graph.facebook.com/v19.0"),
			FacebookPageID:     getEnv("FACEBOOK_PAGE_ID", ""),
			FacebookPageToken:  getEnv("FACEBOOK_PAGE_ACCESS_TOKEN", ""),
			InstagramAccountID: getEnv("INSTAGRAM_BUSINESS_ACCOUNT_ID", ""),
			InstagramToken:     getEnv("INSTAGRAM_ACCESS_TOKEN", getEnv("FACEBOOK_PAGE_ACCESS_TOKEN", "")),
		},
		Twitter: Twitter{
			BaseURL:     getEnv("X_API_URL", "https://api.x.com"),
			UploadURL:   getEnv("X_UPLOAD_URL", "https://api.x.com/2/media/upload"),
			AccessToken: getEnv("X_ACCESS_TOKEN", ""),
		},
		Generation: Generation{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4-turbo"),
			VisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
		},
	}

	window, err := loadWindow(
		getEnv("TIMEZONE", "Europe/Berlin"),
		getEnv("POSTING_WINDOW_START", "09:00"),
		getEnv("POSTING_WINDOW_END", "21:00"),
		getEnvDuration("POSTING_INTERVAL", 4*time.Hour),
	)
	if err != nil {
		return nil, err
	}
	cfg.Window = window

	catalogue, err := LoadPlatforms(cfg.PlatformsFile)
	if err != nil {
		return nil, err
	}
	cfg.Platforms = catalogue.Platforms
	cfg.Prompts = catalogue.Prompts

	return cfg, nil
}

// Platform looks a platform up by name, case-insensitively.
func (c *Config) Platform(name string) (models.PlatformConfig, bool) {
	for _, p := range c.Platforms {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return models.PlatformConfig{}, false
}

func loadWindow(tz, start, end string, interval time.Duration) (models.Window, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Warning: unknown timezone %q, falling back to UTC: %v", tz, err)
		loc = time.UTC
	}

	s, err := parseClock(start)
	if err != nil {
		return models.Window{}, err
	}
	e, err := parseClock(end)
	if err != nil {
		return models.Window{}, err
	}
	if e <= s {
		return models.Window{}, fmt.Errorf("posting window end %s must be after start %s", end, start)
	}
	if interval <= 0 {
		return models.Window{}, fmt.Errorf("posting interval must be positive, got %s", interval)
	}

	return models.Window{Location: loc, Start: s, End: e, Interval: interval}, nil
}

// parseClock reads "HH:MM" as an offset from midnight.
func parseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", value, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not a duration, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
