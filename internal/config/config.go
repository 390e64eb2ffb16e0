package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"tapascrap/internal/components/telemetry"
	"tapascrap/internal/scrapers/tapatalk"
	"tapascrap/pkg/configutil"
	"time"

	"github.com/joho/godotenv"
)

type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

func (r Range) Len() int64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

type Database struct {
	// a file path for a local sqlite database or a libsql:// url
	File string `json:"file"`
}

type Config struct {
	BaseUrl  string   `json:"base_url"`
	Database Database `json:"database"`

	Forums Range `json:"forums"`
	Topics Range `json:"topics"`

	PostsPerPage  int `json:"posts_per_page"`
	TopicsPerPage int `json:"topics_per_page"`

	// one of "auto", "script", "attributes"
	AuthorMode string `json:"author_mode"`

	// 0 means unlimited
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	UserAgent         string  `json:"user_agent"`
	// IANA name of the zone the forum renders dates in
	Timezone string `json:"timezone"`

	Otlp  telemetry.OtlpConfig `json:"otlp"`
	Debug bool                 `json:"debug"`
}

func Defaults() Config {
	return Config{
		BaseUrl:        "https://www.tapatalk.com/groups/metanetfr",
		Database:       Database{File: "tapa.db"},
		Forums:         Range{Start: 1, End: 66},
		Topics:         Range{Start: 1, End: 24462},
		PostsPerPage:   10,
		TopicsPerPage:  25,
		AuthorMode:     string(tapatalk.AuthorAuto),
		TimeoutSeconds: 30,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		Timezone:       "Europe/Paris",
	}
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) Validate() error {
	var errs []error
	if c.BaseUrl == "" {
		errs = append(errs, fmt.Errorf("base_url is empty"))
	}
	if c.Database.File == "" {
		errs = append(errs, fmt.Errorf("database.file is empty"))
	}
	for name, r := range map[string]Range{"forums": c.Forums, "topics": c.Topics} {
		if r.Start < 1 || r.End < r.Start {
			errs = append(errs, fmt.Errorf("%s range [%d, %d] is invalid", name, r.Start, r.End))
		}
	}
	if c.PostsPerPage <= 0 {
		errs = append(errs, fmt.Errorf("posts_per_page must be positive"))
	}
	if c.TopicsPerPage <= 0 {
		errs = append(errs, fmt.Errorf("topics_per_page must be positive"))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must not be negative"))
	}
	if _, err := tapatalk.ParseAuthorMode(c.AuthorMode); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

const (
	envDatabase   = "TAPASCRAP_DB"
	envBaseUrl    = "TAPASCRAP_BASE_URL"
	envAuthorMode = "TAPASCRAP_AUTHOR_MODE"
	envRateLimit  = "TAPASCRAP_REQUESTS_PER_SECOND"
)

func (c *Config) applyEnv() error {
	if v := os.Getenv(envDatabase); v != "" {
		c.Database.File = v
	}
	if v := os.Getenv(envBaseUrl); v != "" {
		c.BaseUrl = v
	}
	if v := os.Getenv(envAuthorMode); v != "" {
		c.AuthorMode = v
	}
	if v := os.Getenv(envRateLimit); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", envRateLimit, err)
		}
		c.RequestsPerSecond = rps
	}
	return nil
}

// Load reads the json5 config at path (a missing file is not an error), fills unset fields with
// Defaults, loads a .env file in the working directory if present and applies TAPASCRAP_*
// environment overrides.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	err = configutil.ApplyDefaults(&cfg, Defaults())
	if err != nil {
		return Config{}, fmt.Errorf("apply defaults: %w", err)
	}

	if _, statErr := os.Stat(".env"); statErr == nil {
		err = godotenv.Load(".env")
		if err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}
	err = cfg.applyEnv()
	if err != nil {
		return Config{}, err
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
