// Package config loads CardScout settings from defaults, an optional YAML
// file and the environment, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/codyseavey/cardscout/internal/models"
)

// Card source names accepted by CARD_SOURCE.
const (
	SourceSnkrdunkAPI         = "snkrdunk-api"
	SourceSnkrdunkHTML        = "snkrdunk-html"
	SourceSnkrdunkBrowser     = "snkrdunk-browser"
	SourcePokemonPriceTracker = "pokemonpricetracker"
)

const defaultConfigFile = "cardscout.yaml"

// Duration is a time.Duration that reads "15s"-style strings from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Port               string   `yaml:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	FrontendDistPath   string   `yaml:"frontend_dist_path"`
	CardSource         string   `yaml:"card_source"`

	Snkrdunk            SnkrdunkConfig            `yaml:"snkrdunk"`
	Browser             BrowserConfig             `yaml:"browser"`
	PokemonPriceTracker PokemonPriceTrackerConfig `yaml:"pokemon_price_tracker"`
	History             HistoryConfig             `yaml:"history"`
	Session             SessionConfig             `yaml:"session"`

	// Classifier overrides individual keyword lists; nil keeps the built-in rules.
	Classifier *models.ClassifierRules `yaml:"classifier"`
}

type SnkrdunkConfig struct {
	BaseURL           string   `yaml:"base_url"`
	WebURL            string   `yaml:"web_url"`
	Timeout           Duration `yaml:"timeout"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	CloudflareBypass  bool     `yaml:"cloudflare_bypass"`
	// FilterSingles is a pointer so an explicit false in a file survives the merge.
	FilterSingles *bool `yaml:"filter_singles"`
}

// FiltersSingles reports whether search results go through the classifier.
// It defaults to true.
func (s SnkrdunkConfig) FiltersSingles() bool {
	return s.FilterSingles == nil || *s.FilterSingles
}

type BrowserConfig struct {
	ChromeBin    string   `yaml:"chrome_bin"`
	WaitSelector string   `yaml:"wait_selector"`
	Timeout      Duration `yaml:"timeout"`
}

type PokemonPriceTrackerConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type HistoryConfig struct {
	DBPath        string   `yaml:"db_path"`
	WatchCardIDs  []string `yaml:"watch_card_ids"`
	WatchSchedule string   `yaml:"watch_schedule"`
}

// Enabled reports whether price snapshots are persisted.
func (h HistoryConfig) Enabled() bool { return h.DBPath != "" }

type SessionConfig struct {
	TTL      Duration `yaml:"ttl"`
	Capacity int      `yaml:"capacity"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:               "8080",
		CORSAllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		CardSource:         SourceSnkrdunkAPI,
		Snkrdunk: SnkrdunkConfig{
			BaseURL:           "https://snkrdunk.com/en/v1",
			WebURL:            "https://snkrdunk.com/en",
			Timeout:           Duration(15 * time.Second),
			RequestsPerSecond: 2,
		},
		Browser: BrowserConfig{
			WaitSelector: "body",
			Timeout:      Duration(45 * time.Second),
		},
		PokemonPriceTracker: PokemonPriceTrackerConfig{
			BaseURL: "https://www.pokemonpricetracker.com/api/v2",
		},
		History: HistoryConfig{
			WatchSchedule: "@every 6h",
		},
		Session: SessionConfig{
			TTL:      Duration(2 * time.Hour),
			Capacity: 1024,
		},
	}
}

// Load builds the configuration: .env is loaded into the environment if
// present, then defaults are overlaid with the YAML file named by
// CARDSCOUT_CONFIG (and its .local variant), then with environment values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Config: no .env file found, using process environment")
	}

	cfg := Defaults()

	path := getEnv("CARDSCOUT_CONFIG", defaultConfigFile)
	fileCfg, err := ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// no config file is fine
	case err != nil:
		return nil, err
	default:
		if err := mergo.Merge(&cfg, fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge config file %s: %w", path, err)
		}
		log.Printf("Config: loaded %s", path)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ReadFile reads name and then <name>.local.<ext> next to it, the local
// file overriding the base one. It returns os.ErrNotExist when neither exists.
func ReadFile(name string) (Config, error) {
	var out Config
	found := false

	data, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("parse %s: %w", name, err)
		}
		found = true
	}

	localName := localVariant(name)
	localData, err := os.ReadFile(localName)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localData) > 0 {
		var override Config
		if err := yaml.Unmarshal(localData, &override); err != nil {
			return out, fmt.Errorf("parse %s: %w", localName, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		log.Printf("Config: merged local overrides from %s", localName)
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

func localVariant(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
	cfg.FrontendDistPath = getEnv("FRONTEND_DIST_PATH", cfg.FrontendDistPath)
	cfg.CardSource = getEnv("CARD_SOURCE", cfg.CardSource)

	cfg.Snkrdunk.BaseURL = strings.TrimRight(getEnv("SNKRDUNK_BASE_URL", cfg.Snkrdunk.BaseURL), "/")
	cfg.Snkrdunk.WebURL = strings.TrimRight(getEnv("SNKRDUNK_WEB_URL", cfg.Snkrdunk.WebURL), "/")
	cfg.Snkrdunk.Timeout = getEnvDuration("SNKRDUNK_TIMEOUT", cfg.Snkrdunk.Timeout)
	cfg.Snkrdunk.RequestsPerSecond = getEnvFloat("SNKRDUNK_REQUESTS_PER_SECOND", cfg.Snkrdunk.RequestsPerSecond)
	cfg.Snkrdunk.CloudflareBypass = getEnvBool("SNKRDUNK_CLOUDFLARE_BYPASS", cfg.Snkrdunk.CloudflareBypass)
	if val := os.Getenv("SNKRDUNK_FILTER_SINGLES"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Snkrdunk.FilterSingles = &b
		}
	}

	cfg.Browser.ChromeBin = getEnv("CHROME_BIN", cfg.Browser.ChromeBin)
	cfg.Browser.WaitSelector = getEnv("BROWSER_WAIT_SELECTOR", cfg.Browser.WaitSelector)
	cfg.Browser.Timeout = getEnvDuration("BROWSER_TIMEOUT", cfg.Browser.Timeout)

	cfg.PokemonPriceTracker.APIKey = getEnv("POKEMON_PRICE_TRACKER_API_KEY", cfg.PokemonPriceTracker.APIKey)
	cfg.PokemonPriceTracker.BaseURL = strings.TrimRight(getEnv("POKEMON_PRICE_TRACKER_URL", cfg.PokemonPriceTracker.BaseURL), "/")

	cfg.History.DBPath = getEnv("HISTORY_DB_PATH", cfg.History.DBPath)
	cfg.History.WatchCardIDs = getEnvList("WATCH_CARD_IDS", cfg.History.WatchCardIDs)
	cfg.History.WatchSchedule = getEnv("WATCH_SCHEDULE", cfg.History.WatchSchedule)

	cfg.Session.TTL = getEnvDuration("SESSION_TTL", cfg.Session.TTL)
	cfg.Session.Capacity = getEnvInt("SESSION_CAPACITY", cfg.Session.Capacity)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.CardSource {
	case SourceSnkrdunkAPI, SourceSnkrdunkHTML, SourceSnkrdunkBrowser, SourcePokemonPriceTracker:
	default:
		return fmt.Errorf("unknown CARD_SOURCE %q", c.CardSource)
	}
	if c.Session.Capacity <= 0 {
		return fmt.Errorf("SESSION_CAPACITY must be positive, got %d", c.Session.Capacity)
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Snkrdunk.Timeout <= 0 {
		return errors.New("SNKRDUNK_TIMEOUT must be positive")
	}
	return nil
}

// ClassifierRules overlays the configured keyword lists on defaults. A
// list set in the file replaces the default list; unset lists are kept.
func (c *Config) ClassifierRules(defaults models.ClassifierRules) (models.ClassifierRules, error) {
	if c.Classifier == nil {
		return defaults, nil
	}
	rules := defaults
	if err := mergo.Merge(&rules, *c.Classifier, mergo.WithOverride); err != nil {
		return defaults, fmt.Errorf("merge classifier rules: %w", err)
	}
	return rules, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		log.Printf("Config: ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		log.Printf("Config: ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
		log.Printf("Config: ignoring invalid %s=%q", key, val)
	}
	return fallback
}

func getEnvDuration(key string, fallback Duration) Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return Duration(d)
		}
		log.Printf("Config: ignoring invalid %s=%q", key, val)
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
