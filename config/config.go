package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Pronunciation side values accepted by PronunciationSide.
const (
	PronounceSource = "source"
	PronounceTarget = "target"
	PronounceNone   = "none"
)

// Config holds all configurable server and drill parameters.
type Config struct {
	// SetSize is the number of pairs shown together on one page. Fixed for the whole process.
	SetSize             int `json:"set_size"`
	MatchAdvanceDelayMS int `json:"match_advance_delay_ms"`
	MismatchRevealMS    int `json:"mismatch_reveal_ms"`

	// PronunciationSide selects which column's cards request playback when selected.
	PronunciationSide string `json:"pronunciation_side"`
	PronunciationLang string `json:"pronunciation_lang"`

	HTTPPort         int    `json:"http_port"`
	DeckDir          string `json:"deck_dir"`
	ManifestPath     string `json:"manifest_path"`
	MaxUploadBytes   int    `json:"max_upload_bytes"`
	MaxRecentUploads int    `json:"max_recent_uploads"`

	// DatabaseURL is optional; when empty uploaded decks are kept in memory.
	DatabaseURL string `json:"database_url"`
	LogLevel    string `json:"log_level"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		SetSize:             5,
		MatchAdvanceDelayMS: 750,
		MismatchRevealMS:    1000,
		PronunciationSide:   PronounceSource,
		PronunciationLang:   "de-DE",
		HTTPPort:            8080,
		DeckDir:             "decks",
		ManifestPath:        "decks/file-manifest.json",
		MaxUploadBytes:      5 << 20,
		MaxRecentUploads:    20,
		LogLevel:            "info",
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			slog.Warn("failed to parse config.json", "tag", "config", "err", err)
		}
	}

	overrideInt(&cfg.SetSize, "SET_SIZE")
	overrideInt(&cfg.MatchAdvanceDelayMS, "MATCH_ADVANCE_DELAY_MS")
	overrideInt(&cfg.MismatchRevealMS, "MISMATCH_REVEAL_MS")
	overrideString(&cfg.PronunciationSide, "PRONUNCIATION_SIDE")
	overrideString(&cfg.PronunciationLang, "PRONUNCIATION_LANG")
	overrideInt(&cfg.HTTPPort, "HTTP_PORT")
	overrideString(&cfg.DeckDir, "DECK_DIR")
	overrideString(&cfg.ManifestPath, "MANIFEST_PATH")
	overrideInt(&cfg.MaxUploadBytes, "MAX_UPLOAD_BYTES")
	overrideInt(&cfg.MaxRecentUploads, "MAX_RECENT_UPLOADS")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.LogLevel, "LOG_LEVEL")

	cfg.Validate()
	return cfg
}

// Validate replaces out-of-range values with their defaults.
func (c *Config) Validate() {
	def := Defaults()
	positive := []struct {
		name  string
		field *int
		value int
	}{
		{"set_size", &c.SetSize, def.SetSize},
		{"match_advance_delay_ms", &c.MatchAdvanceDelayMS, def.MatchAdvanceDelayMS},
		{"mismatch_reveal_ms", &c.MismatchRevealMS, def.MismatchRevealMS},
		{"http_port", &c.HTTPPort, def.HTTPPort},
		{"max_upload_bytes", &c.MaxUploadBytes, def.MaxUploadBytes},
		{"max_recent_uploads", &c.MaxRecentUploads, def.MaxRecentUploads},
	}
	for _, p := range positive {
		if *p.field <= 0 {
			slog.Warn("non-positive config value, using default", "tag", "config", "key", p.name, "value", *p.field, "default", p.value)
			*p.field = p.value
		}
	}

	c.PronunciationSide = strings.ToLower(strings.TrimSpace(c.PronunciationSide))
	switch c.PronunciationSide {
	case PronounceSource, PronounceTarget, PronounceNone:
	default:
		slog.Warn("unknown pronunciation side, using default", "tag", "config", "value", c.PronunciationSide, "default", def.PronunciationSide)
		c.PronunciationSide = def.PronunciationSide
	}
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			slog.Warn("invalid integer in environment", "tag", "config", "key", envKey, "value", val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
