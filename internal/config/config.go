package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string // archived question uploads

	AuthSecret string
	TokenTTL   time.Duration

	CORSOrigins []string

	// Bootstrap admin, created on startup when the email is not registered yet.
	AdminEmail    string
	AdminPassword string

	SeedThemes bool

	Scoring Scoring
}

type Scoring struct {
	MaxScore          float64
	CorrectWeight     float64
	IncorrectPenalty  float64
	UnansweredPenalty float64
	PassRatio         float64
}

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment win over .env entries.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	defOrigins := "http://localhost:3000"
	defSecret := devAuthSecret
	if mode == ModeOnline {
		defOrigins = "https://oposiciones.example.com"
		defSecret = ""
	}
	return Config{
		Mode:          mode,
		HTTPAddr:      envOr("HTTP_ADDR", ":8001"),
		DBDriver:      envOr("DB_DRIVER", "sqlite"),
		DBDSN:         envOr("DB_DSN", ""),
		BlobBasePath:  envOr("BLOB_BASE_PATH", "./data"),
		AuthSecret:    envOr("AUTH_HMAC_SECRET", defSecret),
		TokenTTL:      envDuration("TOKEN_TTL", 30*24*time.Hour),
		CORSOrigins:   csvOr("CORS_ORIGINS", defOrigins),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SeedThemes:    envBool("SEED_THEMES", true),
		Scoring: Scoring{
			MaxScore:          envFloat("SCORE_MAX", 70),
			CorrectWeight:     envFloat("SCORE_CORRECT_WEIGHT", 1),
			IncorrectPenalty:  envFloat("SCORE_INCORRECT_PENALTY", 0.25),
			UnansweredPenalty: envFloat("SCORE_UNANSWERED_PENALTY", 0),
			PassRatio:         envFloat("SCORE_PASS_RATIO", 0.5),
		},
	}
}

const devAuthSecret = "supersecret-dev-key"

// Validate rejects settings that are only acceptable for local development.
func (c Config) Validate() error {
	if c.Mode != ModeOffline && c.Mode != ModeOnline {
		return fmt.Errorf("MODE must be %q or %q, got %q", ModeOffline, ModeOnline, c.Mode)
	}
	if c.Mode == ModeOnline && (c.AuthSecret == "" || c.AuthSecret == devAuthSecret) {
		return errors.New("AUTH_HMAC_SECRET must be set in online mode")
	}
	return nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envFloat(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
