package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Backend struct {
		// Mode is "local" or "remote".
		Mode string `yaml:"mode"`
		// Snapshot selects the local snapshot medium: "memory", "file" or "redis".
		Snapshot string `yaml:"snapshot"`
		DataDir  string `yaml:"data_dir"`
	} `yaml:"backend"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"mongo"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Games struct {
		Source string `yaml:"source"`
		TTL    string `yaml:"ttl"`
	} `yaml:"games"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
}

// Load reads YAML config from path, then applies a .env file (if present) and
// environment overrides. A missing YAML file yields defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	// .env is optional; existing environment variables win.
	_ = godotenv.Load()
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override(&cfg.Backend.Mode, "QUIZ_BACKEND_MODE")
	override(&cfg.Backend.Snapshot, "QUIZ_SNAPSHOT")
	override(&cfg.Backend.DataDir, "QUIZ_DATA_DIR")
	override(&cfg.Mongo.URI, "MONGO_URI")
	override(&cfg.Mongo.Database, "MONGO_DATABASE")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Redis.Password, "REDIS_PASSWORD")
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			cfg.Redis.DB = db
		}
	}
	override(&cfg.Postgres.URL, "POSTGRES_URL")
	override(&cfg.Games.Source, "GAMES_SOURCE")
	override(&cfg.Auth.JWTSecret, "JWT_SECRET")
	override(&cfg.AMQP.URL, "AMQP_URL")
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.Mode == "" {
		cfg.Backend.Mode = "local"
	}
	if cfg.Backend.Snapshot == "" {
		cfg.Backend.Snapshot = "file"
	}
	if cfg.Backend.DataDir == "" {
		cfg.Backend.DataDir = "data"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "game_quiz"
	}
	if cfg.Games.Source == "" {
		cfg.Games.Source = "data/games.csv"
	}
	if cfg.AMQP.Exchange == "" {
		cfg.AMQP.Exchange = "game-quiz.events"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
}

func override(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
