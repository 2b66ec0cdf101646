package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
)

const minJWTSecretLength = 32

type Config struct {
	ServerAddr      string        `env:"SERVER_ADDR" envDefault:":8080"`
	DBUrl           string        `env:"DATABASE_URL,required"`
	RedisURL        string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	JWTSecret       string        `env:"JWT_SECRET,required"`
	GoogleClientID  string        `env:"GOOGLE_CLIENT_ID"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogDev          bool          `env:"LOG_DEV"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLength)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be greater than zero")
	}
	return nil
}
