package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/pliu/roomchat/internal/roomtoken"
)

var validate = validator.New()

type Config struct {
	Addr              string        `env:"ADDR,default=:8080" validate:"required"`
	DBDriver          string        `env:"DB_DRIVER,default=sqlite3" validate:"oneof=sqlite3 pgx"`
	DBDSN             string        `env:"DB_DSN,default=roomchat.db" validate:"required"`
	RoomTokenSecret   string        `env:"ROOM_TOKEN_SECRET,required=true" validate:"required,base64"`
	JWTSecret         string        `env:"JWT_SECRET,required=true" validate:"required,min=16"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h" validate:"gt=0"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,default=15s" validate:"gt=0"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
}

// Load reads envFile into the process environment when it exists, then
// builds a Config from the environment. Variables already set win over
// the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return &cfg, nil
}

// RoomTokenKey decodes ROOM_TOKEN_SECRET. It must hold exactly
// roomtoken.KeySize bytes.
func (c *Config) RoomTokenKey() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.RoomTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: ROOM_TOKEN_SECRET is not valid base64", roomtoken.ErrConfiguration)
	}
	if len(key) != roomtoken.KeySize {
		return nil, fmt.Errorf("%w: ROOM_TOKEN_SECRET must decode to %d bytes, got %d",
			roomtoken.ErrConfiguration, roomtoken.KeySize, len(key))
	}
	return key, nil
}
