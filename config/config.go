package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

const (
	StorageRemote = "remote"
	StorageLocal  = "local"
)

type Config struct {
	Env            string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	BasicAuthCreds string `env:"BASIC_AUTH_CREDS"`

	API struct {
		BaseURL     string `env:"API_BASE_URL" envDefault:"http://localhost:8000/api"`
		TimeoutSecs int    `env:"API_TIMEOUT_SECS" envDefault:"15"`
		ReadRetries uint   `env:"API_READ_RETRIES" envDefault:"2"`
	}

	// WishlistStorage picks the wishlist backend: the remote API, or a
	// device-local store that needs no session.
	WishlistStorage string `env:"WISHLIST_STORAGE" envDefault:"remote"`
	LocalDBPath     string `env:"LOCAL_DB_PATH" envDefault:"buzdealz.sqlite"`

	NotificationPollInterval time.Duration `env:"NOTIFICATION_POLL_INTERVAL" envDefault:"5s"`

	Mailgun struct {
		Domain      string `env:"MAILGUN_DOMAIN"`
		APIKey      string `env:"MAILGUN_API_KEY"`
		SenderFrom  string `env:"MAILGUN_SENDER_FROM" envDefault:"Buzdealz <alerts@buzdealz.app>"`
		TimeoutSecs int    `env:"MAILGUN_TIMEOUT_SECS" envDefault:"10"`
	}

	log   *zap.Logger
	creds map[string]string
}

func NewConfig(log *zap.Logger) (*Config, error) {
	cfg := &Config{log: log}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	switch cfg.WishlistStorage {
	case StorageRemote, StorageLocal:
	default:
		return nil, fmt.Errorf("WISHLIST_STORAGE must be %q or %q, got %q", StorageRemote, StorageLocal, cfg.WishlistStorage)
	}
	if cfg.NotificationPollInterval <= 0 {
		return nil, errors.New("NOTIFICATION_POLL_INTERVAL must be positive")
	}

	creds, err := cfg.parseCreds()
	if err != nil {
		if cfg.Env != "development" {
			return nil, err
		}
		cfg.log.Sugar().Infof("%s (auth is disabled in development env)", err)
		creds = nil
	}
	cfg.creds = creds

	return cfg, nil
}

func (cfg *Config) GetCreds() map[string]string {
	return cfg.creds
}

func (cfg *Config) LocalWishlist() bool {
	return cfg.WishlistStorage == StorageLocal
}

func (cfg *Config) APITimeout() time.Duration {
	return time.Duration(cfg.API.TimeoutSecs) * time.Second
}

func (cfg *Config) parseCreds() (map[string]string, error) {
	if cfg.BasicAuthCreds == "" {
		return nil, nil
	}

	result := make(map[string]string)
	for _, cred := range strings.Split(cfg.BasicAuthCreds, ",") {
		userPass := strings.Split(cred, ":")
		if len(userPass) != 2 {
			return nil, fmt.Errorf("failed to parse '%s', each credential should be delimited by a colon -- user1:pass1,user2:pass2", cred)
		}

		user, pass := userPass[0], userPass[1]
		result[strings.Trim(user, " ")] = strings.Trim(pass, " ")
	}

	return result, nil
}
