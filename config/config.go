package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var validate = validator.New()

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	// Port is the port number to listen on. The default is 8080.
	Port int `validate:"required,min=1,max=65535"`
	// Hostname is the hostname to listen on. The default is 0.0.0.0.
	Hostname string `validate:"required"`
	Auth     struct {
		// Secret is the secret key used to verify JWT credentials.
		// It must be a base64 encoded string. The default is a random
		// 32 byte key, which only makes sense for local development since
		// tokens are minted by the account service with the shared secret.
		Secret Base64Encoded `validate:"required"`
	}
	Store struct {
		// Driver selects the message store backend.
		Driver string `validate:"required,oneof=memory sqlite mongo"`
		SQLite struct {
			// File is the path to the SQLite database file.
			File string
			// Migrations is the directory the migration files reside in.
			Migrations string
		}
		Mongo struct {
			URI      string
			Database string
		}
	}
	// AllowedOrigins is the list of origins allowed to connect.
	// The default is ["*"].
	AllowedOrigins []string
}

type Base64Encoded []byte

func (b *Base64Encoded) UnmarshalText(text []byte) error {
	dec, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("base64 decode: %w", err)
	}
	*b = dec
	return nil
}

// Load reads the configuration from config.yaml and environment variables.
// Environment variables take precedence; nested keys use underscores
// (AUTH_SECRET, STORE_DRIVER, ...). A missing config file is fine, defaults
// and the environment cover everything.
func Load() (*Config, error) {
	// .env is optional
	godotenv.Load()

	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", 8080)
	viper.SetDefault("hostname", "0.0.0.0")
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	viper.SetDefault("auth.secret", base64.StdEncoding.EncodeToString(secret))
	viper.SetDefault("store.driver", DriverSQLite)
	viper.SetDefault("store.sqlite.file", "./chat.db")
	viper.SetDefault("store.sqlite.migrations", "./migrations")
	viper.SetDefault("store.mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("store.mongo.database", "movieDB")
	viper.SetDefault("allowedorigins", "*")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToSliceHookFunc(","))),
	); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	return validate.Struct(c)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.Port)
}
