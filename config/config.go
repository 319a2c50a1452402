package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains server configuration parameters.
type Config struct {
	Port     string `env:"PORT" envDefault:"5000"`
	LogLevel int    `env:"LOG_LEVEL" envDefault:"0"`

	Database  Database  `envPrefix:"DB_"`
	JWT       JWT       `envPrefix:"JWT_"`
	Responder Responder `envPrefix:"LLM_"`
	Bus       Bus       `envPrefix:"BUS_"`
	Mail      Mail      `envPrefix:"MAIL_"`
}

// Database selects the backing store. When MongoURI is empty the server
// falls back to a local sqlite database.
type Database struct {
	MongoURI   string `env:"MONGO_URI"`
	MongoName  string `env:"MONGO_NAME" envDefault:"healthq_db"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"healthq.db"`
}

// JWT contains token signing parameters.
type JWT struct {
	Secret string `env:"SECRET" envDefault:"your-jwt-secret-change-in-production"`
}

// Responder selects the external responder. When APIKey is empty the
// rule-based engine is used regardless of Provider.
type Responder struct {
	Provider string        `env:"PROVIDER" envDefault:"googleai"`
	APIKey   string        `env:"API_KEY"`
	Model    string        `env:"MODEL" envDefault:"gemini-1.5-flash"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// Bus contains message bus parameters. Disabled by default; events are
// logged instead of published.
type Bus struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	URL     string `env:"URL" envDefault:"nats://localhost:4222"`
}

// Mail contains SMTP parameters for the registration welcome mail.
type Mail struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Server   string `env:"SERVER"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"CONTACT"`
}

// Load reads the optional .env file and parses configuration from the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
