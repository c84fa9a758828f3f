package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"4000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN            string `env:"DSN,required"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout   int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		MaxOpenConns   int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns   int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime    int    `env:"MAX_IDLE_TIME" envDefault:"60"`
		RunMigrations  bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Email     string `env:"EMAIL,required"`
		Password  string `env:"PASSWORD,required"`
		FirstName string `env:"FIRST_NAME" envDefault:"Super"`
		LastName  string `env:"LAST_NAME" envDefault:"Admin"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"86400"` // 1 day, in seconds
		Secret     string `env:"SECRET,required,notEmpty"`
		CookieName string `env:"COOKIE_NAME" envDefault:"__mynurseshift_token"`
	} `envPrefix:"JWT_"`
	Auth struct {
		BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`
	} `envPrefix:"AUTH_"`
	Account struct {
		PhoneRegion string `env:"PHONE_REGION" envDefault:"FR"`
	} `envPrefix:"ACCOUNT_"`
	Reset struct {
		Expiration int `env:"EXPIRATION" envDefault:"900"` // 15 minutes, in seconds
	} `envPrefix:"RESET_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD" envDefault:"changeme123"`
		} `envPrefix:"USER_"`
		EmailDomain string `env:"EMAIL_DOMAIN" envDefault:"mynurseshift.test"`
	} `envPrefix:"SEED_"`
	Email struct {
		From        string `env:"FROM" envDefault:"MyNurseShift"`
		FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
		SMTP struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host             string `env:"HOST" envDefault:"localhost"`
		Port             int    `env:"PORT" envDefault:"6379"`
		Password         string `env:"PASSWORD,required"`
		DB               int    `env:"DB" envDefault:"0"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"5"`
	} `envPrefix:"REDIS_"`
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWT.Expiration) * time.Second
}

func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Database.QueryTimeout) * time.Second
}

func (c *Config) ResetTTL() time.Duration {
	return time.Duration(c.Reset.Expiration) * time.Second
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// only the first error keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

// RequireSMTP checks the settings only the mail worker needs.
func (c *Config) RequireSMTP() error {
	if c.Email.SMTP.Host == "" || c.Email.SMTP.Username == "" || c.Email.SMTP.Password == "" {
		return errors.New("EMAIL_SMTP_HOST, EMAIL_SMTP_USERNAME and EMAIL_SMTP_PASSWORD are required")
	}
	return nil
}
