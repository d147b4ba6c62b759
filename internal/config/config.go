package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jdav-kompass/kompass/internal/mailer"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "KOMPASS"

var ErrNoAuthSecret = errors.New("auth.secret is not set")

type Config struct {
	HTTPAddr        string        `validate:"required"`
	DatabaseDSN     string        `validate:"required"`
	AuthSecret      string
	LogLevel        string        `validate:"oneof=debug info warn error"`
	MailDomain      string        `validate:"required,hostname"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	RunMigrations   bool

	Mail mailer.TextConfig
}

func defaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("section.name", "Freiburg")
	v.SetDefault("mail.domain", "jdav-freiburg.de")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.migrate", true)
}

// Load reads configuration from the environment (KOMPASS_ prefix, dots
// become underscores). A dotenv file is loaded first when envFile exists.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err = godotenv.Load(envFile); err != nil {
				return nil, errors.Wrapf(err, "load %s", envFile)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat %s", envFile)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	section := v.GetString("section.name")

	mail := mailer.DefaultTextConfig(section)
	if s := v.GetString("mail.echo_subject"); s != "" {
		mail.EchoSubject = s
	}
	if s := v.GetString("mail.echo_body"); s != "" {
		mail.EchoBody = s
	}
	if s := v.GetString("mail.forward_note"); s != "" {
		mail.ForwardNote = s
	}

	cfg := &Config{
		HTTPAddr:        v.GetString("http.addr"),
		DatabaseDSN:     v.GetString("database.dsn"),
		AuthSecret:      v.GetString("auth.secret"),
		LogLevel:        v.GetString("log.level"),
		MailDomain:      v.GetString("mail.domain"),
		ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
		RunMigrations:   v.GetBool("database.migrate"),
		Mail:            mail,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// RequireAuthSecret fails for processes that sign or verify tokens but were
// started without a secret.
func (c *Config) RequireAuthSecret() error {
	if c.AuthSecret == "" {
		return errors.Wrapf(ErrNoAuthSecret, "set %s_AUTH_SECRET", EnvPrefix)
	}
	return nil
}
