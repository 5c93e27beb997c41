// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package config reads the configuration of a command engine from a YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/canonical/sqlcmd"
	"github.com/canonical/sqlcmd/dialect"
	"github.com/canonical/sqlcmd/idgen"
	"github.com/canonical/sqlcmd/sqlfile"
)

// EnvPrefix is the prefix of the environment variables that override the
// configuration file, e.g. SQLCMD_DSN or SQLCMD_LOGGING_LEVEL.
const EnvPrefix = "SQLCMD"

// Config is the configuration of an engine and its database.
type Config struct {
	Dialect    string        `mapstructure:"dialect" validate:"required,oneof=sqlite3 mysql postgres"`
	DSN        string        `mapstructure:"dsn" validate:"required"`
	UUIDLength int           `mapstructure:"uuidLength" validate:"oneof=32 36 38"`
	SQLFiles   []string      `mapstructure:"sqlFiles" validate:"dive,required"`
	Logging    LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig configures the logger returned by NewLogger.
type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	// Console selects human readable output instead of JSON.
	Console bool `mapstructure:"console"`
}

var validate = validator.New()

// Load reads the configuration file at path, applies the environment
// overrides and validates the result. An empty path reads the environment
// only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Environment variables are only seen for known keys.
	v.SetDefault("dialect", "")
	v.SetDefault("dsn", "")
	v.SetDefault("uuidLength", idgen.DefaultUUIDLength)
	v.SetDefault("sqlFiles", []string{})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", false)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read configuration: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("cannot decode configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Namespace() + " failed on " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
}

// DriverName returns the database/sql driver used for the dialect.
func (c *Config) DriverName() string {
	switch c.Dialect {
	case dialect.Postgres:
		return "pgx"
	case dialect.MySQL:
		return "mysql"
	}
	return "sqlite3"
}

// DataSourceName returns the DSN to open the database with. MySQL DSNs are
// set to parse DATE and DATETIME columns into time.Time.
func (c *Config) DataSourceName() (string, error) {
	if c.Dialect != dialect.MySQL {
		return c.DSN, nil
	}
	cfg, err := mysql.ParseDSN(c.DSN)
	if err != nil {
		return "", fmt.Errorf("invalid mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// NewEngine returns an engine for the configured dialect with the SQL files
// loaded.
func (c *Config) NewEngine(logger zerolog.Logger) (*sqlcmd.Engine, error) {
	d, err := dialect.New(c.Dialect)
	if err != nil {
		return nil, err
	}
	g, err := idgen.NewUUIDGenerator(c.UUIDLength)
	if err != nil {
		return nil, err
	}
	e := sqlcmd.NewEngine(d, sqlcmd.WithLogger(logger), sqlcmd.WithUUIDGenerator(g))
	for _, path := range c.SQLFiles {
		if err := sqlfile.LoadFile(e, path); err != nil {
			return nil, err
		}
	}
	return e, nil
}
