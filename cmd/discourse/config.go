package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loykin/discourseapi"
	"github.com/loykin/discourseapi/internal/common"
	"github.com/loykin/discourseapi/internal/constants"
	"github.com/loykin/discourseapi/internal/httpc"
	"github.com/loykin/discourseapi/internal/util"
	"gopkg.in/yaml.v3"
)

type SQLiteStoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type PostgresStoreConfig struct {
	DSN      string `mapstructure:"dsn" yaml:"dsn"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`                   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"`                 // text, json, color
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"` // enable/disable sensitive data masking
	Color         *bool  `mapstructure:"color" yaml:"color"`                   // enable/disable colorized output
}

type StoreConfig struct {
	Disabled         bool                `mapstructure:"disabled" yaml:"disabled"`
	SaveResponseBody bool                `mapstructure:"save_response_body" yaml:"save_response_body"`
	Type             string              `mapstructure:"type" yaml:"type"`
	SQLite           SQLiteStoreConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres         PostgresStoreConfig `mapstructure:"postgres" yaml:"postgres"`
	TablePrefix      string              `mapstructure:"table_prefix" yaml:"table_prefix"`
	TableName        string              `mapstructure:"table_name" yaml:"table_name"`
}

type ClientConfig struct {
	Insecure      bool   `mapstructure:"insecure" yaml:"insecure"`
	MinTLSVersion string `mapstructure:"min_tls_version" yaml:"min_tls_version"`
	MaxTLSVersion string `mapstructure:"max_tls_version" yaml:"max_tls_version"`
}

type ConfigDoc struct {
	Host        string        `mapstructure:"host" yaml:"host"`
	Protocol    string        `mapstructure:"protocol" yaml:"protocol"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	APIUsername string        `mapstructure:"api_username" yaml:"api_username"`
	ShowEmails  *bool         `mapstructure:"show_emails" yaml:"show_emails"`
	Timeout     string        `mapstructure:"timeout" yaml:"timeout"`
	Client      ClientConfig  `mapstructure:"client" yaml:"client"`
	Logging     LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Store       StoreConfig   `mapstructure:"store" yaml:"store"`
}

func (c *ConfigDoc) Load(path string) error {
	clean := filepath.Clean(path)
	// Ensure path points to a regular file to avoid opening directories/special files
	if info, statErr := os.Stat(clean); statErr != nil || !info.Mode().IsRegular() {
		if statErr != nil {
			return statErr
		}
		return fmt.Errorf("not a regular file: %s", clean)
	}
	// #nosec G304 -- config path is provided intentionally by the user/CI; cleaned and validated above
	f, err := os.Open(clean)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	return dec.Decode(c)
}

// ClientOptions translates the document into client options.
func (c *ConfigDoc) ClientOptions() ([]discourseapi.Option, error) {
	var opts []discourseapi.Option
	if p, ok := util.TrimEmptyCheck(c.Protocol); ok {
		opts = append(opts, discourseapi.WithProtocol(p))
	}
	if u, ok := util.TrimEmptyCheck(c.APIUsername); ok {
		opts = append(opts, discourseapi.WithActingUser(u))
	}
	if c.ShowEmails != nil {
		opts = append(opts, discourseapi.WithShowEmails(*c.ShowEmails))
	}
	if s, ok := util.TrimEmptyCheck(c.Timeout); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", s, err)
		}
		opts = append(opts, discourseapi.WithTimeout(d))
	}
	tlsCfg, err := httpc.TLSOptions{
		Insecure:      c.Client.Insecure,
		MinTLSVersion: c.Client.MinTLSVersion,
		MaxTLSVersion: c.Client.MaxTLSVersion,
	}.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		opts = append(opts, discourseapi.WithTLSConfig(tlsCfg))
	}
	return opts, nil
}

// ToStoreConfig returns nil when the call history is not configured.
func (c *StoreConfig) ToStoreConfig() *discourseapi.StoreConfig {
	if c.Disabled {
		return nil
	}
	stType := util.TrimAndLower(c.Type)
	if stType == "" {
		return nil
	}
	out := &discourseapi.StoreConfig{
		Driver:           stType,
		TableName:        strings.TrimSpace(c.TableName),
		TablePrefix:      strings.TrimSpace(c.TablePrefix),
		SaveResponseBody: c.SaveResponseBody,
	}
	switch stType {
	case discourseapi.DriverPostgresql, "postgres", "pg":
		out.DriverConfig = &discourseapi.PostgresConfig{
			DSN:      c.Postgres.DSN,
			Host:     c.Postgres.Host,
			Port:     c.Postgres.Port,
			User:     c.Postgres.User,
			Password: c.Postgres.Password,
			DBName:   c.Postgres.DBName,
			SSLMode:  c.Postgres.SSLMode,
		}
	default:
		out.DriverConfig = &discourseapi.SqliteConfig{Path: util.TrimWithDefault(c.SQLite.Path, constants.DefaultSQLiteFileName)}
	}
	return out
}

// SetupLogging configures the global logger based on config settings
func (c *ConfigDoc) SetupLogging() error {
	level, ok := common.ParseLogLevel(c.Logging.Level)
	if !ok {
		return fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", c.Logging.Level)
	}

	format := util.TrimAndLower(c.Logging.Format)
	useColor := false
	if c.Logging.Color != nil {
		useColor = *c.Logging.Color
	} else if format == "color" || format == "colour" {
		useColor = true
	}

	var logger *common.Logger
	switch format {
	case "json":
		logger = common.NewJSONLogger(level)
	case "color", "colour":
		logger = common.NewColorLogger(level, useColor)
	case "text", "":
		if useColor {
			logger = common.NewColorLogger(level, true)
		} else {
			logger = common.NewLogger(level)
		}
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json, color)", c.Logging.Format)
	}

	maskingEnabled := true
	if c.Logging.MaskSensitive != nil {
		maskingEnabled = *c.Logging.MaskSensitive
	}
	common.EnableMasking(maskingEnabled)
	common.SetDefaultLogger(logger)

	logger.Debug("logging configured",
		"level", level.String(),
		"format", util.TrimWithDefault(format, "text"),
		"color", useColor,
		"mask_sensitive", maskingEnabled)
	return nil
}
