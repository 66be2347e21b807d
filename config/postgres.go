package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// PostgresConfig defines the configuration for connecting to a PostgreSQL database.
type PostgresConfig struct {
	// URI, when set, is used verbatim and overrides the discrete fields
	// below. Bound to the DATABASE_URI environment variable.
	URI string `mapstructure:"uri"`

	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	// Environment selects the credential source: "prod" pulls host, user and
	// password from the AWS parameter store instead of this struct.
	Environment string `mapstructure:"environment"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (cfg *PostgresConfig) DSN() string {
	if cfg.URI != "" {
		return cfg.URI
	}
	return cfg.keywordDSN(cfg.DBName)
}

// MaintenanceDSN targets the server's default "postgres" database. Used when
// creating the application database, which cannot be done while connected
// to it.
func (cfg *PostgresConfig) MaintenanceDSN() string {
	return cfg.keywordDSN("postgres")
}

func (cfg *PostgresConfig) keywordDSN(dbname string) string {
	host, user, password := cfg.Host, cfg.User, cfg.Password
	if cfg.Environment == "prod" {
		host = getParameterStoreValue("MARKET_DATA_DB_HOST", true)
		user = getParameterStoreValue("MARKET_DATA_DB_USER", true)
		password = getParameterStoreValue("MARKET_DATA_DB_PASSWORD", true)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.Port, user, password, dbname, cfg.SSLMode,
	)

	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}

	return dsn
}

func (cfg *PostgresConfig) validate() error {
	if cfg.URI != "" || cfg.Environment == "prod" {
		return nil
	}
	if cfg.Host == "" || cfg.User == "" || cfg.DBName == "" {
		return errors.New("postgres is not configured: set DATABASE_URI or postgres host, user and dbname")
	}
	return nil
}

func getParameterStoreValue(parameterName string, decrypt bool) string {
	baseCtx := context.Background()
	ctxWithTimeout, cancel := context.WithTimeout(baseCtx, 5*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return ""
	}

	client := ssm.NewFromConfig(cfg)

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return ""
	}

	if result.Parameter.Value == nil {
		return ""
	}

	return *result.Parameter.Value
}
