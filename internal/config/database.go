package config

import (
	"fmt"
	"time"
)

const (
	RedemptionStoreMongo    = "mongo"
	RedemptionStorePostgres = "postgres"
)

type DatabaseConfig struct {
	URI             string        `yaml:"uri"`
	Database        string        `yaml:"database"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	MaxPoolSize     int           `yaml:"max_pool_size"`
	MinPoolSize     int           `yaml:"min_pool_size"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	SocketTimeout   time.Duration `yaml:"socket_timeout"`
	AuthSource      string        `yaml:"auth_source"`
	RedemptionStore string        `yaml:"redemption_store"`
}

// PostgresConfig configures the optional promo redemption ledger.
type PostgresConfig struct {
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URI:             getEnv("MONGODB_URI", "mongodb://localhost:27017/bakehouse"),
		Database:        getEnv("MONGODB_DATABASE", "bakehouse"),
		Username:        getEnv("MONGODB_USERNAME", ""),
		Password:        getEnv("MONGODB_PASSWORD", ""),
		MaxPoolSize:     getEnvAsInt("MONGODB_MAX_POOL_SIZE", 50),
		MinPoolSize:     getEnvAsInt("MONGODB_MIN_POOL_SIZE", 2),
		ConnectTimeout:  getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		SocketTimeout:   getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
		AuthSource:      getEnv("MONGODB_AUTH_SOURCE", "admin"),
		RedemptionStore: getEnv("REDEMPTION_STORE", RedemptionStoreMongo),
	}
}

func loadPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		URL:             getEnv("POSTGRES_DSN", ""),
		Host:            getEnv("POSTGRES_HOST", ""),
		Port:            getEnvAsInt("POSTGRES_PORT", 5432),
		User:            getEnv("POSTGRES_USER", "bakehouse"),
		Password:        getEnv("POSTGRES_PASSWORD", ""),
		Database:        getEnv("POSTGRES_DB", "bakehouse"),
		SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

// DSN returns POSTGRES_DSN when set, otherwise a key=value string built from
// the individual settings. Empty means the ledger is not configured.
func (c *PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	if c.Host == "" {
		return ""
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}
