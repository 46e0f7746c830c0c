package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// DriverPostgres хранит бронирования в PostgreSQL
	DriverPostgres = "postgres"
	// DriverMemory хранит всё в памяти процесса (локальная разработка)
	DriverMemory = "memory"
)

var (
	// ErrInvalidConfig возвращается, когда конфигурация не проходит валидацию
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config корневая конфигурация сервиса
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Logs     LogsConfig     `toml:"logs"`
	Metrics  MetricsConfig  `toml:"metrics"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
	Booking  BookingConfig  `toml:"booking"`
}

// ServerConfig настройки HTTP сервера, таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки подключения к БД
type DatabaseConfig struct {
	Driver          string `toml:"driver"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
	AutoMigrate     bool   `toml:"auto_migrate"`
}

// DSN собирает строку подключения для lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// RabbitMQConfig настройки публикации событий бронирований
type RabbitMQConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`
	Queue   string `toml:"queue"`
}

// BookingConfig параметры движка бронирования
type BookingConfig struct {
	// Горизонт, на который отдаются слоты, если политика не ограничивает его сильнее
	MaxHorizonDays int `toml:"max_horizon_days"`
}

// Load читает TOML файл, затем .env и переменные окружения SMC_*
func Load(path string) (*Config, error) {
	cfg := defaults()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	// .env необязателен
	_ = godotenv.Load(".env")

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "clinic_booking",
		},
		RabbitMQ: RabbitMQConfig{
			Queue: "booking_events",
		},
		Booking: BookingConfig{
			MaxHorizonDays: 90,
		},
	}
}

// applyEnv переопределяет секреты и адреса из окружения
func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("SMC_DB_DRIVER"); ok && v != "" {
		c.Database.Driver = v
	}
	if v, ok := os.LookupEnv("SMC_DB_HOST"); ok && v != "" {
		c.Database.Host = v
	}
	if v, ok := os.LookupEnv("SMC_DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SMC_DB_PORT=%q is not a number", ErrInvalidConfig, v)
		}
		c.Database.Port = port
	}
	if v, ok := os.LookupEnv("SMC_DB_USER"); ok && v != "" {
		c.Database.User = v
	}
	if v, ok := os.LookupEnv("SMC_DB_PASSWORD"); ok {
		c.Database.Password = v
	}
	if v, ok := os.LookupEnv("SMC_DB_NAME"); ok && v != "" {
		c.Database.DBName = v
	}
	if v, ok := os.LookupEnv("SMC_AMQP_URL"); ok && v != "" {
		c.RabbitMQ.URL = v
	}
	if v, ok := os.LookupEnv("SMC_LOG_LEVEL"); ok && v != "" {
		c.Logs.Level = v
	}
	return nil
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: server.shutdown_timeout must not be negative", ErrInvalidConfig)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("%w: database.host and database.dbname are required", ErrInvalidConfig)
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("%w: database.max_open_conns must be positive", ErrInvalidConfig)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Metrics.Enabled && c.Metrics.Path == "" {
		return fmt.Errorf("%w: metrics.path is required when metrics are enabled", ErrInvalidConfig)
	}
	if c.RabbitMQ.Enabled && (c.RabbitMQ.URL == "" || c.RabbitMQ.Queue == "") {
		return fmt.Errorf("%w: rabbitmq.url and rabbitmq.queue are required when rabbitmq is enabled", ErrInvalidConfig)
	}
	if c.Booking.MaxHorizonDays < 0 {
		return fmt.Errorf("%w: booking.max_horizon_days must not be negative", ErrInvalidConfig)
	}

	return nil
}
