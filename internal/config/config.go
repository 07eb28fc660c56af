package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/TourBookingService/pkg/types"
)

// ErrInvalidConfig возвращается, когда конфигурация не проходит валидацию
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config корневая конфигурация сервиса (config.toml)
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Redis     RedisConfig     `toml:"redis"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Tours     map[string]int  `toml:"tours"` // tour type -> длительность в минутах
	Conductor ConductorConfig `toml:"conductor"`
	Auth      AuthConfig      `toml:"auth"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Channel  string `toml:"channel"`
}

// ScheduleConfig сетка слотов рабочего дня
type ScheduleConfig struct {
	Opening         string   `toml:"opening"`           // "09:00"
	Closing         string   `toml:"closing"`           // "18:00"
	StepMinutes     int      `toml:"step_minutes"`      // шаг генерируемой сетки
	FixedSlots      []string `toml:"fixed_slots"`       // если задано, сетка не генерируется
	SlotSpanMinutes int      `toml:"slot_span_minutes"` // ширина слота в календаре
}

type ConductorConfig struct {
	PollIntervalSeconds int      `toml:"poll_interval_seconds"`
	WatchedIDs          []string `toml:"watched_ids"`
}

type AuthConfig struct {
	AdminUserIDs []string `toml:"admin_user_ids"`
}

// Load читает конфигурацию из TOML файла, применяет значения по умолчанию и валидирует
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Parse разбирает конфигурацию из строки (используется в тестах)
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}

	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "tour-booking-service"
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "conductor_sessions"
	}

	if c.Schedule.Opening == "" {
		c.Schedule.Opening = "09:00"
	}
	if c.Schedule.Closing == "" {
		c.Schedule.Closing = "18:00"
	}
	if c.Schedule.StepMinutes == 0 {
		c.Schedule.StepMinutes = 90
	}
	if c.Schedule.SlotSpanMinutes == 0 {
		c.Schedule.SlotSpanMinutes = 45
	}

	if c.Conductor.PollIntervalSeconds == 0 {
		c.Conductor.PollIntervalSeconds = 30
	}
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	opening, err := types.NewTimeStringFromString(c.Schedule.Opening)
	if err != nil {
		return fmt.Errorf("%w: schedule.opening: %v", ErrInvalidConfig, err)
	}
	closing, err := types.NewTimeStringFromString(c.Schedule.Closing)
	if err != nil {
		return fmt.Errorf("%w: schedule.closing: %v", ErrInvalidConfig, err)
	}
	if !opening.IsBefore(closing) {
		return fmt.Errorf("%w: schedule.closing %s must be after opening %s", ErrInvalidConfig, closing, opening)
	}
	if c.Schedule.StepMinutes < 0 || c.Schedule.SlotSpanMinutes < 0 {
		return fmt.Errorf("%w: schedule step and slot span must be positive", ErrInvalidConfig)
	}
	for _, s := range c.Schedule.FixedSlots {
		if _, err := types.NewTimeStringFromString(s); err != nil {
			return fmt.Errorf("%w: schedule.fixed_slots %q: %v", ErrInvalidConfig, s, err)
		}
	}
	for tour, minutes := range c.Tours {
		if minutes <= 0 {
			return fmt.Errorf("%w: tours.%s duration must be positive", ErrInvalidConfig, tour)
		}
	}
	if c.Conductor.PollIntervalSeconds < 0 {
		return fmt.Errorf("%w: conductor.poll_interval_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}
