package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env        string `yaml:"env"`
	BaseURL    string `yaml:"base_url"`
	HTTPServer `yaml:"http_server"`
	Log        `yaml:"log"`
	Shortener  `yaml:"shortener"`
	Redirect   `yaml:"redirect"`
	Storage    `yaml:"storage"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	Evaluation `yaml:"evaluation"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Log struct {
	Level   string `yaml:"level"`
	JSON    bool   `yaml:"json"`
	Concise bool   `yaml:"concise"`
}

var defaultLog = Log{
	Level:   "info",
	Concise: true,
}

type Shortener struct {
	CodeLength             int  `yaml:"code_length"`
	DefaultValidityMinutes int  `yaml:"default_validity_minutes"`
	MaxBatchSize           int  `yaml:"max_batch_size"`
	RejectBatchDuplicates  bool `yaml:"reject_batch_duplicates"`
}

var defaultShortener = Shortener{
	CodeLength:             6,
	DefaultValidityMinutes: 30,
	MaxBatchSize:           5,
}

type Redirect struct {
	BlockExpired  bool   `yaml:"block_expired"`
	DefaultSource string `yaml:"default_source"`
}

var defaultRedirect = Redirect{
	DefaultSource: "direct",
}

type Storage struct {
	Driver      string `yaml:"driver"`
	Key         string `yaml:"key"`
	Dir         string `yaml:"dir"`
	RedisPrefix string `yaml:"redis_prefix"`
}

var defaultStorage = Storage{
	Driver:      DriverFile,
	Key:         "shortenedUrls",
	Dir:         "./data",
	RedisPrefix: "url-shortener:",
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
	MigrationsPath:  "file://migrations",
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var defaultRedis = Redis{
	Host: "localhost",
	Port: 6379,
}

func (r *Redis) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Evaluation configures the remote auth and log collection service.
type Evaluation struct {
	Enabled     bool          `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	QueueSize   int           `yaml:"queue_size"`
	Stack       string        `yaml:"stack"`
	Credentials `yaml:"credentials"`
}

type Credentials struct {
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	RollNo       string `yaml:"roll_no"`
	AccessCode   string `yaml:"access_code"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

var defaultEvaluation = Evaluation{
	BaseURL:   "http://20.244.56.144/evaluation-service",
	Timeout:   5 * time.Second,
	QueueSize: 100,
	Stack:     "backend",
}

// Load reads the YAML config at path on top of the defaults. A .env file in
// the working directory is loaded first when present, and secrets can be
// overridden from the environment.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: failed to load .env file: %w", op, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

// Validate checks values the application cannot run with.
func (cfg *Config) Validate() error {
	switch cfg.Storage.Driver {
	case DriverMemory, DriverFile, DriverRedis, DriverPostgres:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, cfg.Storage.Driver)
	}

	if cfg.Storage.Key == "" {
		return fmt.Errorf("%w: storage key is empty", ErrInvalidConfig)
	}
	// Generated codes must satisfy the same minimum as user supplied ones.
	if cfg.Shortener.CodeLength < 4 {
		return fmt.Errorf("%w: code_length must be at least 4", ErrInvalidConfig)
	}
	if cfg.Shortener.DefaultValidityMinutes <= 0 {
		return fmt.Errorf("%w: default_validity_minutes must be positive", ErrInvalidConfig)
	}
	if cfg.Shortener.MaxBatchSize <= 0 {
		return fmt.Errorf("%w: max_batch_size must be positive", ErrInvalidConfig)
	}
	if cfg.Evaluation.Enabled && cfg.Evaluation.BaseURL == "" {
		return fmt.Errorf("%w: evaluation base_url is empty", ErrInvalidConfig)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8080"
	cfg.HTTPServer = defaultHTTPServer
	cfg.Log = defaultLog
	cfg.Shortener = defaultShortener
	cfg.Redirect = defaultRedirect
	cfg.Storage = defaultStorage
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.Evaluation = defaultEvaluation
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("POSTGRES_PASSWORD"); ok {
		cfg.Postgres.Password = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok {
		cfg.Redis.Password = v
	}
	if v, ok := os.LookupEnv("EVALUATION_CLIENT_ID"); ok {
		cfg.Evaluation.ClientID = v
	}
	if v, ok := os.LookupEnv("EVALUATION_CLIENT_SECRET"); ok {
		cfg.Evaluation.ClientSecret = v
	}
	if v, ok := os.LookupEnv("EVALUATION_ACCESS_CODE"); ok {
		cfg.Evaluation.AccessCode = v
	}
}
