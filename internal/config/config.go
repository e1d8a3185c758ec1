package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"APP_ENV" env-default:"local" validate:"oneof=local dev prod"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Listings   Listings   `yaml:"listings"`
	Currency   Currency   `yaml:"currency"`
	Pipeline   Pipeline   `yaml:"pipeline"`
	RateStats  RateStats  `yaml:"rate_stats"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8082" validate:"required"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Listings struct {
	BaseURL   string        `yaml:"base_url" env:"LISTINGS_BASE_URL" env-default:"https://kudago.com/public-api/v1.4/events/" validate:"required,url"`
	Location  string        `yaml:"location" env:"LISTINGS_LOCATION" env-default:"kzn" validate:"required"`
	Fields    string        `yaml:"fields" env-default:"id,title,description,place,dates,price" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" env-default:"10s"`
	RateLimit int           `yaml:"rate_limit" env:"LISTINGS_RATE_LIMIT" env-default:"2" validate:"min=1"`
}

type Currency struct {
	BaseURL    string        `yaml:"base_url" env:"CURRENCY_BASE_URL" env-default:"http://localhost:8080" validate:"required,url"`
	Settlement string        `yaml:"settlement" env-default:"RUB" validate:"required,len=3,alpha"`
	Timeout    time.Duration `yaml:"timeout" env-default:"5s"`
}

type Pipeline struct {
	Style   string `yaml:"style" env:"PIPELINE_STYLE" env-default:"stream" validate:"oneof=stream future"`
	Workers int    `yaml:"workers" env-default:"8" validate:"min=1"`
	Queue   int    `yaml:"queue" env-default:"64" validate:"min=0"`
}

type RateStats struct {
	Enabled       bool          `yaml:"enabled" env:"RATE_STATS_ENABLED"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR" validate:"required_if=Enabled true"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
	Prefix        string        `yaml:"prefix" env-default:"event_finder:limiter"`
	TTL           time.Duration `yaml:"ttl" env-default:"24h"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		log.Fatal("config path is empty")
	}

	cfg, err := Load(path)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}

	return &cfg, nil
}

// fetchConfigPath takes the path from the -config flag, then from CONFIG_PATH.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
