package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/config.yaml"

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	JWTSecret  string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	StoreURL   string `yaml:"store_url" env:"STORE_URL" env-default:"http://dbservice:3008"`
	Redis      `yaml:"redis"`
	Postgres   `yaml:"postgres"`
	RabbitMQ   `yaml:"rabbitmq"`
	Scraper    `yaml:"scraper"`
	Scheduler  `yaml:"scheduler"`
	Price      `yaml:"price"`
	HTTPServer `yaml:"http_server"`
	Services   `yaml:"services"`
	// HealthTargets — адреса /health всех сервисов для агрегации в gateway.
	HealthTargets map[string]string `yaml:"health_targets"`
}

type HTTPServer struct {
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Services struct {
	Gateway      string `yaml:"gateway" env-default:":3000"`
	Scraper      string `yaml:"scraper" env-default:":3002"`
	PriceMonitor string `yaml:"price_monitor" env-default:":3003"`
	OfferMonitor string `yaml:"offer_monitor" env-default:":3004"`
	StockMonitor string `yaml:"stock_monitor" env-default:":3005"`
	Notifier     string `yaml:"notifier" env-default:":3006"`
	Scheduler    string `yaml:"scheduler" env-default:":3007"`
	Database     string `yaml:"database" env-default:":3008"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"password" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Addr       string        `yaml:"addr" env:"REDIS_ADDR" env-default:"redis:6379"`
	Db         int           `yaml:"db" env-default:"0"`
	DefaultTTL time.Duration `yaml:"default_ttl" env-default:"1m"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"notifications"`
}

type Scraper struct {
	UserAgent       string        `yaml:"user_agent" env-default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	NavigateTimeout time.Duration `yaml:"navigate_timeout" env-default:"30s"`
	Headless        bool          `yaml:"headless" env-default:"true"`
	// MaxPages ограничивает число одновременно открытых страниц браузера.
	MaxPages int `yaml:"max_pages" env-default:"4"`
}

type Scheduler struct {
	CronPattern string        `yaml:"cron_pattern" env:"CRON_PATTERN" env-default:"*/30 * * * *"`
	PaceDelay   time.Duration `yaml:"pace_delay" env-default:"1s"`
}

type Price struct {
	DropThreshold float64 `yaml:"drop_threshold" env:"PRICE_THRESHOLD" env-default:"1.0"`
	Currency      string  `yaml:"currency" env-default:"INR"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// проверка существования файла
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", configPath)
	}

	return &cfg
}
