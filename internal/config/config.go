package config

import (
	"strings"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port                   string `env:"PORT" envDefault:"8080"`
	DBUser                 string `env:"DB_USER,required"`
	DBPassword             string `env:"DB_PASSWORD,required"`
	DBHost                 string `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME,required"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	MongoURI      string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"hobbiz"`

	FirebaseProjectID      string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH" envDefault:"config/firebase-service-account.json"`
	PushRatePerSecond      int    `env:"PUSH_RATE_PER_SECOND" envDefault:"50"`

	RedisAddr string `env:"REDIS_ADDR"`
	NatsURL   string `env:"NATS_URL"`

	StorageBucket string `env:"STORAGE_BUCKET"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"uploads"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	for i, o := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	return &cfg, nil
}
