package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Environment struct {
	Environment    string
	ServerAddress  string
	DatabaseURL    string
	MigrationsPath string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	PeripheralURL   string
	ProbeInterval   time.Duration
	DispatchTimeout time.Duration

	MQTTBrokerURL string

	AlarmSlot string
}

// LoadEnvironment reads and validates env vars
func LoadEnvironment() Environment {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	env := Environment{
		Environment:   os.Getenv("APP_ENV"),
		ServerAddress: os.Getenv("SERVER_ADDRESS"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),

		PeripheralURL: os.Getenv("PERIPHERAL_URL"),
		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),

		AlarmSlot: os.Getenv("ALARM_SLOT"),
	}

	if env.DatabaseURL == "" || env.PeripheralURL == "" {
		log.Fatal().Msg("DATABASE_URL and PERIPHERAL_URL are required")
	}
	if env.ServerAddress == "" {
		env.ServerAddress = ":8080"
	}
	if env.MigrationsPath == "" {
		env.MigrationsPath = "./migrations"
	}
	if env.AlarmSlot == "" {
		env.AlarmSlot = "default"
	}

	env.ProbeInterval = durationEnv("PERIPHERAL_PROBE_INTERVAL", 10*time.Second)
	env.DispatchTimeout = durationEnv("DISPATCH_TIMEOUT", 5*time.Second)

	return env
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", raw).Msg("invalid duration env var")
	}
	return d
}
