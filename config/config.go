package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Auth     Auth
	Timer    Timer
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Auth struct {
	AdminJWTSecret  string
	SessionTTLHours int
}

type Timer struct {
	// Secret keys the HMAC over secure timestamps handed to clients.
	Secret string
	// ToleranceSeconds absorbs network latency when comparing a
	// client-reported elapsed time against the server's.
	ToleranceSeconds int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SESSION_TTL_HOURS", 12)
	viper.SetDefault("TIMER_TOLERANCE_SECONDS", 5)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Auth.AdminJWTSecret = viper.GetString("ADMIN_JWT_SECRET")
	config.Auth.SessionTTLHours = viper.GetInt("SESSION_TTL_HOURS")
	config.Timer.Secret = viper.GetString("TIMER_SECRET")
	config.Timer.ToleranceSeconds = viper.GetInt("TIMER_TOLERANCE_SECONDS")

	log.Info().Str("port", config.Server.Port).Str("db_host", config.Database.Host).Msg("Config loaded")
	return &config, nil
}
