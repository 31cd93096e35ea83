package config

import (
	"fmt"

	"github.com/rpattn/planimport/internal/db"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	DB             db.Config
	ServerAddr     string
	MappingsPath   string
	MigrationsPath string
}

// Load reads config.yaml from configPath with environment overrides.
func Load(configPath string) (Config, error) {
	cfg := Config{
		DB:             db.DefaultConfig(),
		ServerAddr:     ":8080",
		MappingsPath:   "config/mappings.yaml",
		MigrationsPath: "migrations",
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()     // allow environment overrides
	v.SetEnvPrefix("DB") // map env vars like DB_HOST, DB_PORT

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.ServerAddr = v.GetString("server.addr")
	}
	if v.IsSet("import.mappings") {
		cfg.MappingsPath = v.GetString("import.mappings")
	}
	if v.IsSet("import.migrations") {
		cfg.MigrationsPath = v.GetString("import.migrations")
	}

	return cfg, nil
}
