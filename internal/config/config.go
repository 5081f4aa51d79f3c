package config

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	handlerConfig "github.com/iurnickita/airbilling/internal/handler/config"
	loggerConfig "github.com/iurnickita/airbilling/internal/logger/config"
	serviceConfig "github.com/iurnickita/airbilling/internal/service/config"
	storeConfig "github.com/iurnickita/airbilling/internal/store/config"
)

type Config struct {
	Handler handlerConfig.Config
	Service serviceConfig.Config
	Store   storeConfig.Config
	Logger  loggerConfig.Config
}

func GetConfig() Config {
	// .env is optional, flags and environment take over
	_ = godotenv.Load()

	var cfg Config
	flag.StringVar(&cfg.Handler.ServerAddr, "a", ":8080", "server address")
	flag.StringVar(&cfg.Store.DBDsn, "d", "", "database dsn")
	flag.StringVar(&cfg.Service.RegistryAddr, "r", "", "aircraft registry address")
	flag.StringVar(&cfg.Logger.LogLevel, "l", "info", "log level")
	flag.Parse()

	if addr := os.Getenv("RUN_ADDRESS"); addr != "" {
		cfg.Handler.ServerAddr = addr
	}
	if dsn := os.Getenv("DATABASE_URI"); dsn != "" {
		cfg.Store.DBDsn = dsn
	}
	if addr := os.Getenv("REGISTRY_ADDRESS"); addr != "" {
		cfg.Service.RegistryAddr = addr
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logger.LogLevel = level
	}

	return cfg
}
