package main

import (
	"log"

	"github.com/iurnickita/airbilling/internal/auth"
	"github.com/iurnickita/airbilling/internal/config"
	"github.com/iurnickita/airbilling/internal/handler"
	"github.com/iurnickita/airbilling/internal/logger"
	"github.com/iurnickita/airbilling/internal/service"
	"github.com/iurnickita/airbilling/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.GetConfig()

	zaplog, err := logger.NewZapLog(cfg.Logger)
	if err != nil {
		return err
	}

	store, err := store.NewStore(cfg.Store)
	if err != nil {
		return err
	}

	auth := auth.NewAuth(store)
	service := service.NewService(cfg.Service, store, zaplog)

	return handler.Serve(cfg.Handler, auth, service, zaplog)
}
