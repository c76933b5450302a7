package main

import (
	"github.com/kandev/dbchat/internal/common/config"
	"github.com/kandev/dbchat/internal/common/logger"
	"github.com/kandev/dbchat/internal/events"
)

func provideEventBus(cfg *config.Config, log *logger.Logger) (*events.ProvidedBus, func() error, error) {
	return events.Provide(cfg, log)
}
