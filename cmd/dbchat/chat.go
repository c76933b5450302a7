package main

import (
	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/chat"
	"github.com/kandev/dbchat/internal/chat/session"
	"github.com/kandev/dbchat/internal/chat/workflow"
	"github.com/kandev/dbchat/internal/common/config"
	"github.com/kandev/dbchat/internal/common/logger"
	"github.com/kandev/dbchat/internal/db"
	"github.com/kandev/dbchat/internal/events"
)

// chatCore is the transport-independent part of the bot.
type chatCore struct {
	database *db.Gateway
	store    *session.Store
	tracker  *session.Tracker
	engine   *workflow.Engine
	service  *chat.Service
	bus      *events.ProvidedBus
	logger   *logger.Logger
}

func provideDatabase(cfg *config.Config, log *logger.Logger) (*db.Gateway, error) {
	return db.NewGateway(db.Options{
		Driver:         cfg.Database.Driver,
		SSLMode:        cfg.Database.SSLMode,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		MaxOpenConns:   cfg.Database.MaxConns,
		MaxIdleConns:   cfg.Database.MinConns,
	}, log)
}

// provideChat wires the gateway, session state, engine and service. Replies
// go to replier; finished workflows are announced on the bus; onStop runs
// after a stop command was answered.
func provideChat(cfg *config.Config, log *logger.Logger, eventBus *events.ProvidedBus, replier chat.Replier, onStop func()) (*chatCore, error) {
	database, err := provideDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	store := session.NewStore()
	tracker := session.NewTracker()
	engine := workflow.New(store, tracker, database, workflow.Options{
		CommandPrefix: cfg.Chat.CommandPrefix,
		BotName:       cfg.Chat.BotName,
		Logger:        log,
		OnFinish:      chat.FinishPublisher(eventBus.Bus, log),
	})
	service := chat.NewService(engine, replier, chat.ServiceOptions{
		InboxSize: cfg.Chat.InboxSize,
		OnStop:    onStop,
		Logger:    log,
	})

	log.Info("Chat core initialized",
		zap.String("driver", database.Driver()),
		zap.String("command_prefix", cfg.Chat.CommandPrefix))

	return &chatCore{
		database: database,
		store:    store,
		tracker:  tracker,
		engine:   engine,
		service:  service,
		bus:      eventBus,
		logger:   log,
	}, nil
}

// status reports health for GET /health and health.check.
func (c *chatCore) status() map[string]any {
	return map[string]any{
		"status":            "ok",
		"gateway_connected": c.database.Connected(),
		"sessions":          c.store.Len(),
		"event_bus":         c.bus.Kind,
		"bus_connected":     c.bus.Bus.IsConnected(),
	}
}

// close drops the database connection and every user's connected state.
func (c *chatCore) close() {
	if err := c.database.Close(); err != nil {
		c.logger.Warn("Failed to close database connection", zap.Error(err))
	}
	c.tracker.Clear()
}
