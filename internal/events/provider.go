package events

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/common/config"
	"github.com/kandev/dbchat/internal/common/logger"
	"github.com/kandev/dbchat/internal/events/bus"
)

// Bus kinds reported by Provide.
const (
	BusMemory = "memory"
	BusNATS   = "nats"
)

// ProvidedBus is the event bus selected by configuration.
type ProvidedBus struct {
	Bus  bus.EventBus
	Kind string
}

// Provide connects to NATS when nats.url is set and otherwise keeps traffic
// in process. The cleanup drains the bus.
func Provide(cfg *config.Config, log *logger.Logger) (*ProvidedBus, func() error, error) {
	p := &ProvidedBus{Kind: BusMemory}
	if url := strings.TrimSpace(cfg.NATS.URL); url != "" {
		natsBus, err := bus.NewNATSEventBus(cfg.NATS, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize NATS event bus: %w", err)
		}
		p.Bus, p.Kind = natsBus, BusNATS
	} else {
		p.Bus = bus.NewMemoryEventBus(log)
	}

	log.Info("Event bus ready", zap.String("kind", p.Kind))
	cleanup := func() error {
		p.Bus.Close()
		return nil
	}
	return p, cleanup, nil
}
