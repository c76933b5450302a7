// Package chat feeds inbound chat messages to the workflow engine one at a
// time and delivers the replies.
package chat

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/chat/workflow"
	"github.com/kandev/dbchat/internal/common/logger"
)

// ErrStopped is returned by Submit once the service stopped taking messages.
var ErrStopped = errors.New("chat service stopped")

const defaultInboxSize = 256

// Inbound is one message from a chat participant.
type Inbound struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// Replier delivers a reply to a user over some transport.
type Replier interface {
	Reply(ctx context.Context, userID, text string) error
}

// Handler turns one message into the replies to send.
type Handler interface {
	Handle(ctx context.Context, userID, text string) workflow.Response
}

// ServiceOptions configure a Service.
type ServiceOptions struct {
	InboxSize int
	// OnStop runs after the replies to a stop command were sent.
	OnStop func()
	Logger *logger.Logger
}

// Service is the single consumer of the inbox.
type Service struct {
	handler Handler
	replier Replier
	inbox   chan Inbound
	onStop  func()
	logger  *logger.Logger

	stopOnce  sync.Once
	stopped   chan struct{}
	closeOnce sync.Once
	closing   chan struct{}
}

// NewService creates a chat service. Call Run to start consuming.
func NewService(handler Handler, replier Replier, opts ServiceOptions) *Service {
	if opts.InboxSize <= 0 {
		opts.InboxSize = defaultInboxSize
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	return &Service{
		handler: handler,
		replier: replier,
		inbox:   make(chan Inbound, opts.InboxSize),
		onStop:  opts.OnStop,
		logger:  opts.Logger.Component("chat-service"),
		stopped: make(chan struct{}),
		closing: make(chan struct{}),
	}
}

// Submit queues a message. It blocks while the inbox is full.
func (s *Service) Submit(ctx context.Context, in Inbound) error {
	select {
	case <-s.stopped:
		return ErrStopped
	case <-s.closing:
		return ErrStopped
	default:
	}

	select {
	case s.inbox <- in:
		return nil
	case <-s.stopped:
		return ErrStopped
	case <-s.closing:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run handles queued messages until ctx is cancelled or a stop command is
// processed. A message being handled when ctx is cancelled completes.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("chat service started")
	defer s.logger.Info("chat service stopped")

	for {
		select {
		case <-ctx.Done():
			s.stop()
			return nil
		case <-s.stopped:
			return nil
		case <-s.closing:
			s.drain(ctx)
			return nil
		case in := <-s.inbox:
			if s.handleOrStop(ctx, in) {
				return nil
			}
		}
	}
}

// Close stops intake. Run handles the messages already queued and returns.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func (s *Service) drain(ctx context.Context) {
	defer s.stop()
	for {
		select {
		case in := <-s.inbox:
			if s.handleOrStop(ctx, in) {
				return
			}
		default:
			return
		}
	}
}

// handleOrStop handles in and reports whether it was a stop command.
func (s *Service) handleOrStop(ctx context.Context, in Inbound) bool {
	if !s.handle(ctx, in) {
		return false
	}
	s.stop()
	if s.onStop != nil {
		s.onStop()
	}
	return true
}

// Stopped is closed once the service no longer accepts messages.
func (s *Service) Stopped() <-chan struct{} {
	return s.stopped
}

func (s *Service) stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

func (s *Service) handle(ctx context.Context, in Inbound) bool {
	// In-flight handling is not interrupted by shutdown.
	hctx := context.WithoutCancel(ctx)

	resp := s.handler.Handle(hctx, in.UserID, in.Text)
	for _, text := range resp.Replies {
		if err := s.replier.Reply(hctx, in.UserID, text); err != nil {
			s.logger.WithUserID(in.UserID).Warn("failed to deliver reply", zap.Error(err))
		}
	}
	return resp.Stop
}
