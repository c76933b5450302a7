package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/chat/workflow"
	apperrors "github.com/kandev/dbchat/internal/common/errors"
	"github.com/kandev/dbchat/internal/common/logger"
	"github.com/kandev/dbchat/internal/events"
	"github.com/kandev/dbchat/internal/events/bus"
)

const eventSource = "chat-service"

// BusReplier publishes replies on chat.reply.<user_id>.
type BusReplier struct {
	bus bus.EventBus
}

func NewBusReplier(eventBus bus.EventBus) *BusReplier {
	return &BusReplier{bus: eventBus}
}

func (r *BusReplier) Reply(ctx context.Context, userID, text string) error {
	ev := bus.NewEvent(events.ChatReplySent, eventSource, map[string]any{
		events.KeyUserID: userID,
		events.KeyText:   text,
	})
	return r.bus.Publish(ctx, events.ChatReplySubject(userID), ev)
}

// SubscribeInbound feeds chat.inbound events into the service.
func SubscribeInbound(eventBus bus.EventBus, svc *Service, log *logger.Logger) (bus.Subscription, error) {
	return eventBus.Subscribe(events.SubjectChatInbound, func(ctx context.Context, ev *bus.Event) error {
		in := Inbound{UserID: ev.String(events.KeyUserID), Text: ev.String(events.KeyText)}
		if in.UserID == "" {
			log.Warn("dropping inbound message without user id", zap.String("event_id", ev.ID))
			return nil
		}
		if err := svc.Submit(ctx, in); err != nil {
			return fmt.Errorf("submit inbound message: %w", err)
		}
		return nil
	})
}

// PublishInbound publishes a message for the service on chat.inbound.
func PublishInbound(ctx context.Context, eventBus bus.EventBus, source string, in Inbound) error {
	ev := bus.NewEvent(events.ChatMessageReceived, source, map[string]any{
		events.KeyUserID: in.UserID,
		events.KeyText:   in.Text,
	})
	return eventBus.Publish(ctx, events.SubjectChatInbound, ev)
}

// FinishPublisher returns a workflow.FinishFunc that publishes an audit event
// for every finished workflow.
func FinishPublisher(eventBus bus.EventBus, log *logger.Logger) workflow.FinishFunc {
	return func(ctx context.Context, f workflow.Finish) {
		subject, typ := events.SubjectWorkflowComplete, events.WorkflowCompleted
		if !f.Succeeded {
			subject, typ = events.SubjectWorkflowFailed, events.WorkflowFailed
		}
		data := map[string]any{
			events.KeyUserID:   f.UserID,
			events.KeyWorkflow: string(f.Kind),
			events.KeyStep:     string(f.Step),
		}
		if f.Err != nil {
			data[events.KeyError] = apperrors.Code(f.Err)
		}
		if err := eventBus.Publish(ctx, subject, bus.NewEvent(typ, eventSource, data)); err != nil {
			log.Warn("failed to publish workflow event", zap.String("subject", subject), zap.Error(err))
		}
	}
}
