package websocket

import (
	"context"
	"sort"
)

// Handler answers one request message. A nil message means no response.
type Handler interface {
	Handle(ctx context.Context, msg *Message) (*Message, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) (*Message, error)

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) (*Message, error) {
	return f(ctx, msg)
}

// Dispatcher routes client requests to handlers by action. Registration
// happens before the gateway serves connections.
type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(action string, h Handler) {
	d.handlers[action] = h
}

func (d *Dispatcher) RegisterFunc(action string, fn HandlerFunc) {
	d.Register(action, fn)
}

// Actions lists the registered actions in order.
func (d *Dispatcher) Actions() []string {
	actions := make([]string, 0, len(d.handlers))
	for a := range d.handlers {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

// Dispatch runs the handler for msg.Action. Only requests are dispatched;
// anything else, or an unknown action, is answered with an error message.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) (*Message, error) {
	if msg.Type != "" && msg.Type != MessageTypeRequest {
		return NewError(msg.ID, msg.Action, ErrorCodeBadRequest, "only requests are accepted, got "+string(msg.Type), nil)
	}
	h, ok := d.handlers[msg.Action]
	if !ok {
		return NewError(msg.ID, msg.Action, ErrorCodeUnknownAction, "Unknown action: "+msg.Action, nil)
	}
	return h.Handle(ctx, msg)
}
