package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/kandev/dbchat/internal/chat/messages"
	"github.com/kandev/dbchat/internal/chat/session"
	"github.com/kandev/dbchat/internal/db"
)

const (
	stepConnectUser     StepID = "user"
	stepConnectPassword StepID = "password"
	stepConnectDatabase StepID = "database"
	stepConnectHost     StepID = "host"
	stepConnectPort     StepID = "port"
)

// connectWorkflow collects connection parameters verbatim; the gateway is the
// only judge of whether they work.
func (e *Engine) connectWorkflow() *Definition {
	collect := func(field string, next StepID, prompt string) StepHandler {
		return func(_ context.Context, in StepInput) Outcome {
			return advance(next, field, strings.TrimSpace(in.Text), e.render(prompt, nil))
		}
	}
	return &Definition{
		Kind:   KindConnect,
		First:  stepConnectUser,
		Prompt: "connect.user",
		Steps: map[StepID]StepHandler{
			stepConnectUser:     collect(fieldUser, stepConnectPassword, "connect.password"),
			stepConnectPassword: e.connectPassword,
			stepConnectDatabase: collect(fieldDatabase, stepConnectHost, "connect.host"),
			stepConnectHost:     collect(fieldHost, stepConnectPort, "connect.port"),
			stepConnectPort:     e.connectPort,
		},
	}
}

// Passwords keep surrounding whitespace.
func (e *Engine) connectPassword(_ context.Context, in StepInput) Outcome {
	return advance(stepConnectDatabase, fieldPassword, in.Text, e.render("connect.database", nil))
}

func (e *Engine) connectPort(ctx context.Context, in StepInput) Outcome {
	params := db.ConnParams{
		User:     stringField(in, fieldUser),
		Password: stringField(in, fieldPassword),
		Database: stringField(in, fieldDatabase),
		Host:     stringField(in, fieldHost),
		Port:     trimmed(in),
	}

	if err := e.db.Connect(ctx, params); err != nil {
		e.tracker.Forget(in.UserID)
		return fail(e.render("connect.failure", nil), err)
	}

	e.tracker.MarkConnected(in.UserID, session.Connection{
		Database:    params.Database,
		Host:        params.Host,
		Port:        params.Port,
		User:        params.User,
		ConnectedAt: time.Now(),
	})
	return succeed(e.render("connect.success", messages.Data{"Database": params.Database}))
}
