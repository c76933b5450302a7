package workflow

import (
	"context"

	"github.com/kandev/dbchat/internal/chat/session"
	"github.com/kandev/dbchat/internal/db"
)

// Kind identifies a workflow. Its value is also the command that starts it.
type Kind string

const (
	KindConnect     Kind = "connect"
	KindCreateTable Kind = "create_table"
	KindAlterTable  Kind = "alter_table"
	KindInsert      Kind = "insert"
	KindSelect      Kind = "select"
	KindUpdate      Kind = "update"
)

// StepID identifies a step within a workflow.
type StepID string

// OutcomeKind is what a step handler decided to do with its input.
type OutcomeKind string

const (
	// OutcomeReprompt keeps the session unchanged and explains the problem.
	OutcomeReprompt OutcomeKind = "reprompt"
	// OutcomeAdvance stores a field and moves to the next step.
	OutcomeAdvance OutcomeKind = "advance"
	// OutcomeSucceed ends the session after the terminal statement ran.
	OutcomeSucceed OutcomeKind = "succeed"
	// OutcomeFail ends the session after a gateway error or missing object.
	OutcomeFail OutcomeKind = "fail"
)

// Outcome is returned by every step handler.
type Outcome struct {
	Kind  OutcomeKind
	Reply string
	Next  StepID
	Field string
	Value any
	Err   error
}

// StepInput is what a step handler sees: the raw text and the session it
// belongs to.
type StepInput struct {
	UserID  string
	Text    string
	Session session.Session
}

// StepHandler validates one message and decides the outcome.
type StepHandler func(ctx context.Context, in StepInput) Outcome

// Definition is the immutable step graph of one workflow kind.
type Definition struct {
	Kind               Kind
	First              StepID
	Prompt             string // message key of the first prompt
	RequiresConnection bool
	Steps              map[StepID]StepHandler
}

// Database is the subset of the gateway the workflows use.
type Database interface {
	Connect(ctx context.Context, p db.ConnParams) error
	Connected() bool
	Execute(ctx context.Context, stmt string, args ...any) (int64, error)
	Fetch(ctx context.Context, stmt string, args ...any) (*db.Result, error)
	Columns(ctx context.Context, table string) ([]db.Column, error)
	DistinctValues(ctx context.Context, table, column string) ([]any, error)
	ColumnType(ctx context.Context, table, column string) (string, error)
}

// Response is what the engine wants sent back for one inbound message.
type Response struct {
	Replies []string
	// Stop asks the caller to shut the bot down after delivering Replies.
	Stop bool
}

// Finish describes a workflow that just ended.
type Finish struct {
	UserID    string
	Kind      Kind
	Step      StepID
	Succeeded bool
	Err       error
}

// FinishFunc observes finished workflows.
type FinishFunc func(ctx context.Context, f Finish)

func reprompt(reply string) Outcome {
	return Outcome{Kind: OutcomeReprompt, Reply: reply}
}

func advance(next StepID, field string, value any, reply string) Outcome {
	return Outcome{Kind: OutcomeAdvance, Next: next, Field: field, Value: value, Reply: reply}
}

func succeed(reply string) Outcome {
	return Outcome{Kind: OutcomeSucceed, Reply: reply}
}

func fail(reply string, err error) Outcome {
	return Outcome{Kind: OutcomeFail, Reply: reply, Err: err}
}
