// Package workflow drives the per-user multi-step conversations that build and
// run SQL statements.
package workflow

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/chat/messages"
	"github.com/kandev/dbchat/internal/chat/session"
	apperrors "github.com/kandev/dbchat/internal/common/errors"
	"github.com/kandev/dbchat/internal/common/logger"
	"github.com/kandev/dbchat/internal/common/tracing"
	"github.com/kandev/dbchat/internal/db"
)

// Options configure an Engine. Zero values fall back to defaults.
type Options struct {
	CommandPrefix string
	BotName       string
	Messages      *messages.Catalog
	Logger        *logger.Logger
	OnFinish      FinishFunc
}

// Engine dispatches inbound messages to commands or to the sender's active
// workflow step.
type Engine struct {
	store    *session.Store
	tracker  *session.Tracker
	db       Database
	msgs     *messages.Catalog
	prefix   string
	botName  string
	logger   *logger.Logger
	onFinish FinishFunc
	defs     map[Kind]*Definition
}

// New creates an engine with the six built-in workflows registered.
func New(store *session.Store, tracker *session.Tracker, database Database, opts Options) *Engine {
	if opts.CommandPrefix == "" {
		opts.CommandPrefix = "/"
	}
	if opts.Messages == nil {
		opts.Messages = messages.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	e := &Engine{
		store:    store,
		tracker:  tracker,
		db:       database,
		msgs:     opts.Messages,
		prefix:   opts.CommandPrefix,
		botName:  opts.BotName,
		logger:   opts.Logger.Component("workflow-engine"),
		onFinish: opts.OnFinish,
		defs:     make(map[Kind]*Definition),
	}
	for _, def := range []*Definition{
		e.connectWorkflow(),
		e.createTableWorkflow(),
		e.alterTableWorkflow(),
		e.insertWorkflow(),
		e.selectWorkflow(),
		e.updateWorkflow(),
	} {
		e.defs[def.Kind] = def
	}
	return e
}

// Definition returns the registered workflow for kind.
func (e *Engine) Definition(kind Kind) (*Definition, bool) {
	def, ok := e.defs[kind]
	return def, ok
}

// Handle processes one message from userID.
func (e *Engine) Handle(ctx context.Context, userID, text string) Response {
	if cmd, ok := ParseCommand(e.prefix, e.botName, text); ok {
		if resp, handled := e.handleCommand(ctx, userID, cmd); handled {
			return resp
		}
	}

	sess, ok := e.store.Get(userID)
	if !ok {
		return Response{}
	}
	return e.step(ctx, sess, text)
}

// handleCommand runs a recognized command. An unknown command is handled
// only when the user has no session; otherwise it is step input.
func (e *Engine) handleCommand(ctx context.Context, userID string, cmd Command) (Response, bool) {
	switch cmd.Name {
	case CommandStart:
		return e.reply("welcome", nil), true
	case CommandHelp:
		return e.reply("help", nil), true
	case CommandCancel:
		sess, ok := e.store.Get(userID)
		if !ok || !e.store.End(userID) {
			return e.reply("nothing_to_cancel", nil), true
		}
		e.logger.WithUserID(userID).WithWorkflow(sess.Kind, sess.Step).Info("workflow cancelled")
		return e.reply("cancelled", messages.Data{"Workflow": sess.Kind}), true
	case CommandStop:
		e.store.End(userID)
		e.logger.WithUserID(userID).Info("stop requested")
		resp := e.reply("stopping", nil)
		resp.Stop = true
		return resp, true
	}

	def, ok := e.defs[Kind(cmd.Name)]
	if !ok {
		if _, active := e.store.Get(userID); active {
			return Response{}, false
		}
		return e.reply("unknown_command", nil), true
	}
	return e.begin(ctx, userID, def), true
}

func (e *Engine) begin(_ context.Context, userID string, def *Definition) Response {
	if def.RequiresConnection && !e.connected(userID) {
		// A new command replaces the current workflow even when it cannot start.
		e.store.End(userID)
		return e.reply("connect_first", nil)
	}
	e.store.Begin(userID, string(def.Kind), string(def.First))
	e.logger.WithUserID(userID).WithWorkflow(string(def.Kind), string(def.First)).Debug("workflow started")
	return e.reply(def.Prompt, nil)
}

func (e *Engine) connected(userID string) bool {
	return e.tracker.IsConnected(userID) && e.db.Connected()
}

func (e *Engine) step(ctx context.Context, sess session.Session, text string) Response {
	log := e.logger.WithUserID(sess.UserID).WithWorkflow(sess.Kind, sess.Step)

	def, ok := e.defs[Kind(sess.Kind)]
	var handler StepHandler
	if ok {
		handler, ok = def.Steps[StepID(sess.Step)]
	}
	if !ok {
		log.Error("no handler for session step, discarding session")
		e.store.End(sess.UserID)
		return Response{}
	}

	ctx, span := tracing.TraceStep(ctx, sess.UserID, sess.Kind, sess.Step)
	defer span.End()

	out := handler(ctx, StepInput{UserID: sess.UserID, Text: text, Session: sess})
	tracing.RecordResult(span, string(out.Kind), out.Err)

	switch out.Kind {
	case OutcomeReprompt:
		log.Debug("step input rejected", logger.StepInput(sess.Step, text))
	case OutcomeAdvance:
		if err := e.store.Advance(sess.UserID, string(out.Next), out.Field, out.Value); err != nil {
			// The session vanished between Get and Advance.
			log.Warn("failed to advance session", zap.Error(err))
			return Response{}
		}
	case OutcomeSucceed:
		e.store.End(sess.UserID)
		log.Info("workflow completed")
		e.finish(ctx, sess, true, nil)
	case OutcomeFail:
		e.store.End(sess.UserID)
		log.Warn("workflow failed",
			zap.Error(out.Err),
			zap.String("error_code", apperrors.Code(out.Err)),
			zap.String("driver_code", db.DriverErrorCode(out.Err)))
		e.finish(ctx, sess, false, out.Err)
	}

	if out.Reply == "" {
		return Response{}
	}
	return Response{Replies: []string{out.Reply}}
}

func (e *Engine) finish(ctx context.Context, sess session.Session, ok bool, err error) {
	if e.onFinish == nil {
		return
	}
	e.onFinish(ctx, Finish{
		UserID:    sess.UserID,
		Kind:      Kind(sess.Kind),
		Step:      StepID(sess.Step),
		Succeeded: ok,
		Err:       err,
	})
}

func (e *Engine) reply(key string, data messages.Data) Response {
	return Response{Replies: []string{e.render(key, data)}}
}

// render adds the command prefix to every message's data.
func (e *Engine) render(key string, data messages.Data) string {
	if data == nil {
		data = messages.Data{}
	}
	if _, ok := data["Prefix"]; !ok {
		data["Prefix"] = e.prefix
	}
	return e.msgs.Render(key, data)
}

func trimmed(in StepInput) string {
	return strings.TrimSpace(in.Text)
}
