package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kandev/dbchat/internal/chat"
	"github.com/kandev/dbchat/internal/common/config"
	"github.com/kandev/dbchat/internal/common/logger"
)

var consoleUser string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the bot on the terminal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadRuntime(v, cfgFile, true)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runConsole(ctx, cfg, log, cmd.InOrStdin(), cmd.OutOrStdout(), consoleUser)
	},
}

func init() {
	consoleCmd.Flags().StringVar(&consoleUser, "user", "console", "user id the typed lines are sent as")
}

// consoleReplier prints replies for the single console operator.
type consoleReplier struct {
	out  io.Writer
	name *color.Color
	text *color.Color
}

func newConsoleReplier(out io.Writer) *consoleReplier {
	return &consoleReplier{
		out:  out,
		name: color.New(color.FgCyan, color.Bold),
		text: color.New(color.FgWhite),
	}
}

func (r *consoleReplier) Reply(_ context.Context, _ string, text string) error {
	if _, err := r.name.Fprint(r.out, serviceName+": "); err != nil {
		return err
	}
	_, err := r.text.Fprintln(r.out, text)
	return err
}

// runConsole feeds lines from in to the chat service until EOF, a stop command
// or ctx is done.
func runConsole(ctx context.Context, cfg *config.Config, log *logger.Logger, in io.Reader, out io.Writer, userID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eventBus, cleanupBus, err := provideEventBus(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = cleanupBus() }()

	core, err := provideChat(cfg, log, eventBus, newConsoleReplier(out), cancel)
	if err != nil {
		return err
	}
	defer core.close()

	_, _ = fmt.Fprintf(out, "%s type %s for the command list, Ctrl-D to quit\n",
		color.GreenString(serviceName+" console:"), cfg.Chat.CommandPrefix+"help")

	// The scanner cannot be interrupted, so the reader is not waited for.
	go func() {
		defer core.service.Close()
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if err := core.service.Submit(ctx, chat.Inbound{UserID: userID, Text: scanner.Text()}); err != nil {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Warn("Failed to read console input", zap.Error(err))
		}
	}()

	return core.service.Run(ctx)
}
