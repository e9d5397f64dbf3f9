package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/clients/signingClient"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/history"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/logger"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/notify"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence/factory"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/session"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
)

// runtime holds everything a command needs. Close releases the persistence backend.
type runtime struct {
	logger  *zap.Logger
	store   persistence.ISlotPersistence
	history *history.HistoryStore
	client  *signingClient.Client
	sink    notify.INotificationSink
	out     io.Writer
}

// newRuntime wires config, logger, persistence, client and sinks from the CLI context
func newRuntime(c *cli.Context) (*runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	zapLogger, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := factory.NewSlotPersistence(cfg, zapLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to open history storage: %w", err)
	}

	hs, err := history.NewHistoryStore(&history.Config{
		Slot:        cfg.HistorySlot,
		Persistence: store,
		Logger:      zapLogger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create history store: %w", err)
	}

	client, err := signingClient.NewClient(&signingClient.Config{
		BaseURL:           cfg.SignerURL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RateLimit,
	}, zapLogger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create signing client: %w", err)
	}

	out := c.App.Writer
	return &runtime{
		logger:  zapLogger,
		store:   store,
		history: hs,
		client:  client,
		sink:    notify.MultiSink{notify.NewConsoleSink(out), notify.NewLoggerSink(zapLogger)},
		out:     out,
	}, nil
}

func (r *runtime) newSession(ctx context.Context) (*session.SessionState, error) {
	return session.NewSessionState(ctx, &session.Config{
		Client:  r.client,
		History: r.history,
		Sink:    r.sink,
		Logger:  r.logger,
	})
}

func (r *runtime) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.Sugar().Warnw("Failed to close history storage", "error", err)
	}
	_ = r.logger.Sync()
}

// signCommand handles the sign subcommand
func signCommand(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	s, err := rt.newSession(c.Context)
	if err != nil {
		return err
	}
	if err := s.SetMessage(c.String("message")); err != nil {
		return err
	}

	err = s.Sign(c.Context)
	if _, ok := s.Signature(); ok {
		renderSnapshot(rt.out, s.Snapshot())
	}
	return err
}

// verifyCommand checks an arbitrary message/signature pair
func verifyCommand(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	message := c.String("message")
	if err := types.ValidateMessage(message); err != nil {
		return err
	}

	valid, err := rt.client.Verify(c.Context, types.Message(message), types.Signature(c.String("signature")))
	if err != nil {
		rt.sink.Notify(notify.NewEvent(notify.KindVerifyFailure, notify.TextVerifyFailed, err))
		return err
	}

	if valid {
		rt.sink.Notify(notify.NewEvent(notify.KindVerifyValid, notify.TextValid, nil))
	} else {
		rt.sink.Notify(notify.NewEvent(notify.KindVerifyInvalid, notify.TextInvalid, nil))
	}
	return nil
}

// historyCommand prints the persisted history
func historyCommand(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	entries, err := rt.history.Load(c.Context)
	if err != nil {
		return err
	}
	renderHistory(rt.out, entries)
	return nil
}

// clearHistoryCommand deletes the persisted history
func clearHistoryCommand(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	s, err := rt.newSession(c.Context)
	if err != nil {
		return err
	}
	return s.ClearHistory(c.Context)
}

// interactiveCommand runs a line-oriented session until quit or end of input
func interactiveCommand(c *cli.Context) error {
	rt, err := newRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	s, err := rt.newSession(c.Context)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(rt.out, "✍️  Signing session started. Type 'help' for commands.")
	// lines are unbounded so an oversized paste reaches message validation
	reader := bufio.NewReader(c.App.Reader)
	for {
		_, _ = fmt.Fprint(rt.out, "> ")
		line, err := reader.ReadString('\n')
		if line != "" {
			if quit := runLine(c.Context, rt.out, s, strings.TrimRight(line, "\r\n")); quit {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
	}
}

// runLine executes one interactive command and reports whether the session should end.
// Operation errors have already been reported through the sink, so they are only
// printed here when the sink does not cover them.
func runLine(ctx context.Context, out io.Writer, s *session.SessionState, line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	switch cmd {
	case "":
	case "msg", "message":
		if err := s.SetMessage(arg); err != nil {
			_, _ = fmt.Fprintf(out, "❌ %v\n", err)
			return false
		}
		_, _ = fmt.Fprintf(out, "Message set (%d/%d characters)\n", s.Message().Len(), types.MaxMessageLength)
	case "sign":
		if err := s.Sign(ctx); err == nil || types.IsPersistenceError(err) {
			renderSnapshot(out, s.Snapshot())
		}
	case "verify":
		_ = s.Verify(ctx)
	case "copy":
		if err := s.CopySignature(out); err != nil {
			_, _ = fmt.Fprintf(out, "❌ %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(out)
	case "show":
		renderSnapshot(out, s.Snapshot())
	case "clear":
		s.Clear()
	case "history":
		renderHistory(out, s.History())
	case "clear-history":
		_ = s.ClearHistory(ctx)
	case "help":
		renderHelp(out)
	case "quit", "exit":
		return true
	default:
		_, _ = fmt.Fprintf(out, "Unknown command %q. Type 'help' for commands.\n", cmd)
	}
	return false
}

func renderSnapshot(out io.Writer, snap session.Snapshot) {
	_, _ = fmt.Fprintf(out, "Message:      %s\n", snap.Message)
	if snap.HasSignature {
		_, _ = fmt.Fprintf(out, "Signature:    %s\n", snap.Signature)
	} else {
		_, _ = fmt.Fprintln(out, "Signature:    (none)")
	}
	if snap.HasTimestamp {
		_, _ = fmt.Fprintf(out, "Signed at:    %s\n", snap.Timestamp)
	}
	_, _ = fmt.Fprintf(out, "Verification: %s\n", snap.Verification)
}

func renderHistory(out io.Writer, entries types.History) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No signing history yet")
		return
	}
	_, _ = fmt.Fprintf(out, "📜 Signing history (%d)\n", len(entries))
	for i, e := range entries {
		_, _ = fmt.Fprintf(out, "%d. [%s] %s\n   %s\n", i+1, e.Timestamp, e.Message, e.Signature)
	}
}

func renderHelp(out io.Writer) {
	_, _ = fmt.Fprint(out, `Commands:
  msg <text>      set the message (at most 300 characters)
  sign            sign the current message
  verify          verify the current signature against the current message
  copy            print the current signature
  show            show the session
  clear           reset the session (history is kept)
  history         list signed messages
  clear-history   delete the history
  help            show this help
  quit            end the session
`)
}
