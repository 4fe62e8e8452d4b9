package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/canteen/config"
	"github.com/shashiranjanraj/canteen/internal/client"
	"github.com/shashiranjanraj/canteen/pkg/account"
	"github.com/shashiranjanraj/canteen/pkg/event"
	"github.com/shashiranjanraj/canteen/pkg/gateway"
	"github.com/shashiranjanraj/canteen/pkg/logger"
)

// quietLogs keeps stderr for toasts unless --verbose is set.
func quietLogs(verbose bool) {
	if verbose {
		logger.SetOutput(logger.New(os.Stderr, config.IsProduction()))
		return
	}
	logger.SetOutput(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

// printer turns bus events into terminal output.
func printer(out io.Writer, bus *event.Bus) {
	bus.Listen(event.Notify, func(p interface{}) {
		t, ok := p.(event.Toast)
		if !ok {
			return
		}
		switch t.Level {
		case event.Error:
			fmt.Fprintln(out, "✗", t.Message)
		case event.Success:
			fmt.Fprintln(out, "✓", t.Message)
		default:
			fmt.Fprintln(out, "•", t.Message)
		}
	})
	bus.Listen(event.LoginRequired, func(interface{}) {
		fmt.Fprintln(out, "→ run `canteen login` to sign in again")
	})
}

// withClient loads config, opens a client for the duration of fn and closes
// it afterwards. Ctrl+C cancels the context handed to fn.
func withClient(fn func(ctx context.Context, cmd *cobra.Command, c *client.Client, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		bus := event.NewBus()
		printer(cmd.ErrOrStderr(), bus)
		opts := client.FromConfig()
		opts.Bus = bus

		c, err := client.New(ctx, opts)
		if err != nil {
			return err
		}
		runErr := fn(ctx, cmd, c, args)
		return errors.Join(describe(runErr), c.Close(context.Background()))
	}
}

// shownError is a gateway failure the user has already seen as a toast.
// report skips it so each failure reaches the terminal once.
type shownError struct{ err error }

func (e shownError) Error() string { return gateway.Message(e.err) }
func (e shownError) Unwrap() error { return e.err }

// describe marks announced gateway failures. A refused login keeps its own
// line since the toast only says to log in.
func describe(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, account.ErrBadCredentials) {
		return errors.New("wrong username or password")
	}
	if _, ok := gateway.KindOf(err); ok {
		return shownError{err: err}
	}
	return err
}

// report prints every part of err that was not already shown as a toast.
func report(w io.Writer, err error) {
	errs := []error{err}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		errs = j.Unwrap()
	}
	for _, e := range errs {
		var shown shownError
		if errors.As(e, &shown) {
			continue
		}
		fmt.Fprintln(w, e)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
