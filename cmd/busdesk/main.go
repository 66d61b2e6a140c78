package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/naveenspark/busdesk/internal/config"
	"github.com/naveenspark/busdesk/internal/log"
	"github.com/naveenspark/busdesk/internal/metrics"
	"github.com/naveenspark/busdesk/internal/session"
	"github.com/naveenspark/busdesk/internal/store"
	"github.com/naveenspark/busdesk/internal/tui"
	"github.com/naveenspark/busdesk/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app is everything a command needs, wired from the config.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	sess   *session.Store
	stores *store.Stores
	close  func()
}

func run(args []string, in io.Reader, out io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Fprintln(out, "busdesk "+version)
			return nil
		case "help", "--help", "-h":
			printHelp(out)
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a, err := setup(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	if len(args) == 0 {
		return a.runTUI(ctx)
	}
	switch args[0] {
	case "login":
		return a.runLogin(ctx, args[1:], in, out)
	case "register":
		return a.runRegister(ctx, args[1:], in, out)
	case "logout":
		return a.runLogout(ctx, out)
	case "check":
		return a.runCheck(ctx, args[1:], out)
	}
	return fmt.Errorf("unknown command %q, see busdesk help", args[0])
}

// setup opens the log file, builds the metrics registry and wires the API
// client, the session and the caches together.
func setup(cfg *config.Config) (*app, error) {
	logFile, err := log.OpenFile(cfg.Log.File)
	if err != nil {
		return nil, err
	}
	logger := log.New(cfg.Environment, cfg.Log.Level, logFile, false)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	storage := session.WithOverride(session.FileStorage{Path: cfg.Token.File}, cfg.Token.Value)
	c := client.New(cfg.API.URL, nil,
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(logger),
		client.WithMetrics(m),
	)
	sess := session.New(c, storage, session.WithLogger(logger), session.WithMetrics(m))
	c.SetTokenSource(sess)
	c.SetRefresher(sess)

	closers := []func(){func() { logFile.Close() }} //nolint:errcheck
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler(reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("metrics server stopped")
			}
		}()
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
		closers = append([]func(){func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx) //nolint:errcheck
		}}, closers...)
	}

	logger.Debug().Str("api", cfg.API.URL).Msg("starting")
	return &app{
		cfg:    cfg,
		log:    logger,
		sess:   sess,
		stores: store.New(c, logger),
		close: func() {
			for _, fn := range closers {
				fn()
			}
		},
	}, nil
}

// runTUI restores the stored session and opens the console. Without a
// usable session the console starts on the login screen.
func (a *app) runTUI(ctx context.Context) error {
	if err := a.sess.Restore(); err != nil {
		a.log.Warn().Err(err).Msg("restore session")
	}
	if a.sess.Token() != "" {
		if err := a.sess.Refresh(ctx); err != nil {
			a.log.Info().Err(err).Msg("stored session not renewed")
		}
	}

	p := tea.NewProgram(tui.NewApp(a.sess, a.stores, version), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func (a *app) runLogin(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	r := bufio.NewReader(in)
	email, err := argOrPrompt(args, 0, "email", r, out)
	if err != nil {
		return err
	}
	password, err := prompt("password", r, out)
	if err != nil {
		return err
	}
	if err := a.sess.Login(ctx, email, password); err != nil {
		return authError(a.sess, err)
	}
	fmt.Fprintf(out, "Signed in as %s\n", a.sess.Identity().Name)
	return nil
}

func (a *app) runRegister(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	r := bufio.NewReader(in)
	email, err := argOrPrompt(args, 0, "email", r, out)
	if err != nil {
		return err
	}
	name, err := argOrPrompt(args, 1, "name", r, out)
	if err != nil {
		return err
	}
	password, err := prompt("password", r, out)
	if err != nil {
		return err
	}
	if err := a.sess.Register(ctx, email, name, password); err != nil {
		return authError(a.sess, err)
	}
	fmt.Fprintf(out, "Registered and signed in as %s\n", a.sess.Identity().Name)
	return nil
}

func (a *app) runLogout(ctx context.Context, out io.Writer) error {
	if err := a.sess.Restore(); err != nil {
		return err
	}
	if err := a.sess.Logout(ctx); err != nil {
		fmt.Fprintln(out, "Logged out locally; the server did not confirm.")
		a.log.Warn().Err(err).Msg("logout")
		return nil
	}
	fmt.Fprintln(out, "Logged out.")
	return nil
}

func (a *app) runCheck(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: busdesk check <email>")
	}
	exists, err := a.sess.CheckUserExists(ctx, args[0])
	if err != nil {
		return err
	}
	if exists {
		fmt.Fprintf(out, "%s has an account\n", args[0])
	} else {
		fmt.Fprintf(out, "no account for %s\n", args[0])
	}
	return nil
}

// authError prefers the session's message for the user over the raw error.
func authError(sess *session.Store, err error) error {
	if msg := sess.LastError(); msg != "" {
		return errors.New(msg)
	}
	return err
}

func argOrPrompt(args []string, i int, label string, r *bufio.Reader, out io.Writer) (string, error) {
	if i < len(args) && strings.TrimSpace(args[i]) != "" {
		return strings.TrimSpace(args[i]), nil
	}
	return prompt(label, r, out)
}

func prompt(label string, r *bufio.Reader, out io.Writer) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	return line, nil
}
