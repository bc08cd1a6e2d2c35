// ABOUTME: Entry point for yopuedo-chat, the terminal client of YoPuedo360 conversations
// ABOUTME: Runs the interactive TUI by default and offers scriptable subcommands

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yopuedo360/yopuedo-chat/internal/backend"
	"github.com/yopuedo360/yopuedo-chat/internal/clipboard"
	"github.com/yopuedo360/yopuedo-chat/internal/config"
	"github.com/yopuedo360/yopuedo-chat/internal/identity"
	"github.com/yopuedo360/yopuedo-chat/internal/logging"
	"github.com/yopuedo360/yopuedo-chat/internal/session"
	"github.com/yopuedo360/yopuedo-chat/internal/speech"
	"github.com/yopuedo360/yopuedo-chat/internal/tui"
)

// Version is set at build time.
var version = "dev"

const configName = "config.yaml"

func usage() {
	fmt.Println("Usage: yopuedo-chat [command] [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  chat                          Open the interactive chat (default)")
	fmt.Println("  login --username U            Log in and store tokens")
	fmt.Println("  logout                        Forget stored tokens")
	fmt.Println("  whoami                        Show the logged in learner")
	fmt.Println("  friends                       List conversation partners")
	fmt.Println("  history --friend NAME         Print a conversation")
	fmt.Println("  send --friend NAME TEXT...    Send a message and print the reply")
	fmt.Println()
	fmt.Println("Every command accepts --config PATH (default $YOPUEDO_CONFIG or ~/.config/yopuedo/config.yaml).")
}

func main() {
	config.LoadDotEnv()

	command, args := "chat", os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch command {
	case "chat":
		err = runChat(ctx, args)
	case "login":
		err = runLogin(ctx, args)
	case "logout":
		err = runLogout(args)
	case "whoami":
		err = runWhoami(ctx, args)
	case "friends":
		err = runFriends(ctx, args)
	case "history":
		err = runHistory(ctx, args)
	case "send":
		err = runSend(ctx, args)
	case "version":
		fmt.Println(version)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app wires the client stack for one invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	logFile  *os.File
	creds    *identity.FileStore
	anon     *backend.Client
	tokens   *identity.TokenSource
	client   *backend.Client
	provider *identity.Provider
}

// newApp parses the shared flags on fs and builds the client stack. Logs go
// to a file because the terminal belongs to the command's output.
func newApp(fs *flag.FlagSet, args []string) (*app, error) {
	configFlag := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.LoadOrDefault(config.Path(*configFlag, configName))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateClient(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logPath := cfg.Logging.File
	if logPath == "" {
		logPath = config.StatePath("chat.log")
	}
	logFile, err := logging.OpenFile(logPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.Setup(cfg.Logging, logFile, false)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	credsPath := cfg.Client.CredentialsPath
	if credsPath == "" {
		credsPath, err = identity.DefaultPath()
		if err != nil {
			logFile.Close()
			return nil, err
		}
	}
	creds := identity.NewFileStore(credsPath)

	opts := backend.Options{Timeout: cfg.Client.Timeout, HistoryLimit: cfg.Client.HistoryLimit}
	anon := backend.New(cfg.Client.BaseURL, nil, opts, logger)
	tokens := identity.NewTokenSource(creds, anon, logger)
	client := backend.New(cfg.Client.BaseURL, tokens, opts, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		logFile:  logFile,
		creds:    creds,
		anon:     anon,
		tokens:   tokens,
		client:   client,
		provider: identity.NewProvider(client, logger),
	}, nil
}

func (a *app) Close() {
	a.logFile.Close()
}

// resolve fetches the learner and turns an auth failure into a login hint.
func (a *app) resolve(ctx context.Context) error {
	if _, err := a.provider.Resolve(ctx); err != nil {
		if errors.Is(err, identity.ErrNoCredentials) || errors.Is(err, identity.ErrSessionExpired) || errors.Is(err, backend.ErrUnauthorized) {
			return fmt.Errorf("%w (run yopuedo-chat login)", err)
		}
		return err
	}
	return nil
}

// newSession builds a session manager with speech and clipboard from config.
func (a *app) newSession() (*session.Manager, error) {
	mgr := session.New(a.client, a.provider, a.logger)

	if a.cfg.Speech.Enabled {
		sp, err := speech.NewCommandSpeaker(a.cfg.Speech.Command, a.cfg.Speech.Voices, a.logger)
		if err != nil {
			mgr.Close()
			return nil, fmt.Errorf("configuring speech: %w", err)
		}
		mgr.SetSpeaker(sp)
	}

	cb, err := clipboard.New(a.cfg.Clipboard.Mode, os.Stderr)
	if err != nil {
		mgr.Close()
		return nil, fmt.Errorf("configuring clipboard: %w", err)
	}
	mgr.SetClipboard(cb)
	return mgr, nil
}

func runChat(ctx context.Context, args []string) error {
	a, err := newApp(flag.NewFlagSet("chat", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.creds.Load(); err != nil && os.Getenv(identity.TokenEnv) == "" {
		return fmt.Errorf("%w (run yopuedo-chat login)", err)
	}

	mgr, err := a.newSession()
	if err != nil {
		return err
	}
	defer mgr.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.New(ctx, mgr, a.logger), tea.WithAltScreen(), tea.WithContext(ctx))

	// Identity resolves while the UI shows its loading state.
	resolveErr := make(chan error, 1)
	go func() {
		if err := a.resolve(ctx); err != nil {
			a.logger.Error("identity not resolved", "error", err)
			resolveErr <- err
			p.Quit()
			return
		}
		close(resolveErr)
		if err := mgr.LoadRoster(ctx); err != nil {
			a.logger.Warn("initial roster load failed", "error", err)
		}
	}()

	a.logger.Info("starting chat", "base_url", a.cfg.Client.BaseURL, "version", version)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running chat: %w", err)
	}

	select {
	case err, ok := <-resolveErr:
		if ok {
			return err
		}
	default:
	}
	return nil
}
