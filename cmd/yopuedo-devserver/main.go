// ABOUTME: Entry point for yopuedo-devserver, the local conversation backend
// ABOUTME: Serves the REST API over SQLite and provisions demo accounts

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/yopuedo360/yopuedo-chat/internal/api"
	"github.com/yopuedo360/yopuedo-chat/internal/auth"
	"github.com/yopuedo360/yopuedo-chat/internal/config"
	"github.com/yopuedo360/yopuedo-chat/internal/logging"
	"github.com/yopuedo360/yopuedo-chat/internal/store"
)

// Version is set at build time.
var version = "dev"

const configName = "devserver.yaml"

const banner = `
                                    _
 _   _  ___  _ __  _   _  ___  __| | ___
| | | |/ _ \| '_ \| | | |/ _ \/ _' |/ _ \
| |_| | (_) | |_) | |_| |  __/ (_| | (_) |
 \__, |\___/| .__/ \__,_|\___|\__,_|\___/
 |___/      |_|                 devserver
`

func main() {
	config.LoadDotEnv()

	if len(os.Args) < 2 {
		fmt.Println("Usage: yopuedo-devserver <command> [flags]")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                              Start the development backend")
		fmt.Println("  init                               Create a config file with a random JWT secret")
		fmt.Println("  seed --username U --password P     Create a learner with the starter partners")
		fmt.Println("  token --username U                 Print an access token for a learner")
		fmt.Println("  health                             Check server health")
		fmt.Println()
		fmt.Println("Every command accepts --config PATH (default $YOPUEDO_CONFIG or ~/.config/yopuedo/devserver.yaml).")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, args)
	case "init":
		err = runInit(args)
	case "seed":
		err = runSeed(ctx, args)
	case "token":
		err = runToken(ctx, args)
	case "health":
		err = runHealth(ctx, args)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig parses the shared --config flag plus any extra flags the
// command registered on fs.
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, string, error) {
	configFlag := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	path := config.Path(*configFlag, configName)
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address (overrides server.http_addr)")
	cfg, configPath, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.HTTPAddr = *addr
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret not configured in %s (run yopuedo-devserver init)", configPath)
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	logger, err := logging.Setup(cfg.Logging, os.Stdout, true)
	if err != nil {
		return err
	}

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      http://%s%s\n", cfg.Server.HTTPAddr, api.Prefix)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   http://%s%s\n", cfg.Server.HTTPAddr, cfg.Metrics.Path)
	}
	if cfg.Limits.RPS > 0 {
		yellow.Printf("    rate limit: %.1f req/s, burst %d\n", cfg.Limits.RPS, cfg.Limits.Burst)
	}
	fmt.Println()

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	srv, err := api.New(cfg, st, logger)
	if err != nil {
		st.Close()
		return fmt.Errorf("creating server: %w", err)
	}

	logger.Info("starting yopuedo-devserver",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"database", cfg.Database.Path,
	)
	return srv.Run(ctx)
}

func runSeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "password")
	email := fs.String("email", "", "email address")
	native := fs.String("native", "", "native language (default es)")
	target := fs.String("target", "", "language being learned (default en)")
	level := fs.String("level", "", "CEFR level (default A2)")
	cfg, _, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(*username)
	if name == "" || *password == "" {
		return fmt.Errorf("--username and --password are required")
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	user, err := api.Provision(ctx, st, api.Account{
		Username:       name,
		Password:       *password,
		Email:          *email,
		NativeLanguage: *native,
		TargetLanguage: *target,
		Level:          *level,
	}, time.Now().UTC())
	if err != nil {
		return err
	}

	partners, err := st.ListPartners(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("listing partners: %w", err)
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	green.Printf("  ✓ Created learner %s (%s)\n", user.Username, user.ID)
	fmt.Printf("    %s → %s, level %s\n", user.NativeLanguage, user.TargetLanguage, user.CEFRLevel)
	fmt.Println()
	cyan.Println("  Conversation partners")
	cyan.Println("  ---------------------")
	for _, p := range partners {
		fmt.Printf("  %s %-6s %-20s unread %d\n", p.Avatar, p.Name, p.Role, p.UnreadCount)
	}
	fmt.Println()
	return nil
}

func runToken(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	username := fs.String("username", "", "login name")
	cfg, _, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("--username is required")
	}
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	user, err := st.GetUserByUsername(ctx, *username)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", *username, err)
	}

	issuer := auth.NewJWTIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	token, err := issuer.Generate(user.ID, auth.TokenAccess)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}
	fmt.Println(token)
	return nil
}

func runHealth(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	cfg, _, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configFlag := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	outputFile := config.Path(*configFlag, configName)

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("yopuedo-devserver configuration setup")
	fmt.Println("=====================================")
	fmt.Println()

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, fmt.Sprintf("%s exists. Overwrite?", outputFile), "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	defaultDB := filepath.Join(filepath.Dir(config.StatePath(configName)), "devserver.db")
	httpAddr := prompt(reader, "HTTP address", config.Default().Server.HTTPAddr)
	dbPath := prompt(reader, "SQLite database path", defaultDB)
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")
	metrics := isYes(prompt(reader, "Expose Prometheus metrics?", "yes"))

	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return fmt.Errorf("generating JWT secret: %w", err)
	}
	secret := base64.StdEncoding.EncodeToString(secretBytes)

	var cfg strings.Builder
	cfg.WriteString("# yopuedo-devserver configuration\n")
	cfg.WriteString("# Generated by yopuedo-devserver init\n\n")
	fmt.Fprintf(&cfg, "server:\n  http_addr: %q\n\n", httpAddr)
	fmt.Fprintf(&cfg, "database:\n  path: %q\n\n", dbPath)
	fmt.Fprintf(&cfg, "auth:\n  jwt_secret: %q\n  access_ttl: \"15m\"\n  refresh_ttl: \"720h\"\n\n", secret)
	cfg.WriteString("limits:\n  rps: 5\n  burst: 10\n\n")
	cfg.WriteString("dedupe:\n  ttl: \"10m\"\n  max_size: 10000\n\n")
	fmt.Fprintf(&cfg, "metrics:\n  enabled: %t\n  path: \"/metrics\"\n\n", metrics)
	fmt.Fprintf(&cfg, "logging:\n  level: %q\n  format: %q\n", logLevel, logFormat)

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	green.Printf("\n  ✓ Config written to %s\n\n", outputFile)
	yellow.Println("  Next:")
	fmt.Println("    yopuedo-devserver seed --username ana --password secret")
	fmt.Println("    yopuedo-devserver serve")
	fmt.Println()
	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

func isYes(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}
