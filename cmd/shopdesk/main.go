// ABOUTME: Entry point for shopdesk, the shop admin console and customer chat server
// ABOUTME: Provides serve, init, health, and version commands

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/shopdesk/internal/config"
	"github.com/2389/shopdesk/internal/server"
)

// Version is set at build time.
var version = "dev"

const banner = `
     _                     _           _
 ___| |__   ___  _ __   __| | ___  ___| | __
/ __| '_ \ / _ \| '_ \ / _' |/ _ \/ __| |/ /
\__ \ | | | (_) | |_) | (_| |  __/\__ \   <
|___/_| |_|\___/| .__/ \__,_|\___||___/_|\_\
                |_|
`

// getConfigPath returns the path to the config file.
// Priority: SHOPDESK_CONFIG env var > XDG_CONFIG_HOME/shopdesk/console.yaml > ~/.config/shopdesk/console.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SHOPDESK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "console.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "shopdesk", "console.yaml")
}

// getDataPath returns the shopdesk data directory.
// Priority: XDG_DATA_HOME/shopdesk > ~/.local/share/shopdesk
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "shopdesk")
}

func usage() {
	fmt.Println("Usage: shopdesk <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve     Start the console server")
	fmt.Println("  init      Create a new config file interactively")
	fmt.Println("  health    Check server health")
	fmt.Println("  version   Print the version")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Shop API:  %s\n", cfg.API.BaseURL)
	green.Print("    ▶ ")
	fmt.Printf("Assistant: %s\n", cfg.Chat.WebhookURL)
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   %s\n", cfg.Metrics.Path)
	}
	if cfg.Session.Secret == "" {
		yellow.Println("    ! session.secret not set, sessions end on restart")
	}
	fmt.Println()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
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

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("shopdesk configuration setup")
	fmt.Println("============================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", getConfigPath())
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server ---")
	httpAddr := prompt(reader, "HTTP address", config.DefaultHTTPAddr)

	fmt.Println("\n--- Shop API ---")
	apiURL := prompt(reader, "API base URL", config.DefaultAPIBaseURL)

	fmt.Println("\n--- Assistant ---")
	webhookURL := prompt(reader, "Webhook URL", config.DefaultWebhookURL)
	statusURL := prompt(reader, "Status URL", config.DefaultStatusURL)

	fmt.Println("\n--- Database ---")
	dbPath := prompt(reader, "SQLite database path", filepath.Join(getDataPath(), "shopdesk.db"))

	fmt.Println("\n--- Logging ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	secret, err := newSecret()
	if err != nil {
		return fmt.Errorf("generating session secret: %w", err)
	}

	content := renderConfig(initAnswers{
		HTTPAddr:   httpAddr,
		APIURL:     apiURL,
		WebhookURL: webhookURL,
		StatusURL:  statusURL,
		DBPath:     dbPath,
		Secret:     secret,
		LogLevel:   logLevel,
		LogFormat:  logFormat,
	})

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(outputFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  shopdesk serve\n")
	return nil
}

type initAnswers struct {
	HTTPAddr   string
	APIURL     string
	WebhookURL string
	StatusURL  string
	DBPath     string
	Secret     string
	LogLevel   string
	LogFormat  string
}

func renderConfig(a initAnswers) string {
	var b strings.Builder
	b.WriteString("# shopdesk configuration\n")
	b.WriteString("# Generated by shopdesk init\n\n")

	fmt.Fprintf(&b, "server:\n  http_addr: %q\n\n", a.HTTPAddr)
	fmt.Fprintf(&b, "api:\n  base_url: %q\n  request_timeout: \"10s\"\n  verify_timeout: \"5s\"\n\n", a.APIURL)
	fmt.Fprintf(&b, "chat:\n  webhook_url: %q\n  status_url: %q\n  timeout: \"10s\"\n  status_interval: \"30s\"\n\n", a.WebhookURL, a.StatusURL)
	fmt.Fprintf(&b, "session:\n  secret: %q\n  ttl: \"24h\"\n  verify_interval: \"60s\"\n\n", a.Secret)
	fmt.Fprintf(&b, "database:\n  path: %q\n\n", a.DBPath)
	fmt.Fprintf(&b, "logging:\n  level: %q\n  format: %q\n\n", a.LogLevel, a.LogFormat)
	b.WriteString("metrics:\n  enabled: false\n  path: \"/metrics\"\n")
	return b.String()
}

func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
