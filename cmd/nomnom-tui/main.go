package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nomnomhq/nomnom/internal/api"
	"github.com/nomnomhq/nomnom/internal/journal"
	"github.com/nomnomhq/nomnom/internal/logging"
	"github.com/nomnomhq/nomnom/internal/session"
	"github.com/nomnomhq/nomnom/internal/tui"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var apiBaseURL string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/nomnom/config.yml)")
	flag.StringVar(&apiBaseURL, "api", "", "override the recommendation service base URL")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("NomNom - Restaurant Recommendation Client\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if apiBaseURL != "" {
		cfg.APIBaseURL = apiBaseURL
	}

	if err := runTUI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig) error {
	log, err := logging.NewFileLogger(cfg.LogPath, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer log.Sync()

	store, err := session.Open(cfg.SessionPath)
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}

	jnl, err := journal.Open(cfg.JournalPath)
	if err != nil {
		// The client works without a journal; interactions just go
		// unrecorded locally.
		log.Warn("interaction journal unavailable", zap.Error(err))
		jnl = nil
	} else {
		defer jnl.Close()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := api.NewClient(cfg.APIBaseURL, store,
		api.WithHTTPClient(&http.Client{Timeout: timeout}),
		api.WithLogger(log),
	)

	deps := &tui.Deps{
		API:     client,
		Session: store,
		Journal: jnl,
		Log:     log,
		MapsKey: cfg.MapsAPIKey,
	}

	startPage := tui.PageLogin
	if store.LoggedIn() {
		startPage = tui.PageHome
	}

	app := tui.NewApp(startPage,
		tui.NewLoginPage(deps),
		tui.NewRegisterPage(deps),
		tui.NewHomePage(deps, cfg.PrefetchThreshold),
		tui.NewProfilePage(deps),
	)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
