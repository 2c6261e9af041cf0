package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviesearch/internal/config"
	"github.com/mmcdole/moviesearch/internal/debug"
	"github.com/mmcdole/moviesearch/internal/discover"
	"github.com/mmcdole/moviesearch/internal/domain"
	"github.com/mmcdole/moviesearch/internal/log"
	"github.com/mmcdole/moviesearch/internal/query"
	"github.com/mmcdole/moviesearch/internal/service"
	"github.com/mmcdole/moviesearch/internal/store"
	"github.com/mmcdole/moviesearch/internal/tmdb"
	"github.com/mmcdole/moviesearch/internal/tui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "moviesearch",
	Short: "Browse and search TMDB movies from the terminal",
	Long: `moviesearch is a terminal movie browser backed by The Movie Database.
It shows popular movies on start, searches as you type, and opens a
detail view for any title.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initializeApp,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.ConfigPath()+")")
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("moviesearch {{.Version}}\n")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}

// initializeApp loads configuration and sets up logging
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logFile, err = log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)
	return nil
}

func run(ctx context.Context) error {
	logger.Info("starting moviesearch", "version", Version)

	if !cfg.HasAPIKey() && term.IsTerminal(int(os.Stdin.Fd())) {
		if err := runSetupFlow(cfg); err != nil {
			return err
		}
	}
	if !cfg.HasAPIKey() {
		// Requests fail with no data; the UI still runs
		logger.Warn("no TMDB API key configured", "config", configFile())
		fmt.Fprintln(os.Stderr, "Warning: no TMDB API key configured; set TMDB_API_KEY or tmdb.api_key in", configFile())
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	queries := query.NewClient(st,
		query.WithLogger(logger),
		query.WithMetrics(query.NewMetrics(reg)),
		query.WithErrorHandler(authFailureReporter(logger, configFile())),
	)

	api := tmdb.NewClient(cfg.TMDB.APIKey, logger,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithRateLimit(cfg.TMDB.RateLimit, cfg.TMDB.RateBurst),
	)

	svc := service.NewMovieService(api, api, queries, service.StaleTimes{
		Search:  cfg.Cache.SearchStaleTime,
		Details: cfg.Cache.DetailsStaleTime,
		Popular: cfg.Cache.PopularStaleTime,
	}, logger)
	ctrl := discover.New(svc, cfg.UI.DebounceDelay, logger)
	defer ctrl.Close()

	if cfg.Debug.Listen != "" {
		srv := debug.New(cfg.Debug.Listen, queries, api, reg, logger)
		addr, err := srv.Start()
		if err != nil {
			return fmt.Errorf("failed to start debug server: %w", err)
		}
		logger.Info("debug server listening", "addr", addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	posterSize, err := domain.ParseImageSize(cfg.UI.PosterSize)
	if err != nil {
		logger.Warn("invalid poster size, using default", "size", cfg.UI.PosterSize, "error", err)
		posterSize = domain.ImageSizeMedium
	}

	model := tui.NewModel(ctrl, svc, tui.Options{
		Columns:    cfg.UI.GridColumns,
		PosterSize: posterSize,
		Logger:     logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

func openStore(cfg *config.Config) (*store.QueryStore, error) {
	if !cfg.Cache.Persist {
		return store.NewMemoryStore(), nil
	}
	st, err := store.NewQueryStore(cfg.Cache.Path, cfg.TMDB.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return st, nil
}

// configFile is the file the setup flow writes to
func configFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigPath()
}

// authFailureReporter returns a query error hook that points at the config
// file the first time TMDB rejects the API key. The query client already
// logs each failure.
func authFailureReporter(logger *slog.Logger, path string) func(query.Key, error) {
	var once sync.Once
	return func(key query.Key, err error) {
		if !errors.Is(err, domain.ErrAuthFailed) {
			return
		}
		once.Do(func() {
			logger.Error("TMDB rejected the API key", "config", path, "key", key.String())
		})
	}
}

// runSetupFlow asks for an API key on first start and saves it
func runSetupFlow(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("Welcome to moviesearch!")
	fmt.Println()
	fmt.Println("A TMDB API key is required. Create one at https://www.themoviedb.org/settings/api")
	fmt.Println()

	fmt.Print("Enter your TMDB API key (leave empty to skip): ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		// Fall back to a plain read when the terminal refuses raw mode
		line, rerr := bufio.NewReader(os.Stdin).ReadString('\n')
		if rerr != nil {
			return fmt.Errorf("failed to read input: %w", rerr)
		}
		raw = []byte(line)
	}

	key := strings.TrimSpace(string(raw))
	if key == "" {
		return nil
	}
	cfg.TMDB.APIKey = key

	if err := config.SaveAPIKey(cfgFile, key); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println("✓ API key saved to", configFile())
	fmt.Println()
	return nil
}
