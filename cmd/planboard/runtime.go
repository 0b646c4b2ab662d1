package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hylla/planboard/internal/adapters/storage/sqlite"
	"github.com/hylla/planboard/internal/app"
	"github.com/hylla/planboard/internal/config"
	"github.com/hylla/planboard/internal/domain"
	"github.com/hylla/planboard/internal/mutate"
	"github.com/hylla/planboard/internal/platform"
	"github.com/hylla/planboard/internal/rules"
	"github.com/hylla/planboard/internal/view"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// defaultRootOptions seeds flag defaults from PLANBOARD_* environment variables.
func defaultRootOptions() rootOptions {
	opts := rootOptions{
		configPath: strings.TrimSpace(os.Getenv("PLANBOARD_CONFIG")),
		dbPath:     strings.TrimSpace(os.Getenv("PLANBOARD_DB_PATH")),
		appName:    platform.DefaultAppName,
		devMode:    version == "dev",
	}
	if envApp := strings.TrimSpace(os.Getenv("PLANBOARD_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}
	if envDev, ok := parseBoolEnv("PLANBOARD_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	return opts
}

func (o rootOptions) paths() (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: o.appName,
		DevMode: o.devMode,
	})
}

// session is one opened board: config, logger, store, and service.
type session struct {
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	store      *sqlite.Store
	svc        *app.Service
}

// openSession resolves paths and config, opens the sqlite store, and loads the board.
func openSession(ctx context.Context, opts rootOptions, stderr io.Writer) (*session, error) {
	paths, err := opts.paths()
	if err != nil {
		return nil, err
	}
	configPath := opts.configPath
	if configPath == "" {
		configPath = paths.ConfigPath
	}
	dbPath := opts.dbPath
	dbOverridden := dbPath != ""
	if !dbOverridden {
		dbPath = paths.DBPath
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Debug("dev file logging enabled", "path", devPath)
	}

	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	svcCfg, err := serviceConfig(cfg)
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}
	svc := app.NewService(store, uuid.NewString, time.Now, logger, svcCfg)
	if err := svc.Load(ctx); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, fmt.Errorf("load board: %w", err)
	}
	counts := svc.Counts()
	logger.Debug("board loaded", "key", svcCfg.StorageKey, "entities", counts.All)

	return &session{
		paths:      paths,
		configPath: configPath,
		cfg:        cfg,
		logger:     logger,
		store:      store,
		svc:        svc,
	}, nil
}

// Close releases the store and the dev log file.
func (s *session) Close() {
	if s == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("sqlite close failed", "db_path", s.cfg.Database.Path, "err", err)
	}
	_ = s.logger.Close()
}

// serviceConfig maps the on-disk config onto the board service settings.
func serviceConfig(cfg config.Config) (app.ServiceConfig, error) {
	visibility, err := view.ParseVisibility(cfg.Board.Visibility)
	if err != nil {
		return app.ServiceConfig{}, fmt.Errorf("board.visibility: %w", err)
	}
	return app.ServiceConfig{
		StorageKey: cfg.Storage.Key,
		Visibility: visibility,
		Headers: domain.ColumnHeaders{
			Goals:       cfg.Board.Headers.Goals,
			Steps:       cfg.Board.Headers.Steps,
			Tasks:       cfg.Board.Headers.Tasks,
			Initiatives: cfg.Board.Headers.Initiatives,
		},
		Defaults: mutate.Defaults{
			GoalDurationYears:    cfg.Defaults.GoalDurationYears,
			ReportIntervalMonths: cfg.Defaults.ReportIntervalMonths,
			StepStatus:           domain.NormalizeStatus(domain.Status(cfg.Defaults.StepStatus)),
			TaskProgress:         domain.NormalizeProgress(domain.Progress(cfg.Defaults.TaskProgress)),
			InitiativePriority:   domain.NormalizePriorityLevel(domain.PriorityLevel(cfg.Defaults.InitiativePriority)),
		},
		Thresholds: rules.Thresholds{
			EndingSoonFraction: cfg.Rules.EndingSoonFraction,
			ReportDueDays:      cfg.Rules.ReportDueDays,
		},
		ExportName: cfg.Export.FileName,
	}, nil
}

// parseBoolEnv reads one boolean environment variable; ok is false when unset or malformed.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
