package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the full on-disk configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
	Board    BoardConfig    `toml:"board"`
	Defaults DefaultsConfig `toml:"defaults"`
	Rules    RulesConfig    `toml:"rules"`
	Export   ExportConfig   `toml:"export"`
	Server   ServerConfig   `toml:"server"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type StorageConfig struct {
	Key string `toml:"key"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type BoardConfig struct {
	Visibility string        `toml:"visibility"` // all | active | completed
	Headers    HeadersConfig `toml:"headers"`
}

type HeadersConfig struct {
	Goals       string `toml:"goals"`
	Steps       string `toml:"steps"`
	Tasks       string `toml:"tasks"`
	Initiatives string `toml:"initiatives"`
}

type DefaultsConfig struct {
	GoalDurationYears    int    `toml:"goal_duration_years"`
	ReportIntervalMonths int    `toml:"report_interval_months"`
	StepStatus           string `toml:"step_status"`
	TaskProgress         string `toml:"task_progress"`
	InitiativePriority   string `toml:"initiative_priority"`
}

type RulesConfig struct {
	EndingSoonFraction float64 `toml:"ending_soon_fraction"`
	ReportDueDays      int     `toml:"report_due_days"`
}

type ExportConfig struct {
	FileName string `toml:"file_name"`
	Format   string `toml:"format"` // json | yaml
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

var (
	knownStatuses   = []string{"not started", "in progress", "on track", "at risk", "done"}
	knownProgress   = []string{"going well", "going ok-ish", "struggling"}
	knownPriorities = []string{"high", "medium", "low"}
)

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Storage: StorageConfig{
			Key: "library-data",
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".planboard/log",
			},
		},
		Board: BoardConfig{
			Visibility: "all",
			Headers: HeadersConfig{
				Goals:       "Big Goals",
				Steps:       "Milestones",
				Tasks:       "Targets",
				Initiatives: "Action Steps",
			},
		},
		Defaults: DefaultsConfig{
			GoalDurationYears:    1,
			ReportIntervalMonths: 3,
			StepStatus:           "Not started",
			TaskProgress:         "Going well",
			InitiativePriority:   "Medium",
		},
		Rules: RulesConfig{
			EndingSoonFraction: 0.70,
			ReportDueDays:      60,
		},
		Export: ExportConfig{
			FileName: "planning-board",
			Format:   "json",
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:8080",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage.key is required")
	}
	if _, err := charmLog.ParseLevel(strings.TrimSpace(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	switch strings.TrimSpace(strings.ToLower(c.Board.Visibility)) {
	case "", "all", "active", "completed":
	default:
		return fmt.Errorf("invalid board.visibility: %q", c.Board.Visibility)
	}

	if c.Defaults.GoalDurationYears < 1 {
		return errors.New("defaults.goal_duration_years must be >= 1")
	}
	if c.Defaults.ReportIntervalMonths < 0 {
		return errors.New("defaults.report_interval_months must be >= 0")
	}
	if err := oneOf("defaults.step_status", c.Defaults.StepStatus, knownStatuses); err != nil {
		return err
	}
	if err := oneOf("defaults.task_progress", c.Defaults.TaskProgress, knownProgress); err != nil {
		return err
	}
	if err := oneOf("defaults.initiative_priority", c.Defaults.InitiativePriority, knownPriorities); err != nil {
		return err
	}

	if c.Rules.EndingSoonFraction <= 0 || c.Rules.EndingSoonFraction > 1 {
		return fmt.Errorf("rules.ending_soon_fraction must be in (0, 1]: %v", c.Rules.EndingSoonFraction)
	}
	if c.Rules.ReportDueDays < 0 {
		return errors.New("rules.report_due_days must be >= 0")
	}

	switch strings.TrimSpace(strings.ToLower(c.Export.Format)) {
	case "", "json", "yaml", "yml":
	default:
		return fmt.Errorf("invalid export.format: %q", c.Export.Format)
	}

	api := strings.TrimSpace(c.Server.APIEndpoint)
	mcp := strings.TrimSpace(c.Server.MCPEndpoint)
	if api == "" || mcp == "" {
		return errors.New("server.api_endpoint and server.mcp_endpoint are required")
	}
	if !strings.HasPrefix(api, "/") || !strings.HasPrefix(mcp, "/") {
		return errors.New("server endpoints must start with /")
	}
	if strings.TrimRight(api, "/") == strings.TrimRight(mcp, "/") {
		return fmt.Errorf("server.api_endpoint and server.mcp_endpoint must differ: %q", api)
	}

	return nil
}

// oneOf accepts a blank value or a case-insensitive match from known.
func oneOf(field, value string, known []string) error {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return nil
	}
	for _, k := range known {
		if k == value {
			return nil
		}
	}
	return fmt.Errorf("invalid %s: %q", field, value)
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
