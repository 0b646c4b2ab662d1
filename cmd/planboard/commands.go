package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/hylla/planboard/internal/adapters/server"
	"github.com/hylla/planboard/internal/adapters/server/common"
	"github.com/hylla/planboard/internal/app"
	"github.com/hylla/planboard/internal/domain"
	"github.com/hylla/planboard/internal/view"
)

// serveCommandRunner and copyToClipboard are swapped out in tests.
var (
	serveCommandRunner = func(ctx context.Context, cfg server.Config, deps server.Dependencies) error {
		return server.Run(ctx, cfg, deps)
	}
	copyToClipboard = clipboard.WriteAll
)

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	defaults := defaultRootOptions()
	opts := &defaults
	vo := &viewOptions{}

	root := &cobra.Command{
		Use:          "planboard",
		Short:        "Plan goals, steps, tasks, and initiatives on a four-column board",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Show the board
  planboard

  # Add a goal, then a step under it
  planboard add goal Open a youth shelter
  planboard add step --parent <goal-id> Secure a lease

  # Search, or apply a named filter
  planboard view --search lease
  planboard view --filter report-due
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "view", func(_ context.Context, s *session) error {
				return runView(s, *vo, cmd.OutOrStdout())
			})
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	vo.register(root)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", opts.configPath, "path to config TOML (env PLANBOARD_CONFIG)")
	pf.StringVar(&opts.dbPath, "db", opts.dbPath, "path to sqlite database (env PLANBOARD_DB_PATH)")
	pf.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution (env PLANBOARD_APP_NAME)")
	pf.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev) (env PLANBOARD_DEV_MODE)")

	root.AddCommand(
		newPathsCommand(opts),
		newViewCommand(opts),
		newAddCommand(opts),
		newEditCommand(opts),
		newToggleCommand(opts),
		newDeleteCommand(opts),
		newMoveCommand(opts),
		newHeadersCommand(opts),
		newFiltersCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newOutlineCommand(opts),
		newServeCommand(opts),
		newResetCommand(opts),
	)
	return root
}

// withSession opens the board around one command flow and logs its outcome.
func withSession(cmd *cobra.Command, opts *rootOptions, name string, fn func(context.Context, *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, *opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()

	s.logger.Debug("command flow start", "command", name)
	if err := fn(ctx, s); err != nil {
		s.logger.Error("command flow failed", "command", name, "err", err)
		return fmt.Errorf("run %s command: %w", name, err)
	}
	s.logger.Debug("command flow complete", "command", name)
	return nil
}

func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.paths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "exports: %s\n", paths.ExportDir)
			return nil
		},
	}
}

// viewOptions replays one session's view events before rendering.
type viewOptions struct {
	selects    []string
	search     string
	filter     string
	visibility string
	asJSON     bool
}

func (vo *viewOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&vo.selects, "select", nil, "select ids in order; in search or filter mode this expands a result")
	f.StringVar(&vo.search, "search", "", "search every level for text")
	f.StringVar(&vo.filter, "filter", "", "apply a named filter (see 'planboard filters')")
	f.StringVar(&vo.visibility, "show", "", "all, active, or completed")
	f.BoolVar(&vo.asJSON, "json", false, "print the derived columns as JSON")
	cmd.MarkFlagsMutuallyExclusive("search", "filter")
}

func newViewCommand(opts *rootOptions) *cobra.Command {
	vo := &viewOptions{}
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Render the four board columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "view", func(_ context.Context, s *session) error {
				return runView(s, *vo, cmd.OutOrStdout())
			})
		},
	}
	vo.register(cmd)
	return cmd
}

func runView(s *session, vo viewOptions, out io.Writer) error {
	svc := s.svc
	if vo.visibility != "" {
		v, err := view.ParseVisibility(vo.visibility)
		if err != nil {
			return err
		}
		svc.SetVisibility(v)
	}
	if vo.filter != "" {
		if err := svc.SetFilter(vo.filter); err != nil {
			return err
		}
	}
	if vo.search != "" {
		svc.SetSearchQuery(vo.search)
	}
	for _, id := range vo.selects {
		if err := svc.Select(id); err != nil {
			return err
		}
	}

	cols, err := svc.Columns()
	if err != nil {
		return err
	}
	if vo.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(common.Board{Columns: cols, Counts: svc.Counts()})
	}
	return renderBoard(out, cols, svc.Counts())
}

// fieldFlags binds the optional level-specific fields of add and edit.
type fieldFlags struct {
	priority       int
	startDate      string
	endDate        string
	nextReportDate string
	amount         string
	status         string
	progress       string
	assignee       string
	priorityLevel  string
}

func (ff *fieldFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&ff.priority, "priority", 0, "numeric priority")
	f.StringVar(&ff.startDate, "start", "", "goal start date (YYYY-MM-DD)")
	f.StringVar(&ff.endDate, "end", "", "goal end date (YYYY-MM-DD)")
	f.StringVar(&ff.nextReportDate, "report", "", "goal next report date (YYYY-MM-DD)")
	f.StringVar(&ff.amount, "amount", "", "goal funding amount")
	f.StringVar(&ff.status, "status", "", "step status: Not started, In progress, On track, At risk, Done")
	f.StringVar(&ff.progress, "progress", "", "task progress: Going well, Going OK-ish, Struggling")
	f.StringVar(&ff.assignee, "assignee", "", "initiative assignee")
	f.StringVar(&ff.priorityLevel, "level", "", "initiative priority level: High, Medium, Low")
}

// patch returns only the fields whose flags were set on this invocation.
func (ff *fieldFlags) patch(cmd *cobra.Command) domain.Fields {
	f := cmd.Flags()
	var out domain.Fields
	if f.Changed("priority") {
		out.Priority = &ff.priority
	}
	if f.Changed("start") {
		out.StartDate = &ff.startDate
	}
	if f.Changed("end") {
		out.EndDate = &ff.endDate
	}
	if f.Changed("report") {
		out.NextReportDate = &ff.nextReportDate
	}
	if f.Changed("amount") {
		out.Amount = &ff.amount
	}
	if f.Changed("status") {
		v := domain.Status(ff.status)
		out.Status = &v
	}
	if f.Changed("progress") {
		v := domain.Progress(ff.progress)
		out.Progress = &v
	}
	if f.Changed("assignee") {
		out.Assignee = &ff.assignee
	}
	if f.Changed("level") {
		v := domain.PriorityLevel(ff.priorityLevel)
		out.PriorityLevel = &v
	}
	return out
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var (
		parentID string
		fields   fieldFlags
	)
	cmd := &cobra.Command{
		Use:   "add LEVEL [TITLE...]",
		Short: "Add a goal, step, task, or initiative",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := domain.ParseLevel(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, "add", func(ctx context.Context, s *session) error {
				var parent domain.Path
				if strings.TrimSpace(parentID) != "" {
					ref, err := s.svc.Lookup(parentID)
					if err != nil {
						return err
					}
					parent = ref.Path()
				}
				id, err := s.svc.Insert(ctx, app.InsertInput{
					Level:  level,
					Parent: parent,
					Title:  strings.Join(args[1:], " "),
					Fields: fields.patch(cmd),
				})
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&parentID, "parent", "", "id of the parent entity (required below goals)")
	fields.register(cmd)
	return cmd
}

func newEditCommand(opts *rootOptions) *cobra.Command {
	var (
		title  string
		fields fieldFlags
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change an entity's title or fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, "edit", func(ctx context.Context, s *session) error {
				ref, err := s.svc.Lookup(args[0])
				if err != nil {
					return err
				}
				return s.svc.EditFields(ctx, ref.ID, ref.Level, title, fields.patch(cmd))
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	fields.register(cmd)
	return cmd
}

func newToggleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip completion on an entity and everything under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, "toggle", func(ctx context.Context, s *session) error {
				ref, err := s.svc.Lookup(args[0])
				if err != nil {
					return err
				}
				return s.svc.ToggleCompletion(ctx, ref.ID, ref.Level)
			})
		},
	}
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an entity and everything under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, "delete", func(ctx context.Context, s *session) error {
				ref, err := s.svc.Lookup(args[0])
				if err != nil {
					return err
				}
				return s.svc.Delete(ctx, ref.ID, ref.Level)
			})
		},
	}
}

func newMoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move SOURCE TARGET",
		Short: "Move an entity onto a sibling's position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, "move", func(ctx context.Context, s *session) error {
				return s.svc.Move(ctx, args[0], args[1])
			})
		},
	}
}

func newHeadersCommand(opts *rootOptions) *cobra.Command {
	var in domain.ColumnHeaders
	cmd := &cobra.Command{
		Use:   "headers",
		Short: "Print or rename the column headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "headers", func(ctx context.Context, s *session) error {
				current := s.svc.Document().ColumnHeaders.WithDefaults()
				next := current
				f := cmd.Flags()
				if f.Changed("goals") {
					next.Goals = in.Goals
				}
				if f.Changed("steps") {
					next.Steps = in.Steps
				}
				if f.Changed("tasks") {
					next.Tasks = in.Tasks
				}
				if f.Changed("initiatives") {
					next.Initiatives = in.Initiatives
				}
				if next != current {
					s.svc.SetColumnHeaders(ctx, next)
				}
				headers := s.svc.Document().ColumnHeaders.WithDefaults()
				out := cmd.OutOrStdout()
				for _, level := range domain.Levels {
					_, _ = fmt.Fprintf(out, "%s: %s\n", level, headers.Label(level))
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Goals, "goals", "", "goals column header")
	f.StringVar(&in.Steps, "steps", "", "steps column header")
	f.StringVar(&in.Tasks, "tasks", "", "tasks column header")
	f.StringVar(&in.Initiatives, "initiatives", "", "initiatives column header")
	return cmd
}

func newFiltersCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the named filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "filters", func(_ context.Context, s *session) error {
				out := cmd.OutOrStdout()
				for _, f := range s.svc.Filters() {
					level := "-"
					if f.Level.Valid() {
						level = f.Level.String()
					}
					_, _ = fmt.Fprintf(out, "%-16s %-11s %s\n", f.Key, level, f.Label)
				}
				return nil
			})
		},
	}
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		rawFormat string
		outPath   string
		toClip    bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole board to a JSON or YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "export", func(_ context.Context, s *session) error {
				if rawFormat == "" {
					rawFormat = s.cfg.Export.Format
				}
				format, err := app.ParseFormat(rawFormat)
				if err != nil {
					return err
				}
				encoded, err := s.svc.Export(format)
				if err != nil {
					return fmt.Errorf("encode document: %w", err)
				}
				if len(encoded) == 0 || encoded[len(encoded)-1] != '\n' {
					encoded = append(encoded, '\n')
				}

				switch {
				case toClip:
					if err := copyToClipboard(string(encoded)); err != nil {
						return fmt.Errorf("copy to clipboard: %w", err)
					}
					s.logger.Info("document copied to clipboard", "format", format, "bytes", len(encoded))
					return nil
				case outPath == "-":
					_, err := cmd.OutOrStdout().Write(encoded)
					return err
				case outPath == "":
					outPath = filepath.Join(s.paths.ExportDir, s.svc.ExportFileName(s.cfg.Export.FileName, format))
				}
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
				if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), outPath)
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&rawFormat, "format", "", "json or yaml (default from config)")
	f.StringVar(&outPath, "out", "", "output file path ('-' for stdout; default <exports>/<name>-<date>.<ext>)")
	f.BoolVar(&toClip, "copy", false, "copy the encoded document to the clipboard instead")
	cmd.MarkFlagsMutuallyExclusive("out", "copy")
	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var rawFormat string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the board with a JSON or YAML document ('-' reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPath := args[0]
			if rawFormat == "" && inPath != "-" {
				rawFormat = filepath.Ext(inPath)
			}
			format, err := app.ParseFormat(rawFormat)
			if err != nil {
				return err
			}
			var content []byte
			if inPath == "-" {
				content, err = io.ReadAll(cmd.InOrStdin())
			} else {
				content, err = os.ReadFile(inPath)
			}
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			return withSession(cmd, opts, "import", func(ctx context.Context, s *session) error {
				counts, err := s.svc.Import(ctx, format, content)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d entities (%d active, %d completed)\n", counts.All, counts.Active, counts.Completed)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&rawFormat, "format", "", "json or yaml (default from the file extension)")
	return cmd
}

func newOutlineCommand(opts *rootOptions) *cobra.Command {
	var (
		markdown bool
		render   bool
		toClip   bool
		style    string
		width    int
	)
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Print the board as an indented outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "outline", func(_ context.Context, s *session) error {
				text := s.svc.Outline()
				if markdown || render {
					text = s.svc.OutlineMarkdown()
				}
				if toClip {
					if err := copyToClipboard(text); err != nil {
						return fmt.Errorf("copy to clipboard: %w", err)
					}
					s.logger.Info("outline copied to clipboard", "bytes", len(text))
					return nil
				}
				if render {
					rendered, err := renderMarkdown(text, style, width)
					if err != nil {
						return err
					}
					text = rendered
				}
				_, err := io.WriteString(cmd.OutOrStdout(), text)
				return err
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&markdown, "markdown", false, "emit markdown instead of plain text")
	f.BoolVar(&render, "render", false, "render the markdown outline for the terminal")
	f.BoolVar(&toClip, "copy", false, "copy the outline to the clipboard instead of printing it")
	f.StringVar(&style, "style", "dark", "glamour style for --render (dark, light, notty, ...)")
	f.IntVar(&width, "width", 100, "word wrap width for --render")
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var httpBind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over a REST API and an MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, "serve", func(ctx context.Context, s *session) error {
				cfg := server.Config{
					HTTPBind:      firstNonBlank(httpBind, s.cfg.Server.HTTPBind),
					APIEndpoint:   firstNonBlank(apiEndpoint, s.cfg.Server.APIEndpoint),
					MCPEndpoint:   firstNonBlank(mcpEndpoint, s.cfg.Server.MCPEndpoint),
					ServerName:    opts.appName,
					ServerVersion: version,
				}
				return serveCommandRunner(ctx, cfg, server.Dependencies{
					Board:  common.NewAppServiceAdapter(s.svc),
					Logger: s.logger,
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&httpBind, "http", "", "listen address (default from config)")
	f.StringVar(&apiEndpoint, "api-endpoint", "", "REST API mount path (default from config)")
	f.StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path (default from config)")
	return cmd
}

func newResetCommand(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase the stored board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("reset erases the whole board; pass --yes to confirm")
			}
			return withSession(cmd, opts, "reset", func(ctx context.Context, s *session) error {
				return s.svc.Reset(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
