package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"webwrap/internal/config"
	"webwrap/internal/database"
	"webwrap/internal/executor"
	"webwrap/internal/focus"
	"webwrap/internal/infrastructure/logging"
	"webwrap/internal/platform"
	"webwrap/internal/repository"
	"webwrap/internal/wm"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List compositor windows",
	Long:  "Run the configured list command and print the parsed window records.",
	Args:  cobra.NoArgs,
	RunE:  runWindows,
}

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Run one focus request without a GUI",
	Long: "Run the focus correlation protocol against an in-memory window title and print the result. " +
		"Useful for checking the compositor's listing and focus commands outside the window.",
	Args: cobra.NoArgs,
	RunE: runFocus,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recorded focus requests",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(windowsCmd, focusCmd, historyCmd)
	windowsCmd.Flags().Bool("detect", false, "Also print the niri session status")
	focusCmd.Flags().String("title", "webwrap", "Title the window holds outside the request")
	historyCmd.Flags().Int("limit", repository.DefaultHistoryLimit, "Maximum number of requests to print")
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// cliContext is cancelled on interrupt
func cliContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

func cliSetup() (*config.Config, *logging.ZerologLogger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateCommands(); err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newBridge(cfg *config.Config, log logging.Logger) *wm.Bridge {
	runner := executor.New(log, executor.WithTimeout(cfg.Executor.Timeout))
	return wm.NewBridge(runner, cfg.WM.ListCommand, cfg.WM.FocusCommand, log)
}

type windowsOutput struct {
	Session *wm.Status  `yaml:"session,omitempty"`
	Windows []wm.Window `yaml:"windows"`
}

func runWindows(cmd *cobra.Command, args []string) error {
	cfg, log, err := cliSetup()
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, cancel := cliContext(cmd)
	defer cancel()

	blocks, err := newBridge(cfg, log).ListWindows(ctx)
	if err != nil {
		return err
	}

	out := windowsOutput{Windows: wm.ParseRecords(blocks)}
	if detect, _ := cmd.Flags().GetBool("detect"); detect {
		status := wm.Detect(platform.NewAPI())
		out.Session = &status
	}
	return printYAML(cmd.OutOrStdout(), out)
}

// titleHolder stands in for the GUI window
type titleHolder struct {
	mu    sync.Mutex
	title string
}

func (h *titleHolder) Title() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.title
}

func (h *titleHolder) SetTitle(title string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.title = title
}

func runFocus(cmd *cobra.Command, args []string) error {
	cfg, log, err := cliSetup()
	if err != nil {
		return err
	}
	defer log.Close()

	title, _ := cmd.Flags().GetString("title")
	holder := &titleHolder{title: title}

	ctx, cancel := cliContext(cmd)
	defer cancel()

	result := focus.NewController(newBridge(cfg, log), holder, log).RequestFocus(ctx)
	if holder.Title() != title {
		return fmt.Errorf("title not restored: %q", holder.Title())
	}
	return printYAML(cmd.OutOrStdout(), result)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, log, err := cliSetup()
	if err != nil {
		return err
	}
	defer log.Close()

	if !cfg.Store.Enabled {
		return fmt.Errorf("the store is disabled in the configuration")
	}

	ctx, cancel := cliContext(cmd)
	defer cancel()

	dbService := database.NewSQLiteService(log)
	if err := dbService.Connect(ctx, database.ForPath(cfg.Store.Path, cfg.Store.RetentionDays)); err != nil {
		return err
	}
	defer dbService.Close()
	if err := dbService.Migrate(ctx); err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	events, err := repository.NewSQLiteRepository(dbService, log).RecentFocusEvents(ctx, limit)
	if err != nil {
		return err
	}
	return printYAML(cmd.OutOrStdout(), events)
}
