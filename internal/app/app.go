package app

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wailsapp/wails/v2/pkg/options"
	"golang.org/x/sync/singleflight"

	"webwrap/internal/config"
	"webwrap/internal/content"
	"webwrap/internal/database"
	"webwrap/internal/executor"
	"webwrap/internal/focus"
	"webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
	"webwrap/internal/platform"
	"webwrap/internal/repository"
	"webwrap/internal/services"
	"webwrap/internal/stylesheet"
	"webwrap/internal/wm"
)

const (
	storeOpenTimeout = 10 * time.Second
	shutdownTimeout  = 5 * time.Second
)

// App is bound to the Wails window. Its exported methods are callable from
// the hosted page as window.go.app.App.*
type App struct {
	ctx      context.Context
	config   *config.Config
	logger   logging.Logger
	platform platform.API

	dbService *database.SQLiteService
	geometry  *services.WindowGeometry
	history   *services.FocusHistory

	window     *wailsWindow
	runtime    windowRuntime
	controller *focus.Controller
	fetcher    stylesheetFetcher
	focusGroup singleflight.Group
}

type stylesheetFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// NewApp wires the shell from cfg. A store that cannot be opened is logged
// and the app continues without persistence.
func NewApp(cfg *config.Config, logger logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	a := &App{
		config:   cfg,
		logger:   logger,
		platform: platform.NewAPI(),
		window:   newWailsWindow(cfg.App.Title),
	}

	var repo repository.StateRepository
	if cfg.Store.Enabled {
		dbService, err := openStore(cfg, logger)
		if err != nil {
			logging.LogShellError(logger, err, "open_store", map[string]interface{}{"path": cfg.Store.Path})
			logger.Warn("Continuing without persistence")
		} else {
			a.dbService = dbService
			repo = repository.NewSQLiteRepository(dbService, logger)
		}
	}
	a.geometry = services.NewWindowGeometry(repo, logger)
	a.history = services.NewFocusHistory(repo, cfg.Store.RetentionDays, logger)
	if a.dbService != nil {
		a.history.SetOptimizer(a.dbService.Optimize)
	}

	runner := executor.New(logger, executor.WithTimeout(cfg.Executor.Timeout))
	bridge := wm.NewBridge(runner, cfg.WM.ListCommand, cfg.WM.FocusCommand, logger)
	a.controller = focus.NewController(bridge, a.window, logger, focus.WithRecorder(a.history))
	a.fetcher = stylesheet.NewFetcher(cfg.Stylesheet.UserAgent, cfg.Stylesheet.Timeout, logger)

	return a, nil
}

func openStore(cfg *config.Config, logger logging.Logger) (*database.SQLiteService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
	defer cancel()

	dbService := database.NewSQLiteService(logger)
	if err := dbService.Connect(ctx, database.ForPath(cfg.Store.Path, cfg.Store.RetentionDays)); err != nil {
		return nil, err
	}
	if err := dbService.Migrate(ctx); err != nil {
		dbService.Close()
		return nil, err
	}
	if err := dbService.Health(ctx); err != nil {
		dbService.Close()
		return nil, err
	}
	if version, err := dbService.GetMigrationVersion(ctx); err == nil {
		logger.Debug("Store ready", "path", cfg.Store.Path, "schema_version", version)
	}
	return dbService, nil
}

// Startup is called at application startup
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	if a.runtime == nil {
		a.runtime = &wailsRuntime{ctx: ctx}
	}
	a.window.attach(a.runtime)

	status := wm.Detect(a.platform)
	if err := status.Err(); err != nil {
		a.logger.Warn("Window manager unavailable, focus requests will fail", "error", err, "os", a.platform.Name())
	} else {
		a.logger.Debug("Window manager detected", "socket", status.Socket, "binary", status.Binary)
	}

	if state := a.geometry.Restore(ctx); state != nil {
		a.runtime.SetSize(state.Width, state.Height)
		a.runtime.SetPosition(state.X, state.Y)
		a.logger.Debug("Restored window geometry", "width", state.Width, "height", state.Height)
	}

	a.history.Start()

	a.logger.Info("Application started", "url", a.config.App.URL, "environment", a.config.Environment)
}

// DomReady is called after each page load. It fetches the custom
// stylesheet and injects the content bridge.
func (a *App) DomReady(ctx context.Context) {
	start := time.Now()

	css := a.fetcher.Fetch(ctx, a.config.App.CustomCSS)
	script, err := content.Script(content.Options{CSS: css, DisableSpellcheck: true})
	if err != nil {
		logging.LogShellError(a.logger, err, "build_content_script", nil)
		return
	}
	a.runtime.ExecJS(script)

	logging.LogOperation(a.logger, "inject_content_bridge", time.Since(start), map[string]interface{}{
		"css_bytes": len(css),
	})
}

// BeforeClose saves the window geometry. It never prevents closing.
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	width, height := a.runtime.Size()
	x, y := a.runtime.Position()
	a.geometry.Save(ctx, width, height, x, y)
	return false
}

// Shutdown is called at application termination
func (a *App) Shutdown(ctx context.Context) {
	a.history.Stop()

	if a.dbService != nil {
		stats := a.dbService.GetStats()
		a.logger.Debug("Closing store", "open_connections", stats.OpenConnections, "in_use", stats.InUse)

		done := make(chan error, 1)
		go func() { done <- a.dbService.Close() }()

		select {
		case err := <-done:
			if err != nil {
				logging.LogShellError(a.logger, err, "close_store", nil)
			}
		case <-time.After(shutdownTimeout):
			a.logger.Warn("Timed out closing the store")
		}
	}

	a.logger.Info("Application shutdown completed")
}

// OnSecondInstanceLaunch brings the existing window back instead of
// starting a second shell
func (a *App) OnSecondInstanceLaunch(data options.SecondInstanceData) {
	a.logger.Debug("Second instance launched", "args", data.Args)
	if a.runtime == nil {
		return
	}
	a.runtime.Unminimise()
	a.runtime.Show()
}

// RequestWindowFocus asks the compositor to focus this window. It returns
// immediately; calls made while a request is running share that request.
func (a *App) RequestWindowFocus() {
	go a.requestFocus()
}

func (a *App) requestFocus() focus.Result {
	v, _, _ := a.focusGroup.Do("focus", func() (interface{}, error) {
		return a.controller.RequestFocus(a.context()), nil
	})
	return v.(focus.Result)
}

// OpenExternal opens url with the system handler
func (a *App) OpenExternal(rawURL string) error {
	if err := validateExternalURL(rawURL); err != nil {
		a.logger.Warn("Refusing to open external url", "url", rawURL, "error", err)
		return err
	}
	if a.runtime == nil {
		return errors.HandleConnectionError("OpenExternal", "runtime not started")
	}
	a.runtime.OpenURL(rawURL)
	a.logger.Debug("Opened external url", "url", rawURL)
	return nil
}

func validateExternalURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.HandleValidationError("OpenExternal", "url", rawURL, err.Error())
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return errors.HandleValidationError("OpenExternal", "url", rawURL, "missing host")
		}
	case "mailto":
		if u.Opaque == "" && u.Path == "" {
			return errors.HandleValidationError("OpenExternal", "url", rawURL, "missing address")
		}
	default:
		return errors.HandleValidationError("OpenExternal", "url", rawURL,
			fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}
	return nil
}

// FocusHistory returns the most recent focus requests, newest first
func (a *App) FocusHistory(limit int) ([]FocusEntry, error) {
	events, err := a.history.Recent(a.context(), limit)
	if err != nil {
		return nil, err
	}
	entries := make([]FocusEntry, len(events))
	for i, e := range events {
		entries[i] = FocusEntry{
			RequestID: e.RequestID,
			Outcome:   e.Outcome,
			WindowID:  e.WindowID,
			Error:     e.Error,
			At:        e.CreatedAt.Format(time.RFC3339),
		}
	}
	return entries, nil
}

// FocusEntry is the page-facing view of one recorded focus request
type FocusEntry struct {
	RequestID string `json:"requestId"`
	Outcome   string `json:"outcome"`
	WindowID  int    `json:"windowId,omitempty"`
	Error     string `json:"error,omitempty"`
	At        string `json:"at"`
}

// StaysResident reports whether closing the window should hide it rather
// than quit
func (a *App) StaysResident() bool {
	return a.platform.StaysResident()
}

func (a *App) context() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}
