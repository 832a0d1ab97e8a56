package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	"webwrap/internal/app"
	"webwrap/internal/config"
	"webwrap/internal/infrastructure/errors"
	"webwrap/internal/infrastructure/logging"
)

const singleInstanceID = "dev.webwrap.shell"

var (
	flagConfig string
	flagDebug  bool
	flagURL    string
	flagCSS    string
)

var rootCmd = &cobra.Command{
	Use:          "webwrap",
	Short:        "Host a web application in a native window",
	Long:         "webwrap loads a remote web application in a desktop window and lets its notifications focus the window under the niri compositor.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runWindow,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&flagURL, "url", "", "Web application URL (overrides WEB_APP_URL)")
	rootCmd.Flags().StringVar(&flagCSS, "css", "", "Custom stylesheet URL (overrides WEB_APP_CUSTOM_CSS)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers the command line flags over config.Load
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagURL != "" {
		cfg.App.URL = flagURL
	}
	if flagCSS != "" {
		cfg.App.CustomCSS = flagCSS
	}
	if flagDebug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*logging.ZerologLogger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := []logging.Option{logging.WithConsole(), logging.WithLevel(level)}
	if cfg.Log.File != "" {
		opts = append(opts, logging.WithFile(cfg.Log.File))
	}
	return logging.NewZerologLogger(opts...)
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()
	errors.SetRetryLogger(errors.NewLoggerBridge(log))

	application, err := app.NewApp(cfg, log)
	if err != nil {
		return err
	}

	proxy, err := app.NewProxyHandler(cfg.App.URL, log)
	if err != nil {
		return err
	}

	wailsLevel := logger.INFO
	if cfg.Log.Level == "debug" {
		wailsLevel = logger.DEBUG
	}

	err = wails.Run(&options.App{
		Title:             cfg.App.Title,
		Width:             cfg.Window.Width,
		Height:            cfg.Window.Height,
		HideWindowOnClose: application.StaysResident(),
		AssetServer: &assetserver.Options{
			Handler: proxy,
		},
		Logger:        logging.NewWailsLoggerAdapter(log),
		LogLevel:      wailsLevel,
		OnStartup:     application.Startup,
		OnDomReady:    application.DomReady,
		OnBeforeClose: application.BeforeClose,
		OnShutdown:    application.Shutdown,
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId:               singleInstanceID,
			OnSecondInstanceLaunch: application.OnSecondInstanceLaunch,
		},
		Bind: []interface{}{
			application,
		},
		Linux: &linux.Options{
			ProgramName: "webwrap",
		},
		Mac: &mac.Options{
			About: &mac.AboutInfo{
				Title:   cfg.App.Title,
				Message: cfg.App.URL,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("window failed: %w", err)
	}
	return nil
}
