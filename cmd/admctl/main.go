package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-admin-client/auth"
	"github.com/jrsteele09/go-admin-client/credentials"
	"github.com/jrsteele09/go-admin-client/internal/config"
	"github.com/jrsteele09/go-admin-client/refresh"
	"github.com/jrsteele09/go-admin-client/session"
	"github.com/jrsteele09/go-admin-client/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = fmt.Errorf("panic recovered")
		}
	}()

	app, err := newApp()
	if err != nil {
		return err
	}
	return newRootCmd(app).Execute()
}

// app bundles the wired client stack shared by all subcommands.
type app struct {
	cfg        config.Config
	logger     zerolog.Logger
	store      credentials.Store
	api        *transport.Client
	authClient *auth.Client
	controller *session.Controller
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	store := credentials.NewFileStore(cfg.CredentialsPath, credentials.WithLogger(logger))
	coordinator := refresh.NewCoordinator(cfg.BaseURL+auth.RefreshPath, store,
		refresh.WithLogger(logger),
		refresh.WithTimeout(cfg.RefreshTimeout),
	)
	api := transport.New(cfg.BaseURL, store, coordinator,
		transport.WithLogger(logger),
		transport.WithTimeout(cfg.HTTPTimeout),
	)
	authClient := auth.NewClient(api, store, auth.WithLogger(logger))
	controller := session.NewController(authClient, store, coordinator, session.WithLogger(logger))

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		api:        api,
		authClient: authClient,
		controller: controller,
	}, nil
}

func newRootCmd(app *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "admctl",
		Short: "Command-line client for the admin analytics dashboard",
		Run: func(cmd *cobra.Command, args []string) {
			figure.NewFigure(app.cfg.AppName, "", true).Print()
			cmd.Help()
		},
	}
	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newStatusCmd(app),
		newMeCmd(app),
	)
	return root
}
