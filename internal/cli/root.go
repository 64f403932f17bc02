// Package cli implements the photodeck CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"photodeck/internal/api"
	"photodeck/internal/chat"
	"photodeck/internal/config"
	"photodeck/internal/logging"
	"photodeck/internal/photosync"
	"photodeck/internal/session"
	"photodeck/internal/view"
)

var (
	baseURLFlag string
	dbPathFlag  string
	logLevel    string
	formatFlag  string
)

// Outgoing request throttle: bursty interactive use is fine, sustained
// hammering of the backend is not.
const (
	requestsPerSecond = 10
	requestBurst      = 20
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "photodeck",
	Short:         "Client for the photodeck photo-management service",
	Long:          "Command-line client for the photodeck backend: manage your session, browse and upload photos, and talk to the photo assistant.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Backend base URL (default: $PHOTODECK_BASE_URL or http://localhost:5000)")
	RootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Session database path (default: $PHOTODECK_DB or ~/.photodeck/session.db)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

// Execute runs the CLI.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}

// app bundles the wired client components for one command invocation.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	tokens     *session.SQLiteTokenStore
	store      *session.Store
	client     *api.Client
	flow       *session.Flow
	collection *photosync.Collection
	uploader   *photosync.Uploader
	chat       *chat.Session
	view       *view.Controller
	restored   bool
}

// newApp builds the component graph and restores a persisted session. A
// restored token publishes the authenticated event, which triggers the
// initial photos and stats refresh.
func newApp() (*app, error) {
	logger, err := logging.NewLogger(logLevel)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(baseURLFlag, dbPathFlag, logLevel, logger)
	if err != nil {
		return nil, err
	}

	tokens, err := session.NewSQLiteTokenStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(tokens, logger)
	client := api.New(cfg.BaseURL, store.Token, logger)
	client.SetLimiter(rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst))

	flow := session.NewFlow(client, store, logger)
	collection := photosync.NewCollection(client, store, logger)
	uploader := photosync.NewUploader(client, collection, logger)
	chatSession := chat.NewSession(client, store, cfg.ChatProvider, logger)
	controller := view.NewController(store, flow, logger)

	a := &app{
		cfg:        cfg,
		logger:     logger,
		tokens:     tokens,
		store:      store,
		client:     client,
		flow:       flow,
		collection: collection,
		uploader:   uploader,
		chat:       chatSession,
		view:       controller,
	}
	a.restored = store.Restore()
	controller.Start(a.restored)
	return a, nil
}

func (a *app) close() {
	a.tokens.Close()
	a.logger.Sync()
}

// requireSession fails fast when no token is present.
func (a *app) requireSession() error {
	if !a.store.Authenticated() {
		return fmt.Errorf("not logged in; run 'photodeck login' first")
	}
	return nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
