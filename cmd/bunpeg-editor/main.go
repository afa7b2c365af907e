package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bunpeg/bunpeg-editor/internal/bunpeg"
	"github.com/bunpeg/bunpeg-editor/internal/config"
	"github.com/bunpeg/bunpeg-editor/internal/db"
	"github.com/bunpeg/bunpeg-editor/internal/logging"
	"github.com/bunpeg/bunpeg-editor/internal/session"
	"github.com/bunpeg/bunpeg-editor/internal/store"
	"github.com/bunpeg/bunpeg-editor/internal/submit"
)

var Version = "0.1.0"

const logFilename = "editor.log"

// app holds everything the subcommands share. It is built once by the root
// command's PersistentPreRunE.
type app struct {
	cfg       *config.EnvConfig
	logger    *slog.Logger
	database  *db.DB
	logFile   *os.File
	repo      store.Repository
	client    bunpeg.Client
	poller    *bunpeg.Poller
	submitter *submit.Submitter
	recorder  *session.Recorder
}

var current *app

var rootCmd = &cobra.Command{
	Use:   "bunpeg-editor",
	Short: "Timeline trim editor for the bunpeg media API",
	Long: `bunpeg-editor marks ranges of a remote video for deletion and submits
the remaining parts to the bunpeg API as trim, merge and dash jobs.

Run "serve" for the local HTTP API, or "edit" for the terminal editor.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd == editCmd)
		if err != nil {
			return err
		}
		current = a
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(trimCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(rmCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if current != nil {
		current.close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp wires the shared services. When the terminal editor owns the
// screen, logs go to a file in the data dir instead of stdout.
func newApp(logToFile bool) (*app, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	var logFile *os.File
	if logToFile {
		logFile, err = os.OpenFile(filepath.Join(cfg.DataDir(), logFilename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger = logging.NewLoggerTo(logFile, cfg.LogLevel())
	}

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var client bunpeg.Client
	if cfg.Offline() {
		logger.Warn("no API URL configured, using the offline stub client")
		client = bunpeg.NewStubClient(60, logger)
	} else {
		client = bunpeg.NewHTTPClient(cfg.APIURL(), cfg.APIToken(), logger)
		logger.Debug("using media API", "url", cfg.APIURL(), "token", logging.SanitizeToken(cfg.APIToken()))
	}

	poller := &bunpeg.Poller{
		Client:      client,
		Interval:    cfg.PollInterval(),
		MaxAttempts: cfg.PollMaxAttempts(),
		Timeout:     cfg.PollTimeout(),
		Logger:      logger,
	}

	repo := store.NewRepository(database.Conn())

	return &app{
		cfg:       cfg,
		logger:    logger,
		database:  database,
		logFile:   logFile,
		repo:      repo,
		client:    client,
		poller:    poller,
		submitter: submit.New(client, poller, cfg.OutputFormat(), logger),
		recorder:  session.NewRecorder(repo, logger),
	}, nil
}

func (a *app) close() {
	if err := a.database.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// remember records fileID in the tool's recent list unless it is already
// there.
func (a *app) remember(ctx context.Context, tool, fileID, name string) error {
	existing, err := a.repo.GetFile(ctx, tool, fileID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return a.repo.AppendFile(ctx, &store.File{ID: fileID, Tool: tool, Name: name})
}

// duration returns the media length of a remote file, fetching metadata
// when the file record does not carry it.
func (a *app) duration(ctx context.Context, file *bunpeg.UserFile) (*bunpeg.VideoMeta, error) {
	if file.Metadata != nil && file.Metadata.Duration > 0 {
		return file.Metadata, nil
	}
	return a.client.Meta(ctx, file.ID)
}
