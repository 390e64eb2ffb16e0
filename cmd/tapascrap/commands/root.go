package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"tapascrap/internal/archive"
	"tapascrap/internal/components/chrono"
	"tapascrap/internal/components/telemetry"
	"tapascrap/internal/config"
	"tapascrap/internal/db"
	"tapascrap/internal/scrapers/tapatalk"
	"tapascrap/pkg/serviceutil"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbOverride string
	debug      bool
)

// application holds everything a command needs, it is built before any command runs.
type application struct {
	config  config.Config
	conn    *sqlx.DB
	queries *db.Queries
	scraper archive.Scraper
	time    chrono.StandardImpl
	tel     telemetry.API
	otel    telemetry.Otel
	closed  bool
}

var app *application

var rootCmd = &cobra.Command{
	Use:           "tapascrap",
	Short:         "tapascrap archives a Tapatalk hosted phpBB board into a SQLite database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return app.close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json5", "path to the json5 config file")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "database file or libsql url, overrides database.file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func Execute() {
	ctx := serviceutil.SignalContext()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// PersistentPostRunE does not run after a failed command
		app.close()
		serviceutil.Fatal("tapascrap failed", err)
	}
}

func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbOverride != "" {
		cfg.Database.File = dbOverride
	}
	if debug {
		cfg.Debug = true
	}

	telemetry.InitSlog(cfg.Debug)
	tel := telemetry.SlogAPI{}

	otel, err := telemetry.SetupOtel(ctx, "tapascrap", cfg.Otlp)
	if err != nil {
		return nil, fmt.Errorf("setup otel: %w", err)
	}

	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	mode, err := tapatalk.ParseAuthorMode(cfg.AuthorMode)
	if err != nil {
		return nil, err
	}

	conn, err := db.OpenDB(cfg.Database.File)
	if err != nil {
		return nil, err
	}

	client, err := tapatalk.NewClient(tapatalk.ClientOptions{
		BaseUrl:           cfg.BaseUrl,
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, tel)
	if err != nil {
		conn.Close()
		return nil, err
	}
	walker := tapatalk.NewWalker(
		client,
		tapatalk.NewParser(mode, clock.Location()),
		int64(cfg.PostsPerPage),
		int64(cfg.TopicsPerPage),
		tel,
	)

	queries := db.New(conn)
	scraper := archive.NewScraper(
		queries,
		db.NewMakeTx(conn),
		walker,
		clock,
		tel,
		archive.Options{
			Forums:   cfg.Forums,
			Topics:   cfg.Topics,
			Progress: os.Stdout,
		},
	)

	return &application{
		config:  cfg,
		conn:    conn,
		queries: queries,
		scraper: scraper,
		time:    clock,
		tel:     tel,
		otel:    otel,
	}, nil
}

// close flushes otel and closes the database, later calls do nothing.
func (a *application) close() error {
	if a == nil || a.closed {
		return nil
	}
	a.closed = true
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.otel.Shutdown(ctx)
	if err != nil {
		a.tel.ReportWarning("otel.shutdown", err)
	}
	return a.conn.Close()
}

func parseIds(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
