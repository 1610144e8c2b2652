package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/xkcdbot"
	"github.com/fwojciec/xkcdbot/bleve"
	"github.com/fwojciec/xkcdbot/fs"
	"github.com/fwojciec/xkcdbot/goquery"
	xhttp "github.com/fwojciec/xkcdbot/http"
	"github.com/fwojciec/xkcdbot/ingest"
	"github.com/fwojciec/xkcdbot/search"
	xslog "github.com/fwojciec/xkcdbot/slog"
	"github.com/fwojciec/xkcdbot/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database, opened when the sqlite store is selected.
	DB *sqlite.DB

	// Search index opened for the current command.
	Index *bleve.Index

	fetcher xkcdbot.Fetcher
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close releases the index, database and HTTP fetcher.
func (m *Main) Close() error {
	var firstErr error
	if m.Index != nil {
		if err := m.Index.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.DB != nil {
		if err := m.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.fetcher != nil {
		if err := m.fetcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("xkcdbot"),
		kong.Description("Full-text search over xkcd comics and their transcripts."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'xkcdbot --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Config = &cli.Config
	deps.Logger = newLogger(stderr, cli.LogLevel)
	if err := m.wire(deps); err != nil {
		m.Close()
		return err
	}
	defer m.Close()

	return kongCtx.Run(deps)
}

// wire opens the store and index and builds the ingestion and query services.
func (m *Main) wire(deps *Dependencies) error {
	cfg := deps.Config
	logger := deps.Logger

	var store xkcdbot.ComicStore
	switch cfg.Store {
	case storeSQLite:
		db, err := sqlite.Open(deps.Ctx, cfg.State)
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Set XKCDBOT_STATE to use a different database path")
			return fmt.Errorf("failed to open database at %q: %w", cfg.State, err)
		}
		m.DB = db
		store = sqlite.NewComicStore(m.DB, sqlite.WithLogger(logger))
	default:
		store = fs.NewComicStore(cfg.State, fs.WithLogger(logger))
	}
	deps.Store = xslog.NewLoggingComicStore(store, logger)

	index, err := bleve.Open(cfg.Index)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	m.Index = index
	deps.Index = index

	m.fetcher = xslog.NewLoggingFetcher(xhttp.NewFetcher(xhttp.WithTimeout(cfg.Timeout)), logger)
	opts := []xhttp.ComicOption{xhttp.WithBaseURLs(cfg.ComicURL, cfg.ExplainURL)}
	if cfg.RPS > 0 {
		opts = append(opts, xhttp.WithLimiter(xhttp.NewDomainLimiter(cfg.RPS, 1)))
	}
	fetcher := xslog.NewLoggingComicFetcher(
		xhttp.NewComicFetcher(m.fetcher, goquery.NewTranscriptExtractor(), opts...),
		logger,
	)

	policy := ingest.FailFast
	if cfg.SkipFailed {
		policy = ingest.SkipFailed
	}
	deps.Controller = &ingest.Controller{
		Fetcher: fetcher,
		Pool:    &ingest.Pool{Fetcher: fetcher, Workers: cfg.Workers, Policy: policy},
		Store:   deps.Store,
		Index:   index,
		Window:  cfg.Window,
		Logger:  logger,
	}
	deps.Queries = &search.Service{
		Searcher: xslog.NewLoggingSearcher(index, logger),
		Logger:   logger,
	}
	return nil
}

// newLogger returns a text logger writing to w at the named level.
func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
