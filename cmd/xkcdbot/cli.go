package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/xkcdbot"
	"github.com/fwojciec/xkcdbot/bleve"
	"github.com/fwojciec/xkcdbot/ingest"
)

// Store backends.
const (
	storeJSON   = "json"
	storeSQLite = "sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	Config     *Config
	Store      xkcdbot.ComicStore
	Index      *bleve.Index
	Controller *ingest.Controller
	Queries    xkcdbot.QueryHandler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config `embed:""`

	Serve  ServeCmd  `cmd:"" help:"Keep the catalogue fresh and answer queries"`
	Update UpdateCmd `cmd:"" help:"Run a single update cycle"`
	Search SearchCmd `cmd:"" help:"Search the local catalogue"`
}

// Config holds settings shared by every command.
type Config struct {
	State      string        `default:"xkcd.json" env:"XKCDBOT_STATE" help:"Comic store path"`
	Store      string        `default:"json" enum:"json,sqlite" env:"XKCDBOT_STORE" help:"Store backend (json, sqlite)"`
	Index      string        `env:"XKCDBOT_INDEX" help:"Search index directory (empty keeps it in memory)"`
	Workers    int           `default:"250" env:"XKCDBOT_WORKERS" help:"Concurrent comic fetches"`
	Window     int           `default:"4" env:"XKCDBOT_WINDOW" help:"Recent comics re-fetched on refresh"`
	Timeout    time.Duration `default:"10s" env:"XKCDBOT_TIMEOUT" help:"Per-request timeout"`
	RPS        float64       `name:"rps" default:"0" env:"XKCDBOT_RPS" help:"Requests per second per host (0 is unlimited)"`
	SkipFailed bool          `env:"XKCDBOT_SKIP_FAILED" help:"Commit a cycle even when some comics fail to fetch"`
	LogLevel   string        `default:"info" enum:"debug,info,warn,error" env:"XKCDBOT_LOG_LEVEL" help:"Log level"`
	ComicURL   string        `name:"comic-url" default:"https://xkcd.com" env:"XKCDBOT_COMIC_URL" hidden:""`
	ExplainURL string        `name:"explain-url" default:"https://www.explainxkcd.com/wiki/index.php" env:"XKCDBOT_EXPLAIN_URL" hidden:""`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Interval    time.Duration `default:"24h" env:"XKCDBOT_INTERVAL" help:"Time between update cycles"`
	Token       string        `env:"TELEGRAM_TOKEN" help:"Telegram bot token"`
	HTTPAddr    string        `name:"http-addr" env:"XKCDBOT_HTTP_ADDR" help:"Listen address for the HTTP API (empty disables it)"`
	TelegramURL string        `name:"telegram-url" default:"https://api.telegram.org" env:"XKCDBOT_TELEGRAM_URL" hidden:""`
}

// UpdateCmd is the "update" subcommand.
type UpdateCmd struct{}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query []string `arg:"" help:"Query terms"`
}
