// Command eventscrape runs the event metadata extraction API server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"golang.org/x/sync/errgroup"

	"github.com/fwojciec/eventscrape"
	"github.com/fwojciec/eventscrape/gemini"
	"github.com/fwojciec/eventscrape/goquery"
	eshttp "github.com/fwojciec/eventscrape/http"
	"github.com/fwojciec/eventscrape/htmltomarkdown"
	"github.com/fwojciec/eventscrape/readability"
	"github.com/fwojciec/eventscrape/rod"
	"github.com/fwojciec/eventscrape/scrape"
	esslog "github.com/fwojciec/eventscrape/slog"
	"github.com/fwojciec/eventscrape/trafilatura"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("eventscrape"),
		kong.Description("Extract structured event metadata from webpages with an LLM"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	switch kctx.Command() {
	case "serve":
		return m.runServe(ctx, cli, stderr)
	default:
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Serve ServeCmd `cmd:"" help:"Run the API server."`
}

// ServeCmd holds the server configuration. Every flag has an env fallback so
// containerized deployments need no arguments.
type ServeCmd struct {
	Addr            string `default:":8000" env:"EVENTSCRAPE_ADDR" help:"Listen address."`
	RateLimit       int    `default:"10" env:"EVENTSCRAPE_RATE_LIMIT" help:"Requests per client per minute (0 disables)."`
	MaxDigestLength int    `default:"8000" env:"EVENTSCRAPE_MAX_DIGEST_LENGTH" help:"Digest length bound in characters."`
	Cleaner         string `default:"goquery" enum:"goquery,readability,trafilatura" env:"EVENTSCRAPE_CLEANER" help:"HTML cleaning strategy."`
	Converter       string `default:"commonmark" enum:"commonmark,plain" env:"EVENTSCRAPE_CONVERTER" help:"Markdown conversion strategy."`
	Rendered        bool   `default:"true" negatable:"" env:"EVENTSCRAPE_RENDERED" help:"Enable headless browser fetching."`
	LogLevel        string `default:"info" enum:"debug,info,warn,error" env:"EVENTSCRAPE_LOG_LEVEL" help:"Log level."`
	Debug           bool   `env:"EVENTSCRAPE_DEBUG" help:"Include internal error details in responses."`
}

func (m *Main) runServe(ctx context.Context, cli *CLI, stderr io.Writer) error {
	cmd := cli.Serve

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{
		Level: logLevel(cmd.LogLevel),
	}))

	converter, err := newConverter(cmd.Converter)
	if err != nil {
		return err
	}

	var simple eventscrape.Fetcher = esslog.NewLoggingFetcher(eshttp.NewFetcher(), logger)
	defer simple.Close()

	var rendered eventscrape.Fetcher
	if cmd.Rendered {
		rendered = esslog.NewLoggingFetcher(rod.NewFetcher(), logger)
		defer rendered.Close()
	}

	service := &scrape.Service{
		Simple:          simple,
		Rendered:        rendered,
		Cleaner:         newCleaner(cmd.Cleaner),
		Converter:       converter,
		Extractor:       esslog.NewLoggingEventExtractor(gemini.NewEventExtractor(), logger),
		MaxDigestLength: cmd.MaxDigestLength,
	}

	var limiter eventscrape.ClientLimiter
	if cmd.RateLimit > 0 {
		limiter = eshttp.NewClientLimiter(eshttp.WithRate(cmd.RateLimit, eshttp.DefaultRateWindow))
	}

	server := eshttp.NewServer(service, limiter, logger)
	server.Debug = cmd.Debug
	if err := server.Open(cmd.Addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Serve)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return server.Close()
	})
	return g.Wait()
}

func newCleaner(strategy string) eventscrape.Cleaner {
	switch strategy {
	case "readability":
		return readability.NewCleaner()
	case "trafilatura":
		return trafilatura.NewCleaner()
	default:
		return goquery.NewCleaner()
	}
}

func newConverter(strategy string) (eventscrape.Converter, error) {
	return htmltomarkdown.NewConverter(htmltomarkdown.Strategy(strategy))
}

func logLevel(name string) slog.Level {
	switch name {
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
