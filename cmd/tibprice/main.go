package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	prom "github.com/prometheus/client_golang/prometheus"

	"tibprice/internal/cache"
	"tibprice/internal/config"
	"tibprice/internal/fetch"
	"tibprice/internal/logging"
	"tibprice/internal/metrics"
	"tibprice/internal/price"
	"tibprice/internal/recorder"
	"tibprice/internal/render"
	"tibprice/internal/tibber"
	"tibprice/internal/worker"
)

// The daemon's fetcher is effectively unbounded: the worker has nothing
// better to do than keep trying, with the delay between attempts capped at
// one hour.
const (
	daemonMaxRetries   = 9999
	daemonInitialDelay = time.Second
	daemonMaxDelay     = time.Hour
)

// firstPriceTimeout bounds one waiting round for the first price list in
// daemon mode; after every round a reassuring line is logged.
const firstPriceTimeout = 15 * time.Minute

var CLI struct {
	Config       string `help:"Configuration file path." type:"path"`
	Token        string `short:"t" help:"Tibber API access token." env:"TIBBER_TOKEN"`
	HomeID       string `short:"i" help:"Optional ID of the home to fetch prices for." env:"TIBBER_HOME_ID"`
	PricesFile   string `short:"p" help:"Path used to store the price data fetched from Tibber (default prices.json)."`
	MaxRetries   int    `short:"r" help:"Maximum number of retries for Tibber API requests (default 3)." default:"-1"`
	InitialDelay int    `short:"d" help:"Initial retry delay in seconds (default 1)." default:"-1"`
	MaxDelay     int    `short:"D" help:"Maximum retry delay in seconds (default 60)." default:"-1"`
	UpdateTime   string `short:"u" help:"Time of day when new prices are expected, 24-hour HH:MM (default 13:00)."`
	Connect      string `short:"c" help:"Connection mode: auto, never or always (default auto)."`
	Output       string `short:"o" help:"Output style: none, json, json-pretty, csv or plain (default json)."`
	LogLevel     string `short:"l" help:"Log level: debug, info, warn or error (default warn)."`

	Price struct{} `cmd:"" default:"1" help:"Output the active price."`
	Homes struct{} `cmd:"" help:"List all homes that can be used with the supplied access token."`

	Daemon struct {
		MetricsListen string `help:"Address to serve Prometheus metrics on; empty disables the endpoint."`
		HistoryFile   string `help:"SQLite file to append price history to; empty disables it."`
	} `cmd:"" help:"Run in daemon mode to continuously fetch and output active prices."`
}

func main() {
	// A missing .env file is fine. Load it before kong resolves env-tagged
	// flags.
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name("tibprice"),
		kong.Description("Get the active energy price from Tibber. It's very fast because it uses a local cache and only connects to Tibber when needed."),
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	if err := logging.Setup(cfg.LogLevel); err != nil {
		slog.Error("set up logging", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	updateTime, err := price.ParseUpdateTime(cfg.UpdateTime)
	if err != nil {
		slog.Error("parse price update time", "error", err)
		os.Exit(1)
	}
	format, err := render.ParseFormat(cfg.OutputFormat)
	if err != nil {
		slog.Error("parse output format", "error", err)
		os.Exit(1)
	}
	mode, err := config.ParseConnectMode(cfg.ConnectMode)
	if err != nil {
		slog.Error("parse connect mode", "error", err)
		os.Exit(1)
	}

	slog.Info("starting tibber price tool")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var runErr error
	switch kctx.Command() {
	case "price":
		runErr = runPrice(ctx, cfg, mode, updateTime, format)
	case "homes":
		runErr = runHomes(ctx, cfg, mode, format)
	case "daemon":
		runErr = runDaemon(ctx, cfg, mode, updateTime, format)
	}
	if runErr != nil {
		slog.Error("command failed", "error", runErr)
		os.Exit(1)
	}
	slog.Info("tibber price tool completed")
}

// applyFlags lays explicitly set command line flags over the loaded config.
// String flags default to empty and numeric flags to -1 so an unset flag
// never masks a config file value.
func applyFlags(cfg *config.Config) {
	if CLI.Token != "" {
		cfg.Tibber.Token = CLI.Token
	}
	if CLI.HomeID != "" {
		cfg.Tibber.HomeID = CLI.HomeID
	}
	if CLI.PricesFile != "" {
		cfg.PricesFile = CLI.PricesFile
	}
	if CLI.MaxRetries >= 0 {
		cfg.Fetch.MaxRetries = CLI.MaxRetries
	}
	if CLI.InitialDelay >= 0 {
		cfg.Fetch.InitialDelay = CLI.InitialDelay
	}
	if CLI.MaxDelay >= 0 {
		cfg.Fetch.MaxDelay = CLI.MaxDelay
	}
	if CLI.UpdateTime != "" {
		cfg.UpdateTime = CLI.UpdateTime
	}
	if CLI.Connect != "" {
		cfg.ConnectMode = CLI.Connect
	}
	if CLI.Output != "" {
		cfg.OutputFormat = CLI.Output
	}
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}
	if CLI.Daemon.MetricsListen != "" {
		cfg.Metrics.Listen = CLI.Daemon.MetricsListen
	}
	if CLI.Daemon.HistoryFile != "" {
		cfg.History.Path = CLI.Daemon.HistoryFile
	}
}

// newFetcher builds the production fetch stack: the GraphQL client wrapped
// with per-attempt instrumentation and retries.
func newFetcher(cfg *config.Config, met metrics.Recorder, maxRetries int, initialDelay, maxDelay time.Duration) fetch.Fetcher {
	client := tibber.New(tibber.DefaultAPIURL, cfg.Tibber.Token, cfg.Tibber.HomeID)
	return fetch.NewRetryer(fetch.Instrument(client, met), maxRetries, initialDelay, maxDelay)
}

// runPrice prints the price active right now, refreshing the cache file
// first when the connect mode allows it.
func runPrice(ctx context.Context, cfg *config.Config, mode config.ConnectMode, updateTime price.UpdateTime, format render.Format) error {
	if mode != config.ConnectNever && cfg.Tibber.Token == "" {
		return errors.New("access token is required when connect mode is not never")
	}

	local, err := price.Load(cfg.PricesFile)
	if err != nil {
		return err
	}

	if mode != config.ConnectNever {
		fetcher := newFetcher(cfg, metrics.NoopRecorder{},
			cfg.Fetch.MaxRetries,
			time.Duration(cfg.Fetch.InitialDelay)*time.Second,
			time.Duration(cfg.Fetch.MaxDelay)*time.Second)
		if _, err := worker.Refresh(ctx, &local, fetcher, updateTime, cfg.PricesFile, mode == config.ConnectAlways); err != nil {
			return fmt.Errorf("update prices: %w", err)
		}
	}

	out, err := render.ActivePriceAt(local, time.Now()).Render(format)
	if err != nil {
		return err
	}
	if format != render.FormatNone {
		fmt.Println(out)
	}
	return nil
}

// runHomes lists the homes available to the access token.
func runHomes(ctx context.Context, cfg *config.Config, mode config.ConnectMode, format render.Format) error {
	if mode == config.ConnectNever {
		return errors.New("connect mode is set to never")
	}
	if cfg.Tibber.Token == "" {
		return errors.New("access token is required when connect mode is not never")
	}

	client := tibber.New(tibber.DefaultAPIURL, cfg.Tibber.Token, cfg.Tibber.HomeID)
	homes, err := client.ListHomes(ctx)
	if err != nil {
		return fmt.Errorf("fetch homes: %w", err)
	}

	views := make([]render.Home, len(homes))
	for i, h := range homes {
		views[i] = render.Home{ID: h.ID, Nickname: h.AppNickname}
	}
	out, err := render.Homes(views, format)
	if err != nil {
		return err
	}
	if format != render.FormatNone {
		fmt.Println(out)
	}
	return nil
}

// runDaemon keeps a background worker refreshing the cache and prints the
// active price whenever it changes, until a shutdown signal arrives.
func runDaemon(ctx context.Context, cfg *config.Config, mode config.ConnectMode, updateTime price.UpdateTime, format render.Format) error {
	slog.Info("starting daemon mode")
	slog.Info("expecting a new price list every day", "at", updateTime.String())

	if mode != config.ConnectNever && cfg.Tibber.Token == "" {
		return errors.New("access token is required when connect mode is not never")
	}

	local, err := price.Load(cfg.PricesFile)
	if err != nil {
		return err
	}
	wasEmpty := local.IsEmpty()
	shared := cache.New(local)

	var met metrics.Recorder = metrics.NoopRecorder{}
	var metricsSrv *http.Server
	if cfg.Metrics.Listen != "" {
		reg := prom.NewRegistry()
		met = metrics.NewPrometheusRecorder(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.HTTPHandler(reg))
		metricsSrv = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			slog.Info("serving metrics", "addr", cfg.Metrics.Listen)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	rec := recorder.Recorder(recorder.NewNoopRecorder())
	if cfg.History.Path != "" {
		sqliteRec, err := recorder.NewSQLiteRecorder(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		rec = sqliteRec
	}
	defer rec.Close()

	var wg sync.WaitGroup
	if mode == config.ConnectNever {
		slog.Warn("not starting background worker because connect mode is set to never")
	} else {
		fetcher := newFetcher(cfg, met, daemonMaxRetries, daemonInitialDelay, daemonMaxDelay)
		w := worker.NewWorker(shared, fetcher, updateTime, cfg.PricesFile)
		w.Recorder = rec
		w.Metrics = met

		workerCtx := logging.With(ctx, slog.Default().With("component", "worker"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(workerCtx)
		}()
	}

	// With an empty cache there is nothing sensible to print yet, so hold
	// the foreground until the worker lands a first series.
	if wasEmpty {
		slog.Info("waiting for first price from background worker")
		for ctx.Err() == nil {
			if _, ok := shared.AwaitNewerThan(ctx, time.Now(), firstPriceTimeout); ok {
				break
			}
			if ctx.Err() == nil {
				slog.Info("still waiting for first price")
			}
		}
	}

	prices := shared.Snapshot()
	for ctx.Err() == nil {
		out, err := render.ActivePriceAt(prices, time.Now()).Render(format)
		if err != nil {
			slog.Error("render active price", "error", err)
		} else if format != render.FormatNone {
			fmt.Println(out)
		}

		baseline := time.Now()
		if last, ok := prices.Recency(); ok {
			baseline = last
		}
		wait, ok := prices.DurationUntilNextActiveChange(time.Now())
		if !ok {
			wait = time.Minute
		}
		slog.Info("sleeping until the next active price", "wait", logging.DurationString(wait))
		if newer, changed := shared.AwaitNewerThan(ctx, baseline, wait); changed {
			slog.Debug("new prices available, updating")
			prices = newer
		}
	}

	slog.Info("shutdown signal received, stopping")
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("stop metrics server", "error", err)
		}
	}
	wg.Wait()
	slog.Info("daemon stopped")
	return nil
}
