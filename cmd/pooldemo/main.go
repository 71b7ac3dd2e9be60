// Command pooldemo drives the resource pool against a live backend: pooled
// postgres connections or pooled websocket sessions, under rate-limited
// acquire load, with optional OTLP metrics export.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/jackc/pgx/v5"
	"golang.org/x/time/rate"

	"github.com/esroyo/generic-pool/config"
	"github.com/esroyo/generic-pool/lib/telemetry"
	"github.com/esroyo/generic-pool/pkg/pool"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	var (
		backend      = flag.String("backend", "pg", "pooled backend: pg or ws")
		dsn          = flag.String("dsn", "postgres://localhost:5432/postgres", "postgres DSN for -backend pg")
		wsURL        = flag.String("ws-url", "wss://echo.websocket.org", "websocket URL for -backend ws")
		configPath   = flag.String("config", "", "optional YAML pool configuration")
		maxResources = flag.Int("max", 4, "pool capacity (overridden by -config)")
		minResources = flag.Int("min", 1, "pool minimum (overridden by -config)")
		acquireRate  = flag.Float64("rate", 5, "acquire operations per second")
		duration     = flag.Duration("duration", 30*time.Second, "how long to run the load loop")
		otlpEndpoint = flag.String("otlp-endpoint", "", "OTLP metrics endpoint (empty disables export)")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Writer(), "pooldemo ", log.LstdFlags)

	_, telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		OTLPEndpoint: *otlpEndpoint,
		ServiceName:  "pooldemo",
	})
	if err != nil {
		logger.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logger.Printf("telemetry shutdown: %v", err)
		}
	}()

	opts := pool.Options{Name: "pooldemo", Max: *maxResources, Min: *minResources}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
		opts = loaded
	}
	opts = config.FromEnv(opts)

	switch *backend {
	case "pg":
		err = runPostgres(ctx, logger, opts, *dsn, *acquireRate, *duration)
	case "ws":
		err = runWebsocket(ctx, logger, opts, *wsURL, *acquireRate, *duration)
	default:
		logger.Fatalf("unknown backend %q", *backend)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("run: %v", err)
	}
}

func runPostgres(ctx context.Context, logger *log.Logger, opts pool.Options, dsn string, acquireRate float64, duration time.Duration) error {
	factory := pool.Factory[*pgx.Conn]{
		Create: func(ctx context.Context) (*pgx.Conn, error) {
			return pgx.Connect(ctx, dsn)
		},
		Destroy: func(ctx context.Context, conn *pgx.Conn) error {
			return conn.Close(ctx)
		},
		Validate: func(ctx context.Context, conn *pgx.Conn) (bool, error) {
			return conn.Ping(ctx) == nil, nil
		},
	}
	return runLoad(ctx, logger, factory, opts, acquireRate, duration,
		func(ctx context.Context, conn *pgx.Conn) error {
			var one int
			return conn.QueryRow(ctx, "select 1").Scan(&one)
		})
}

func runWebsocket(ctx context.Context, logger *log.Logger, opts pool.Options, url string, acquireRate float64, duration time.Duration) error {
	factory := pool.Factory[*websocket.Conn]{
		Create: func(ctx context.Context) (*websocket.Conn, error) {
			conn, _, err := websocket.Dial(ctx, url, nil)
			return conn, err
		},
		Destroy: func(_ context.Context, conn *websocket.Conn) error {
			return conn.Close(websocket.StatusNormalClosure, "pool destroy")
		},
		Validate: func(ctx context.Context, conn *websocket.Conn) (bool, error) {
			pingCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			return conn.Ping(pingCtx) == nil, nil
		},
	}
	return runLoad(ctx, logger, factory, opts, acquireRate, duration,
		func(ctx context.Context, conn *websocket.Conn) error {
			return conn.Ping(ctx)
		})
}

// runLoad paces acquisitions with a token-bucket limiter, runs work on each
// borrowed resource, and finishes with the drain/clear shutdown protocol.
func runLoad[T comparable](
	ctx context.Context,
	logger *log.Logger,
	factory pool.Factory[T],
	opts pool.Options,
	acquireRate float64,
	duration time.Duration,
	work func(context.Context, T) error,
) error {
	p, err := pool.New(factory, opts)
	if err != nil {
		return err
	}
	offCreate := p.On(pool.EventFactoryCreateError, func(err error) {
		logger.Printf("factory create error: %v", err)
	})
	defer offCreate()
	offDestroy := p.On(pool.EventFactoryDestroyError, func(err error) {
		logger.Printf("factory destroy error: %v", err)
	})
	defer offDestroy()

	readyCtx, cancelReady := context.WithTimeout(ctx, 30*time.Second)
	err = p.Ready(readyCtx)
	cancelReady()
	if err != nil {
		return err
	}
	logger.Printf("pool ready: %s", statsLine(p.Stats()))

	limiter := rate.NewLimiter(rate.Limit(acquireRate), 1)
	loadCtx, cancelLoad := context.WithTimeout(ctx, duration)
	defer cancelLoad()

	var wg sync.WaitGroup
	for {
		if err := limiter.Wait(loadCtx); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Use(loadCtx, work); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				logger.Printf("use: %v", err)
			}
		}()
	}
	wg.Wait()
	logger.Printf("load finished: %s", statsLine(p.Stats()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := p.Drain(shutdownCtx); err != nil {
		return err
	}
	if err := p.Clear(shutdownCtx); err != nil {
		return err
	}
	logger.Printf("pool shut down: %s", statsLine(p.Stats()))
	return nil
}

func statsLine(s pool.Stats) string {
	data, err := s.JSON()
	if err != nil {
		return err.Error()
	}
	return string(data)
}
