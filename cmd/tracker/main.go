// Command tracker runs the receiver (inbound Beast/AVR ingest), the
// HTTP view, and the embedded event bus over one shared Tracker.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"atctrace/internal/bus"
	"atctrace/internal/logging"
	"atctrace/internal/receiver"
	"atctrace/internal/storage"
	"atctrace/internal/tracker"
	"atctrace/internal/view"
)

const (
	flagListenAddr = "listen-addr"
	flagHTTPAddr   = "http-addr"
	flagTimeout    = "timeout"
	flagNatsAddr   = "nats-addr"
	flagHistoryDSN = "history-dsn"
	flagConfig     = "config"
)

func main() {
	app := &cli.App{
		Name:  "tracker",
		Usage: "ingest Beast/AVR Mode-S frames and serve the live aircraft picture over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagListenAddr, Value: "0.0.0.0:30001", Usage: "address to accept inbound Beast/AVR connections on"},
			&cli.StringFlag{Name: flagHTTPAddr, Value: "127.0.0.1:8888", Usage: "address to serve the HTTP view on"},
			&cli.DurationFlag{Name: flagTimeout, Value: 60 * time.Second, Usage: "how long an aircraft may go unseen before it is dropped"},
			&cli.StringFlag{Name: flagNatsAddr, Value: "127.0.0.1:30002", Usage: "embedded event bus listen address (host:port)"},
			&cli.StringFlag{Name: flagHistoryDSN, Usage: "optional Postgres DSN for the aircraft seen/lost history sink"},
			&cli.StringFlag{Name: flagConfig, Usage: "optional YAML config file; flags override values in it"},
		},
		Before: func(c *cli.Context) error {
			if cfg := c.String(flagConfig); cfg != "" {
				viper.SetConfigFile(cfg)
				if err := viper.ReadInConfig(); err != nil {
					return errors.Wrap(err, "reading config file")
				}
				for _, name := range []string{flagListenAddr, flagHTTPAddr, flagTimeout, flagNatsAddr, flagHistoryDSN} {
					if viper.IsSet(name) && !c.IsSet(name) {
						_ = c.Set(name, viper.GetString(name))
					}
				}
			}
			logging.SetLoggingLevel(c)
			return nil
		},
		Action: run,
	}
	logging.IncludeVerbosityFlags(app)
	logging.ConfigureForCli()

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("tracker exited")
	}
}

func run(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eventBus := bus.New()
	host, port, err := splitHostPort(c.String(flagNatsAddr))
	if err != nil {
		return errors.Wrap(err, "parsing nats-addr")
	}
	nb, err := bus.StartEmbedded(host, port)
	if err != nil {
		return errors.Wrap(err, "starting embedded event bus")
	}
	defer nb.Close()
	nb.Forward(eventBus.Subscribe(256))
	log.Info().Str("addr", nb.ClientURL()).Msg("event bus ready")

	trk := tracker.New(c.Duration(flagTimeout), eventBus)

	if dsn := c.String(flagHistoryDSN); dsn != "" {
		sink, err := storage.NewHistorySink(dsn)
		if err != nil {
			return errors.Wrap(err, "connecting history sink")
		}
		defer sink.Close()
		sink.Subscribe(eventBus.Subscribe(256))
		log.Info().Msg("history sink enabled")
	}

	recv := receiver.New(c.String(flagListenAddr), trk)
	httpSrv := view.New(trk)

	errCh := make(chan error, 2)
	go func() { errCh <- recv.ListenAndServe(ctx) }()
	go func() { errCh <- serveHTTP(ctx, c.String(flagHTTPAddr), httpSrv) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// serveHTTP runs an http.Server until ctx is cancelled, then shuts it
// down gracefully.
func serveHTTP(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("view listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return context.Canceled
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return context.Canceled
		}
		return err
	}
}
