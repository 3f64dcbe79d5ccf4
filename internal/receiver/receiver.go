// Package receiver accepts inbound Beast/AVR connections and feeds
// decoded frames into a Tracker (§4.4, §4.7). The accept loop uses a
// short deadline so it can be cancelled promptly via context, the way
// a long-lived network server typically composes with ctx cancellation
// in this corpus's CLI entrypoints (lib/setup, cmd/pw_ingest).
package receiver

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"atctrace/internal/beast"
	"atctrace/internal/metrics"
	"atctrace/internal/modes"
	"atctrace/internal/tracker"
)

const acceptTimeout = 1 * time.Second
const readTimeout = 30 * time.Second

// Server is a TCP listener that decodes Beast/AVR frames from every
// connection and folds them into a single shared Tracker.
type Server struct {
	addr   string
	trk    *tracker.Tracker
	filter *Filter

	wg sync.WaitGroup
}

func New(addr string, trk *tracker.Tracker) *Server {
	return &Server{addr: addr, trk: trk}
}

// ListenAndServe blocks accepting connections until ctx is cancelled,
// then waits for in-flight connections to drain before returning.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		tcpLn = nil
	}
	log.Info().Str("addr", s.addr).Msg("receiver listening")

	defer func() {
		_ = ln.Close()
		s.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if tcpLn != nil {
			_ = tcpLn.SetDeadline(time.Now().Add(acceptTimeout))
		}
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}

		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	connID := uuid.New()
	logger := log.With().Str("conn", connID.String()).Str("remote", conn.RemoteAddr().String()).Logger()
	logger.Debug().Msg("connection opened")

	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	sp := beast.NewStreamParser()
	buf := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := conn.Read(buf)
		if n > 0 {
			sp.Feed(buf[:n])
			for {
				hexFrame, ok := sp.Next()
				if !ok {
					break
				}
				s.ingestHex(hexFrame)
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			logger.Debug().Err(err).Msg("connection closed")
			return
		}
	}
}

func (s *Server) ingestHex(hexFrame string) {
	mf, err := modes.NewFrame(hexFrame)
	if err != nil {
		metrics.FramesDroppedTotal.WithLabelValues("bad_hex").Inc()
		return
	}
	if err := mf.Decode(); err != nil {
		metrics.FramesDroppedTotal.WithLabelValues(err.Error()).Inc()
		return
	}
	if !s.filter.Allows(mf.Icao()) {
		metrics.FramesDroppedTotal.WithLabelValues("filtered").Inc()
		return
	}
	metrics.InboundFramesTotal.WithLabelValues("beast").Inc()
	s.trk.IngestFrame(mf)
}
