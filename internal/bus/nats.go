package bus

import (
	"encoding/json"
	"errors"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// Subject is the NATS subject aircraft lifecycle events are published
// to by the embedded bridge, and what cmd/alertbot subscribes to.
const Subject = "atctrace.aircraft"

// NatsBridge forwards Events from an in-process Bus onto an embedded
// NATS server, so external processes (cmd/alertbot) can subscribe over
// the real NATS protocol without standing up a separate broker (§2
// Event Bus [ADD]).
type NatsBridge struct {
	srv *natsserver.Server
	nc  *nats.Conn
}

// StartEmbedded boots an in-process NATS server bound to host:port and
// connects a publisher client to it.
func StartEmbedded(host string, port int) (*NatsBridge, error) {
	opts := &natsserver.Options{Host: host, Port: port, NoLog: true, NoSigs: true}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, err
	}
	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		return nil, errors.New("bus: embedded nats server did not become ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		srv.Shutdown()
		return nil, err
	}
	return &NatsBridge{srv: srv, nc: nc}, nil
}

// ClientURL returns the URL other processes (cmd/alertbot) connect to.
func (b *NatsBridge) ClientURL() string {
	return b.srv.ClientURL()
}

// Forward drains events and republishes each as JSON on Subject until
// the channel closes.
func (b *NatsBridge) Forward(events <-chan Event) {
	go func() {
		for e := range events {
			data, err := json.Marshal(e)
			if err != nil {
				continue
			}
			_ = b.nc.Publish(Subject, data)
		}
	}()
}

// Close tears down the publisher connection and the embedded server.
func (b *NatsBridge) Close() {
	b.nc.Close()
	b.srv.Shutdown()
}
