package simulator

import (
	"context"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"atctrace/internal/beast"
	"atctrace/internal/tracker"
)

func TestSeedFleetPopulatesTracker(t *testing.T) {
	trk := tracker.New(time.Minute, nil)
	rng := rand.New(rand.NewSource(42))
	SeedFleet(trk, 5, 33.75, -84.38, rng)
	require.Len(t, trk.Fleet(), 5)
}

func TestDriverEmitsOverTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 64)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				received <- chunk
			}
			if err != nil {
				return
			}
		}
	}()

	trk := tracker.New(time.Minute, nil)
	rng := rand.New(rand.NewSource(1))
	SeedFleet(trk, 2, 33.75, -84.38, rng)

	for _, a := range trk.Fleet() {
		a.LastIdentSec = -1000
		a.LastPositionSec = -1000
		a.LastVelocitySec = -1000
	}

	d := NewDriver(ln.Addr().String(), trk)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err = d.Run(ctx)
	require.NoError(t, err)

	var total []byte
	drain := true
	for drain {
		select {
		case chunk := <-received:
			total = append(total, chunk...)
		case <-time.After(50 * time.Millisecond):
			drain = false
		}
	}
	require.NotEmpty(t, total)

	sp := beast.NewStreamParser()
	sp.Feed(total)
	count := 0
	for {
		_, ok := sp.Next()
		if !ok {
			break
		}
		count++
	}
	require.Greater(t, count, 0)
}
