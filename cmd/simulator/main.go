// Command simulator generates a fleet of aircraft on circular flight
// paths and streams their Mode-S messages to a dump1090-style raw
// input port. Center latitude/longitude/aircraft count are gathered
// interactively, re-prompting on invalid input rather than aborting,
// the way original_source's AircraftSimulator.__init__ does.
package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"atctrace/internal/logging"
	"atctrace/internal/simulator"
	"atctrace/internal/tracker"
)

const (
	flagTarget     = "target"
	flagWireFormat = "wire-format"
)

func main() {
	app := &cli.App{
		Name:  "simulator",
		Usage: "generate a fleet of simulated aircraft and stream them as Beast/AVR frames",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagTarget, Value: "127.0.0.1:30001", Usage: "host:port of the raw Beast input to connect to"},
			&cli.StringFlag{Name: flagWireFormat, Value: "beast", Usage: "wire format to emit: beast|avr"},
		},
		Before: func(c *cli.Context) error {
			logging.SetLoggingLevel(c)
			return nil
		},
		Action: run,
	}
	logging.IncludeVerbosityFlags(app)
	logging.ConfigureForCli()

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("simulator exited")
	}
}

func run(c *cli.Context) error {
	wireFormat := strings.ToLower(c.String(flagWireFormat))
	if wireFormat != "beast" && wireFormat != "avr" {
		return fmt.Errorf("unknown --wire-format %q, want beast or avr", wireFormat)
	}

	reader := bufio.NewReader(os.Stdin)
	centerLat := promptFloat(reader, "Center latitude", -90, 90)
	centerLon := promptFloat(reader, "Center longitude", -180, 180)
	count := promptInt(reader, "Number of aircraft", 1, 500)

	trk := tracker.New(time.Minute, nil)
	rng := rand.New(rand.NewSource(deterministicSeed()))
	simulator.SeedFleet(trk, count, centerLat, centerLon, rng)

	fmt.Printf("Generated %d aircraft around %.4f, %.4f\n", count, centerLat, centerLon)
	for _, a := range trk.Fleet() {
		fmt.Printf("  %-8s (%06X) alt=%dft speed=%.0fkt radius=%.1fnm\n", a.Callsign, a.Icao, a.AltitudeFt, a.SpeedKn, a.RadiusNM)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	driver := simulator.NewDriver(c.String(flagTarget), trk)
	if wireFormat == "avr" {
		driver = driver.WithWireFormat(simulator.WireAVR)
	}
	log.Info().Str("target", c.String(flagTarget)).Str("wire_format", wireFormat).Msg("simulator: starting")
	return driver.Run(ctx)
}

func promptFloat(r *bufio.Reader, label string, min, max float64) float64 {
	for {
		fmt.Printf("%s [%.0f to %.0f]: ", label, min, max)
		line, _ := r.ReadString('\n')
		v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil || v < min || v > max {
			fmt.Println("  please enter a number in range")
			continue
		}
		return v
	}
}

func promptInt(r *bufio.Reader, label string, min, max int) int {
	for {
		fmt.Printf("%s [%d to %d]: ", label, min, max)
		line, _ := r.ReadString('\n')
		v, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || v < min || v > max {
			fmt.Println("  please enter a whole number in range")
			continue
		}
		return v
	}
}

func deterministicSeed() int64 {
	return time.Now().UnixNano()
}
