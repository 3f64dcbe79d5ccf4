// Command alertbot posts aircraft-seen/aircraft-lost notifications to
// a Discord channel, subscribing to the tracker's embedded event bus
// over NATS rather than polling HTTP. Adapted from the teacher's
// cmd/pw_discord_bot, which drove per-user alert configs off the same
// kind of lifecycle events; this command narrows that to one channel
// and drops the user/location bookkeeping (§1 Non-goals: no
// per-operator alert configuration).
package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"atctrace/internal/bus"
	"atctrace/internal/logging"
)

const (
	flagToken     = "discord-token"
	flagChannelID = "discord-channel"
	flagNatsAddr  = "nats-addr"
)

func main() {
	app := &cli.App{
		Name:  "alertbot",
		Usage: "post aircraft-seen/aircraft-lost notifications to Discord",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagToken, EnvVars: []string{"DISCORD_TOKEN"}, Required: true},
			&cli.StringFlag{Name: flagChannelID, EnvVars: []string{"DISCORD_CHANNEL"}, Required: true},
			&cli.StringFlag{Name: flagNatsAddr, Value: "nats://127.0.0.1:30002", Usage: "event bus address to subscribe to"},
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
		log.Fatal().Err(err).Msg("alertbot exited")
	}
}

func run(c *cli.Context) error {
	dg, err := discordgo.New("Bot " + c.String(flagToken))
	if err != nil {
		return errors.Wrap(err, "constructing discord session")
	}
	if err := dg.Open(); err != nil {
		return errors.Wrap(err, "opening discord session")
	}
	defer dg.Close()

	nc, err := nats.Connect(c.String(flagNatsAddr))
	if err != nil {
		return errors.Wrap(err, "connecting to event bus")
	}
	defer nc.Close()

	channelID := c.String(flagChannelID)
	sub, err := nc.Subscribe(bus.Subject, func(msg *nats.Msg) {
		var e bus.Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			log.Warn().Err(err).Msg("alertbot: malformed event")
			return
		}
		if _, err := dg.ChannelMessageSend(channelID, formatEvent(e)); err != nil {
			log.Warn().Err(err).Msg("alertbot: failed to post to discord")
		}
	})
	if err != nil {
		return errors.Wrap(err, "subscribing to event bus")
	}
	defer sub.Unsubscribe()

	log.Info().Str("channel", channelID).Msg("alertbot: listening")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}

func formatEvent(e bus.Event) string {
	switch e.Kind {
	case bus.AircraftSeen:
		return e.Callsign + " (" + icaoHex(e.Icao) + ") first seen"
	default:
		return e.Callsign + " (" + icaoHex(e.Icao) + ") lost"
	}
}

func icaoHex(icao uint32) string {
	const hexdigits = "0123456789ABCDEF"
	b := [6]byte{}
	v := icao
	for i := 5; i >= 0; i-- {
		b[i] = hexdigits[v&0xF]
		v >>= 4
	}
	return string(b[:])
}
