// Package logging wires zerolog's global level and output format to
// CLI flags shared by every atctrace command, adapted from the
// teacher's lib/logging package.
package logging

import (
	"os"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const (
	VeryVerbose = "very-verbose"
	Debug       = "debug"
	Quiet       = "quiet"
	CPUProfile  = "cpu-profile"
)

// IncludeVerbosityFlags appends the standard logging/profiling flags
// to app and wires up CPU profile teardown on exit.
func IncludeVerbosityFlags(app *cli.App) {
	app.Flags = append(app.Flags,
		&cli.BoolFlag{
			Name:  VeryVerbose,
			Usage: "enable trace level logging",
		},
		&cli.BoolFlag{
			Name:    Debug,
			Usage:   "show extra debug information",
			EnvVars: []string{"DEBUG"},
		},
		&cli.BoolFlag{
			Name:    Quiet,
			Usage:   "only show errors",
			EnvVars: []string{"QUIET"},
		},
		&cli.StringFlag{
			Name:  CPUProfile,
			Usage: "write a CPU profile to this path",
		},
	)
	if app.After == nil {
		app.After = StopProfiling
	} else {
		f := app.After
		app.After = func(c *cli.Context) error {
			err := f(c)
			_ = StopProfiling(c)
			return err
		}
	}
	app.InvalidFlagAccessHandler = func(c *cli.Context, s string) {
		log.Fatal().Str("flag", s).Msg("invalid CLI flag")
	}
}

// SetLoggingLevel applies the verbosity flags and starts profiling if
// requested.
func SetLoggingLevel(c *cli.Context) {
	SetVerboseOrQuiet(c.Bool(VeryVerbose), c.Bool(Debug), c.Bool(Quiet))
	if c.String(CPUProfile) != "" {
		ConfigureForProfiling(c.String(CPUProfile))
	}
}

func SetVerboseOrQuiet(trace, verbose, quiet bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	switch {
	case trace:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}
}

func cliWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.UnixDate}
}

// ConfigureForCli switches the global logger to a human-readable
// console writer, used by every cmd/ entrypoint's main().
func ConfigureForCli() {
	log.Logger = log.Output(cliWriter())
}

func ConfigureForProfiling(outFile string) {
	f, err := os.Create(outFile)
	if err != nil {
		panic(err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		panic(err)
	}
}

func StopProfiling(c *cli.Context) error {
	fileName := c.String(CPUProfile)
	if fileName == "" {
		return nil
	}
	pprof.StopCPUProfile()

	f, err := os.Create("mem-" + fileName)
	if err != nil {
		panic(err)
	}
	if err := pprof.WriteHeapProfile(f); err != nil {
		panic(err)
	}
	return nil
}
