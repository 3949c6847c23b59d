// Command radarfeed is the 1090MHz edge feeder agent: it ingests a
// BEAST-framed ADS-B stream, filters, de-duplicates and authenticates
// it, and forwards it over UDP to a central aggregator.
//
// Grounded on the teacher's cmd/viz1090/main.go: flag-then-run
// structure, banner-style help text, and the same
// signal.Notify(syscall.SIGINT, syscall.SIGTERM) shutdown idiom,
// generalized to pflag per R2Northstar-Atlas's cmd/atlas/main.go
// env-file-then-flags layering.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/1090mhz-uk/radarfeed/internal/classifier"
	"github.com/1090mhz-uk/radarfeed/internal/config"
	"github.com/1090mhz-uk/radarfeed/internal/egress"
	"github.com/1090mhz-uk/radarfeed/internal/ingest"
	applog "github.com/1090mhz-uk/radarfeed/internal/log"
	"github.com/1090mhz-uk/radarfeed/internal/metrics"
	"github.com/1090mhz-uk/radarfeed/internal/privdrop"
	"github.com/1090mhz-uk/radarfeed/internal/sched"
	"github.com/1090mhz-uk/radarfeed/internal/serial"
	"github.com/1090mhz-uk/radarfeed/internal/watch"
	"golang.org/x/sys/unix"
)

func main() {
	cfg := config.Default()

	// Layering, lowest to highest precedence: built-in defaults, the
	// env file, the process environment, command-line flags. --env-file
	// itself has to be known before the env file can be applied, so it
	// gets its own small bootstrap pass ahead of the real flag set.
	envFile := bootstrapEnvFile(os.Args[1:])
	if envFile != "" {
		f, err := os.Open(envFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "radarfeed: open env file: %v\n", err)
			os.Exit(1)
		}
		err = cfg.ApplyEnvFile(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "radarfeed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.ApplyEnviron(); err != nil {
		fmt.Fprintf(os.Stderr, "radarfeed: %v\n", err)
		os.Exit(1)
	}

	// BindFlags captures cfg's current (env-file/environ-overridden)
	// values as each flag's default, so an explicit command-line flag
	// is the only thing that can still override them.
	pflag.String("env-file", envFile, "path to a RADARFEED_* env file, applied before flags")
	metricsAddr := pflag.String("metrics-addr", "", "loopback address to serve Prometheus metrics on (empty disables)")
	watchEnvFile := pflag.Bool("watch-env-file", false, "re-read --env-file into the config on write; the running loop keeps its original API key and PSK")
	logPretty := pflag.Bool("log-pretty", false, "human-readable console log output instead of JSON")
	showHelp := pflag.BoolP("help", "h", false, "show this help")
	flags := cfg.BindFlags(pflag.CommandLine)
	pflag.Parse()

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if err := flags.Resolve(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "radarfeed: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "radarfeed: %v\n", err)
		os.Exit(1)
	}

	logger := applog.New(cfg.Debug, *logPretty)
	logger.Info().Msg("starting")

	if unix.Getuid() == 0 && (cfg.User != "" || cfg.Group != "") {
		if err := privdrop.To(cfg.User, cfg.Group); err != nil {
			logger.Fatal().Err(err).Msg("privilege drop failed")
		}
		logger.Info().Str("user", cfg.User).Str("group", cfg.Group).Msg("dropped privileges")
	}

	source, err := buildSource(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("build ingest source")
	}

	eg := egress.New(egress.Config{
		Host:        cfg.AggregatorHost,
		Port:        cfg.AggregatorPort,
		DSCP:        cfg.DSCP,
		RebindEvery: time.Duration(cfg.RebindIntervalS) * time.Second,
	})

	policy := classifier.Policy{
		ForwardModeAC:     cfg.ForwardModeAC,
		ForwardModeS:      cfg.ForwardModeS,
		ForwardEverything: cfg.ForwardEverything,
		BatchExtended:     cfg.MultiFrameEnable,
	}

	loop := sched.New(sched.Config{
		APIKey:             cfg.APIKey,
		MultiFrameEnable:   cfg.MultiFrameEnable,
		MultiFrameInterval: time.Duration(cfg.MultiFrameMs) * time.Millisecond,
		RadioStatsInterval: time.Duration(cfg.RadioStatsIntervalS) * time.Second,
		TelemetryInterval:  time.Duration(cfg.TelemetryIntervalS) * time.Second,
	}, source, eg, policy, []byte(cfg.PSK))

	if *metricsAddr != "" {
		srv, err := metrics.Serve(*metricsAddr, metrics.NewCollector(loop.StatsSnapshot, loop.TelemetrySnapshot))
		if err != nil {
			logger.Fatal().Err(err).Msg("start metrics listener")
		}
		defer srv.Close()
		logger.Info().Str("addr", *metricsAddr).Msg("serving metrics")
	}

	// The reload callback re-parses the env file into cfg only. loop was
	// built with its own copy of the API key and a signer derived from
	// the PSK, so reloaded credentials do not reach outbound datagrams.
	if finalEnvFile := pflag.Lookup("env-file").Value.String(); *watchEnvFile && finalEnvFile != "" {
		w, err := watch.New(finalEnvFile, func(path string) {
			f, err := os.Open(path)
			if err != nil {
				logger.Error().Err(err).Msg("reopen env file for reload")
				return
			}
			defer f.Close()
			if err := cfg.ApplyEnvFile(f); err != nil {
				logger.Error().Err(err).Msg("reload env file")
				return
			}
			logger.Info().Msg("reloaded env file")
		})
		if err != nil {
			logger.Error().Err(err).Msg("start env file watcher")
		} else {
			defer w.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	if err := loop.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("event loop exited with error")
	}
	logger.Info().Msg("stopped")
}

// bootstrapEnvFile scans raw argv for --env-file/--env-file=value
// ahead of the real flag parse, since the env file itself has to be
// applied to cfg before BindFlags captures cfg's fields as flag
// defaults. It deliberately ignores every other flag.
func bootstrapEnvFile(args []string) string {
	for i, a := range args {
		switch {
		case a == "--env-file":
			if i+1 < len(args) {
				return args[i+1]
			}
		case len(a) > len("--env-file=") && a[:len("--env-file=")] == "--env-file=":
			return a[len("--env-file="):]
		}
	}
	return ""
}

func buildSource(cfg *config.Config) (*ingest.Source, error) {
	switch cfg.IngestMode {
	case config.IngestBeastTCP:
		return ingest.NewTCP(cfg.DecoderAddress, cfg.IngestPort), nil
	case config.IngestBeastSerial3M:
		return ingest.NewSerial(cfg.SerialDevice, serial.BaudNative3M), nil
	case config.IngestBeastSerial921:
		return ingest.NewSerial(cfg.SerialDevice, serial.BaudHULC921k), nil
	default:
		return nil, fmt.Errorf("unrecognized ingest mode %q", cfg.IngestMode)
	}
}

func printHelp() {
	fmt.Print(`
-----------------------------------------------------------------------------
|                      radarfeed 1090MHz edge feeder                        |
-----------------------------------------------------------------------------
Usage: radarfeed [options]

Options:
  --api-key <hex>              64-bit station identity key (required)
  --psk <secret>                pre-shared secret, <=64 bytes
  --aggregator-host <host>      aggregator hostname
  --aggregator-port <port>      aggregator UDP port
  --decoder-address <addr>      local BEAST-over-TCP decoder address
  --ingest-port <port>          local BEAST-over-TCP decoder port
  --ingest-mode <mode>          beast-tcp | beast-serial-3mbps | beast-serial-921k
  --serial-device <path>        serial device path
  --forward-mode-ac             forward Mode-A/C payloads
  --forward-mode-s              forward Mode-S Short payloads
  --forward-everything          bypass the DF 17-22 filter
  --multiframe                  enable multi-frame batching
  --multiframe-interval-ms <n>  multi-frame flush interval, 10-250ms
  --radio-stats-interval <s>    radio stats emission interval
  --telemetry-interval <s>      platform telemetry emission interval
  --dscp <n>                    DSCP value, 0-63
  --rebind-interval <s>         source-port rebind interval (0 disables)
  --user, --group <name>        privilege drop target
  --daemonize                   accepted; radarfeed always runs in the foreground
  --debug <n>                   debug verbosity level
  --env-file <path>             RADARFEED_* env file, applied before flags
  --watch-env-file              re-read --env-file on write (running loop keeps its key/PSK)
  --metrics-addr <host:port>    serve Prometheus metrics (empty disables)
  --log-pretty                  human-readable console logs
  --help                        show this help
`)
}
