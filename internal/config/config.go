// Package config loads radarfeed's configuration: defaults, overridden
// by an optional env file parsed with github.com/hashicorp/go-envparse,
// overridden by github.com/spf13/pflag command-line flags. Grounded on
// the teacher's DefaultConfig()-then-override shape and on
// R2Northstar-Atlas's cmd/atlas/main.go env-file-then-flags layering
// (env parsed with envparse.Parse, flags registered with pflag).
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hashicorp/go-envparse"
	"github.com/spf13/pflag"
)

// IngestMode selects the transport the source supervisor uses.
type IngestMode string

const (
	IngestBeastTCP       IngestMode = "beast-tcp"
	IngestBeastSerial3M  IngestMode = "beast-serial-3mbps"
	IngestBeastSerial921 IngestMode = "beast-serial-921k"
)

// Config holds every recognized option enumerated in spec.md §6.
type Config struct {
	APIKey uint64
	PSK    string

	AggregatorHost string
	AggregatorPort int

	DecoderAddress string
	IngestPort     int
	IngestMode     IngestMode
	SerialDevice   string

	ForwardModeAC     bool
	ForwardModeS      bool
	ForwardEverything bool

	MultiFrameEnable bool
	MultiFrameMs     int

	RadioStatsIntervalS int
	TelemetryIntervalS  int

	DSCP            int
	RebindIntervalS int

	User, Group string
	Daemonize   bool
	Debug       int
}

// Default returns a Config populated with spec.md §6's documented
// defaults.
func Default() *Config {
	return &Config{
		PSK:                 "secret",
		AggregatorHost:      "adsb-in.1090mhz.uk",
		AggregatorPort:      5997,
		DecoderAddress:      "127.0.0.1",
		IngestPort:          30005,
		IngestMode:          IngestBeastTCP,
		SerialDevice:        "/dev/ttyUSB0",
		MultiFrameMs:        50,
		RadioStatsIntervalS: 900,
		TelemetryIntervalS:  900,
	}
}

// ApplyEnvFile overlays values parsed from an env file (KEY=VALUE,
// shell-style quoting/comments per envparse's grammar) onto c.
// Unrecognized keys are ignored; malformed recognized values are fatal
// at startup per spec.md §7.
func (c *Config) ApplyEnvFile(r io.Reader) error {
	vars, err := envparse.Parse(r)
	if err != nil {
		return fmt.Errorf("config: parse env file: %w", err)
	}
	return c.applyEnv(vars)
}

// ApplyEnviron overlays the process environment, filtered to the
// RADARFEED_* keys this config recognizes.
func (c *Config) ApplyEnviron() error {
	vars := map[string]string{}
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				vars[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return c.applyEnv(vars)
}

func (c *Config) applyEnv(vars map[string]string) error {
	str := func(key string, dst *string) error {
		if v, ok := vars[key]; ok {
			*dst = v
		}
		return nil
	}
	i := func(key string, dst *int) error {
		v, ok := vars[key]
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	b := func(key string, dst *bool) error {
		v, ok := vars[key]
		if !ok {
			return nil
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = parsed
		return nil
	}

	if v, ok := vars["RADARFEED_API_KEY"]; ok {
		key, err := strconv.ParseUint(v, 16, 64)
		if err != nil {
			return fmt.Errorf("config: RADARFEED_API_KEY: %w", err)
		}
		c.APIKey = key
	}
	if err := str("RADARFEED_PSK", &c.PSK); err != nil {
		return err
	}
	if err := str("RADARFEED_AGGREGATOR_HOST", &c.AggregatorHost); err != nil {
		return err
	}
	if err := i("RADARFEED_AGGREGATOR_PORT", &c.AggregatorPort); err != nil {
		return err
	}
	if err := str("RADARFEED_DECODER_ADDRESS", &c.DecoderAddress); err != nil {
		return err
	}
	if err := i("RADARFEED_INGEST_PORT", &c.IngestPort); err != nil {
		return err
	}
	if v, ok := vars["RADARFEED_INGEST_MODE"]; ok {
		c.IngestMode = IngestMode(v)
	}
	if err := str("RADARFEED_SERIAL_DEVICE", &c.SerialDevice); err != nil {
		return err
	}
	if err := b("RADARFEED_FORWARD_MODE_AC", &c.ForwardModeAC); err != nil {
		return err
	}
	if err := b("RADARFEED_FORWARD_MODE_S", &c.ForwardModeS); err != nil {
		return err
	}
	if err := b("RADARFEED_FORWARD_EVERYTHING", &c.ForwardEverything); err != nil {
		return err
	}
	if err := b("RADARFEED_MULTIFRAME_ENABLE", &c.MultiFrameEnable); err != nil {
		return err
	}
	if err := i("RADARFEED_MULTIFRAME_MS", &c.MultiFrameMs); err != nil {
		return err
	}
	if err := i("RADARFEED_RADIO_STATS_INTERVAL_S", &c.RadioStatsIntervalS); err != nil {
		return err
	}
	if err := i("RADARFEED_TELEMETRY_INTERVAL_S", &c.TelemetryIntervalS); err != nil {
		return err
	}
	if err := i("RADARFEED_DSCP", &c.DSCP); err != nil {
		return err
	}
	if err := i("RADARFEED_REBIND_INTERVAL_S", &c.RebindIntervalS); err != nil {
		return err
	}
	if err := str("RADARFEED_USER", &c.User); err != nil {
		return err
	}
	if err := str("RADARFEED_GROUP", &c.Group); err != nil {
		return err
	}
	if err := b("RADARFEED_DAEMONIZE", &c.Daemonize); err != nil {
		return err
	}
	if err := i("RADARFEED_DEBUG", &c.Debug); err != nil {
		return err
	}
	return nil
}

// Flags holds the pflag.FlagSet outputs that need a second parsing
// pass after pflag.Parse runs (pflag has no native uint64-hex type).
type Flags struct {
	apiKeyHex string
	ingestMode string
}

// BindFlags registers pflag flags that override c's current values,
// matching R2Northstar-Atlas's cmd/ convention of pflag.*Var bound
// directly onto a config struct's fields. Call Resolve on the returned
// Flags after pflag.Parse to finish applying --api-key/--ingest-mode.
func (c *Config) BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{apiKeyHex: fmt.Sprintf("%016x", c.APIKey), ingestMode: string(c.IngestMode)}

	fs.StringVar(&f.apiKeyHex, "api-key", f.apiKeyHex, "64-bit station identity key (hex)")
	fs.StringVar(&c.PSK, "psk", c.PSK, "pre-shared secret (<=64 bytes)")
	fs.StringVar(&c.AggregatorHost, "aggregator-host", c.AggregatorHost, "aggregator hostname")
	fs.IntVar(&c.AggregatorPort, "aggregator-port", c.AggregatorPort, "aggregator UDP port")
	fs.StringVar(&c.DecoderAddress, "decoder-address", c.DecoderAddress, "local decoder address")
	fs.IntVar(&c.IngestPort, "ingest-port", c.IngestPort, "local decoder TCP port")
	fs.StringVar(&f.ingestMode, "ingest-mode", f.ingestMode, "beast-tcp | beast-serial-3mbps | beast-serial-921k")
	fs.StringVar(&c.SerialDevice, "serial-device", c.SerialDevice, "serial device path")
	fs.BoolVar(&c.ForwardModeAC, "forward-mode-ac", c.ForwardModeAC, "forward Mode-A/C payloads")
	fs.BoolVar(&c.ForwardModeS, "forward-mode-s", c.ForwardModeS, "forward Mode-S Short payloads")
	fs.BoolVar(&c.ForwardEverything, "forward-everything", c.ForwardEverything, "forward all DF values, bypassing the 17-22 filter")
	fs.BoolVar(&c.MultiFrameEnable, "multiframe", c.MultiFrameEnable, "enable multi-frame batching")
	fs.IntVar(&c.MultiFrameMs, "multiframe-interval-ms", c.MultiFrameMs, "multi-frame flush interval, 10-250ms")
	fs.IntVar(&c.RadioStatsIntervalS, "radio-stats-interval", c.RadioStatsIntervalS, "radio stats interval, seconds")
	fs.IntVar(&c.TelemetryIntervalS, "telemetry-interval", c.TelemetryIntervalS, "telemetry interval, seconds")
	fs.IntVar(&c.DSCP, "dscp", c.DSCP, "DSCP value, 0-63")
	fs.IntVar(&c.RebindIntervalS, "rebind-interval", c.RebindIntervalS, "source-port rebind interval, seconds (0 disables)")
	fs.StringVar(&c.User, "user", c.User, "user to drop privileges to")
	fs.StringVar(&c.Group, "group", c.Group, "group to drop privileges to")
	fs.BoolVar(&c.Daemonize, "daemonize", c.Daemonize, "accepted but not acted on; radarfeed always runs in the foreground")
	fs.IntVar(&c.Debug, "debug", c.Debug, "debug verbosity level")

	return f
}

// Resolve finishes applying the flags that needed a second parsing
// pass after pflag.Parse runs.
func (f *Flags) Resolve(c *Config) error {
	key, err := strconv.ParseUint(f.apiKeyHex, 16, 64)
	if err != nil {
		return fmt.Errorf("config: --api-key: %w", err)
	}
	c.APIKey = key
	c.IngestMode = IngestMode(f.ingestMode)
	return nil
}

// Validate applies spec.md §7's startup fatal-error policy: missing
// key, out-of-range DSCP, or an over-long secret abort before the
// event loop starts.
func (c *Config) Validate() error {
	if c.APIKey == 0 {
		return fmt.Errorf("config: identity key is required")
	}
	if len(c.PSK) > 64 {
		return fmt.Errorf("config: pre-shared secret exceeds 64 bytes")
	}
	if c.DSCP < 0 || c.DSCP > 63 {
		return fmt.Errorf("config: dscp %d out of range [0,63]", c.DSCP)
	}
	if c.MultiFrameEnable && (c.MultiFrameMs < 10 || c.MultiFrameMs > 250) {
		return fmt.Errorf("config: multiframe-interval-ms %d out of range [10,250]", c.MultiFrameMs)
	}
	if c.RebindIntervalS < 0 || c.RebindIntervalS > 3600 {
		return fmt.Errorf("config: rebind-interval %d out of range [0,3600]", c.RebindIntervalS)
	}
	switch c.IngestMode {
	case IngestBeastTCP, IngestBeastSerial3M, IngestBeastSerial921:
	default:
		return fmt.Errorf("config: unrecognized ingest mode %q", c.IngestMode)
	}
	return nil
}
