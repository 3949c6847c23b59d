package config

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefaultPassesValidateOnceAPIKeyIsSet(t *testing.T) {
	c := Default()
	c.APIKey = 1
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsMissingAPIKey(t *testing.T) {
	c := Default()
	if err := c.Validate(); err == nil {
		t.Fatalf("Validate() = nil, want an error for a zero API key")
	}
}

func TestValidateRejectsOutOfRangeDSCP(t *testing.T) {
	c := Default()
	c.APIKey = 1
	c.DSCP = 64
	if err := c.Validate(); err == nil {
		t.Fatalf("Validate() = nil, want an error for dscp=64")
	}
}

func TestApplyEnvFileOverridesDefaults(t *testing.T) {
	c := Default()
	r := strings.NewReader("RADARFEED_AGGREGATOR_HOST=test.example\nRADARFEED_AGGREGATOR_PORT=7000\n")
	if err := c.ApplyEnvFile(r); err != nil {
		t.Fatalf("ApplyEnvFile: %v", err)
	}
	if c.AggregatorHost != "test.example" {
		t.Fatalf("AggregatorHost = %q, want test.example", c.AggregatorHost)
	}
	if c.AggregatorPort != 7000 {
		t.Fatalf("AggregatorPort = %d, want 7000", c.AggregatorPort)
	}
}

func TestApplyEnvFileRejectsMalformedAPIKey(t *testing.T) {
	c := Default()
	r := strings.NewReader("RADARFEED_API_KEY=not-hex\n")
	if err := c.ApplyEnvFile(r); err == nil {
		t.Fatalf("ApplyEnvFile = nil, want an error for a malformed hex key")
	}
}

func TestBindFlagsAndResolveAppliesAPIKeyAndIngestMode(t *testing.T) {
	c := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := c.BindFlags(fs)

	if err := fs.Parse([]string{"--api-key", "00000000000000ff", "--ingest-mode", "beast-serial-3mbps"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := flags.Resolve(c); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.APIKey != 0xff {
		t.Fatalf("APIKey = %#x, want 0xff", c.APIKey)
	}
	if c.IngestMode != IngestBeastSerial3M {
		t.Fatalf("IngestMode = %q, want %q", c.IngestMode, IngestBeastSerial3M)
	}
}
