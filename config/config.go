package config

import (
	"fmt"
	"net"
	"os"
	"time"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"

	// TelemetryModeInterval emits reports on a fixed timer.
	TelemetryModeInterval = "interval"
	// TelemetryModeWave emits reports on consensus wave advances.
	TelemetryModeWave = "wave"
)

// DefaultDagmonDir is the home directory under $HOME when none is given.
var DefaultDagmonDir = ".dagmon"

// Config defines the top level configuration for a dagmon harness.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	Telemetry       *TelemetryConfig       `mapstructure:"telemetry"`
	Fault           *FaultConfig           `mapstructure:"fault"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for the harness.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Telemetry:       DefaultTelemetryConfig(),
		Fault:           DefaultFaultConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	cfg := DefaultConfig()
	cfg.Moniker = "test-node"
	cfg.CertListenAddress = "127.0.0.1:0"
	cfg.WorkerAddresses = []string{"127.0.0.1:36001"}
	cfg.Telemetry.ReportInterval = 50 * time.Millisecond
	return cfg
}

// SetRoot sets the RootDir for all Config structs.
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails. Configuration errors are fatal at
// startup; the harness aborts rather than degrade silently.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Telemetry.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [telemetry] section: %w", err)
	}
	if err := cfg.Fault.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [fault] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for the harness.
type BaseConfig struct {
	// The root directory for all data.
	RootDir string `mapstructure:"home"`

	// A custom human readable name for this node
	Moniker string `mapstructure:"moniker"`

	// Address the certificate ingress listens on for the ordered consensus
	// output stream.
	CertListenAddress string `mapstructure:"cert-laddr"`

	// Network addresses of the local node's worker processes; cleanup
	// broadcasts go to every one of them.
	WorkerAddresses []string `mapstructure:"worker-laddrs"`

	// Output level and format for logging.
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		Moniker:           defaultMoniker,
		CertListenAddress: "127.0.0.1:36656",
		WorkerAddresses:   []string{"127.0.0.1:36657"},
		LogLevel:          "info",
		LogFormat:         LogFormatPlain,
	}
}

// ValidateBasic performs basic validation and returns an error if any check
// fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case LogFormatPlain, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format: %s", cfg.LogFormat)
	}

	if _, _, err := net.SplitHostPort(cfg.CertListenAddress); err != nil {
		return fmt.Errorf("invalid cert-laddr %q: %w", cfg.CertListenAddress, err)
	}

	if len(cfg.WorkerAddresses) == 0 {
		return fmt.Errorf("at least one worker endpoint is required")
	}
	for _, addr := range cfg.WorkerAddresses {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid worker endpoint %q: %w", addr, err)
		}
	}

	return nil
}

//-----------------------------------------------------------------------------
// TelemetryConfig

// TelemetryConfig defines the configuration of the bandwidth reporter.
type TelemetryConfig struct {
	// Either "interval" or "wave". The two reporting modes are mutually
	// exclusive per deployment.
	Mode string `mapstructure:"mode"`

	// Period of the per-channel report lines in interval mode.
	ReportInterval time.Duration `mapstructure:"report-interval"`

	// Every Nth tick additionally emits a full summary.
	SummaryEveryNTicks uint64 `mapstructure:"summary-every-n-ticks"`
}

// DefaultTelemetryConfig returns a default telemetry configuration.
func DefaultTelemetryConfig() *TelemetryConfig {
	return &TelemetryConfig{
		Mode:               TelemetryModeInterval,
		ReportInterval:     time.Second,
		SummaryEveryNTicks: 10,
	}
}

// ValidateBasic performs basic validation and returns an error if any check
// fails.
func (cfg *TelemetryConfig) ValidateBasic() error {
	switch cfg.Mode {
	case TelemetryModeInterval, TelemetryModeWave:
	default:
		return fmt.Errorf("unknown telemetry mode: %s", cfg.Mode)
	}
	if cfg.Mode == TelemetryModeInterval && cfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be positive")
	}
	if cfg.SummaryEveryNTicks == 0 {
		return fmt.Errorf("summary-every-n-ticks must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// FaultConfig

// FaultConfig defines the fault-injection window and the partition group
// table. Cross-group traffic is delayed, never dropped, while the window is
// open.
type FaultConfig struct {
	// Whether the fault scheduler runs at all.
	Enabled bool `mapstructure:"enabled"`

	// Window start, as an offset from process start.
	StartOffset time.Duration `mapstructure:"start-offset"`

	// How long the window stays open.
	Duration time.Duration `mapstructure:"duration"`

	// Delay applied to each cross-group send while the window is open.
	Delay time.Duration `mapstructure:"delay"`

	// Partition group table, node id to group id. Node ids missing from the
	// table fail closed and count as cross-group against everyone.
	Groups map[string]uint64 `mapstructure:"groups"`
}

// DefaultFaultConfig returns a default fault configuration with injection
// disabled.
func DefaultFaultConfig() *FaultConfig {
	return &FaultConfig{
		Enabled:     false,
		StartOffset: 10 * time.Second,
		Duration:    5 * time.Second,
		Delay:       200 * time.Millisecond,
		Groups:      map[string]uint64{},
	}
}

// ValidateBasic performs basic validation and returns an error if any check
// fails.
func (cfg *FaultConfig) ValidateBasic() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.StartOffset < 0 {
		return fmt.Errorf("start-offset cannot be negative")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	if cfg.Delay <= 0 {
		return fmt.Errorf("delay must be positive")
	}
	if len(cfg.Groups) == 0 {
		return fmt.Errorf("group table cannot be empty")
	}
	for id := range cfg.Groups {
		if id == "" {
			return fmt.Errorf("group table contains an empty node id")
		}
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus-listen-addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26660",
		Namespace:            "dagmon",
	}
}

// ValidateBasic performs basic validation and returns an error if any check
// fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return fmt.Errorf("prometheus-listen-addr is required when prometheus is enabled")
	}
	if cfg.Namespace == "" {
		return fmt.Errorf("namespace cannot be empty")
	}
	return nil
}

var defaultMoniker = getDefaultMoniker()

func getDefaultMoniker() string {
	moniker, err := os.Hostname()
	if err != nil || moniker == "" {
		moniker = "anonymous"
	}
	return moniker
}
