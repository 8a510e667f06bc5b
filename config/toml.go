package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	dmos "github.com/dagbft/dagmon/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

const (
	defaultConfigDir      = "config"
	defaultConfigFileName = "config.toml"
)

var defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate").Funcs(template.FuncMap{
		"StringsJoin": strings.Join,
	})
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

// EnsureRoot creates the root and config directories if they don't exist, and
// panics if it fails.
func EnsureRoot(rootDir string) {
	if err := dmos.EnsureDir(rootDir, defaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := dmos.EnsureDir(filepath.Join(rootDir, defaultConfigDir), defaultDirPerm); err != nil {
		panic(err.Error())
	}
}

// WriteConfigFile renders config using the template and writes it to
// rootDir/config/config.toml.
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(filepath.Join(rootDir, defaultConfigFilePath))
}

// WriteToTemplate writes the config to the exact file specified by the path,
// in the default toml template.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}

	return os.WriteFile(path, buffer.Bytes(), 0644)
}

// ConfigFileExists reports whether a config file is already present under
// rootDir.
func ConfigFileExists(rootDir string) bool {
	return dmos.FileExists(filepath.Join(rootDir, defaultConfigFilePath))
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/mydagmon/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.dagmon" by default, but could be changed via $DAGMONHOME env variable
# or --home cmd flag.

#######################################################
###        Main Base Config Options                 ###
#######################################################

# A custom human readable name for this node
moniker = "{{ .BaseConfig.Moniker }}"

# Address the certificate ingress listens on for the ordered consensus
# output stream
cert-laddr = "{{ .BaseConfig.CertListenAddress }}"

# Network addresses of the local node's worker processes; cleanup broadcasts
# go to every one of them
worker-laddrs = ["{{ StringsJoin .BaseConfig.WorkerAddresses "\", \"" }}"]

# Output level for logging, including package level options
log-level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log-format = "{{ .BaseConfig.LogFormat }}"

#######################################################
###        Telemetry Configuration Options          ###
#######################################################
[telemetry]

# Reporting mode: "interval" emits reports on a fixed timer, "wave" follows
# consensus wave advances. The two modes are mutually exclusive.
mode = "{{ .Telemetry.Mode }}"

# Period of the per-channel report lines in interval mode
report-interval = "{{ .Telemetry.ReportInterval }}"

# Every Nth tick additionally emits a full summary
summary-every-n-ticks = {{ .Telemetry.SummaryEveryNTicks }}

#######################################################
###        Fault Injection Configuration Options    ###
#######################################################
[fault]

# Whether the fault scheduler runs at all
enabled = {{ .Fault.Enabled }}

# Window start, as an offset from process start
start-offset = "{{ .Fault.StartOffset }}"

# How long the window stays open
duration = "{{ .Fault.Duration }}"

# Delay applied to each cross-group send while the window is open.
# Cross-group traffic is delayed, never dropped.
delay = "{{ .Fault.Delay }}"

# Partition group table, node id to group id. Node ids missing from the table
# fail closed and count as cross-group against everyone.
[fault.groups]{{ range $id, $group := .Fault.Groups }}
"{{ $id }}" = {{ $group }}{{ end }}

#######################################################
###       Instrumentation Configuration Options     ###
#######################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# prometheus-listen-addr.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus-listen-addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`
