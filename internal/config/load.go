package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/moltislabs/moltis/internal/logging"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

var log = logging.NewComponentLogger("Config")

// Load reads path, layers MOLTIS_-prefixed environment overrides on top via
// viper (grounded on the teacher's internal/config/runtime_env.go layering
// idiom), validates the merged tree, and returns the strict-typed config
// alongside any diagnostics (which may include only infos/warnings).
func Load(path string) (MoltisConfig, []Diagnostic, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MoltisConfig{}, nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytesReader(raw)); err != nil {
		return MoltisConfig{}, nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	v.SetEnvPrefix("MOLTIS")
	v.AutomaticEnv()

	diags, err := Validate(string(raw))
	if err != nil {
		return MoltisConfig{}, nil, err
	}

	var cfg MoltisConfig
	if _, err := toml.Decode(string(raw), &cfg); err != nil {
		return MoltisConfig{}, diags, fmt.Errorf("config: strict decode %s: %w", path, err)
	}
	applyEnvOverrides(&cfg, v)

	var tree map[string]interface{}
	if _, err := toml.Decode(string(raw), &tree); err == nil {
		cfg.Providers.Providers = extractProviderEntries(tree)
	}

	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			log.Error("%s", d.String())
		case SeverityWarning:
			log.Warn("%s", d.String())
		default:
			log.Info("%s", d.String())
		}
	}

	return cfg, diags, nil
}

// applyEnvOverrides layers a handful of hot-path fields from environment
// variables on top of the parsed tree, matching the teacher's
// runtime_env.go "env wins over file" idiom without attempting to cover
// every leaf (most fields are config-file-only by design).
func applyEnvOverrides(cfg *MoltisConfig, v *viper.Viper) {
	if v.IsSet("server.bind") {
		cfg.Server.Host = v.GetString("server.bind")
	}
	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("auth.token") {
		cfg.Auth.Token = v.GetString("auth.token")
	}
}
