// Package config parses, validates, and hot-reloads the gateway's TOML
// configuration tree, grounded on the teacher's internal/config package
// (layered.go, runtime_env.go, runtime_watcher.go).
package config

// MoltisConfig is the root configuration tree. Every field here must be
// reachable from the schema in schema.go — TestSchemaDriftOnDefault in
// validate_test.go checks this by validating the serialized Default().
type MoltisConfig struct {
	Server    ServerConfig              `toml:"server"`
	Providers ProvidersConfig           `toml:"providers"`
	Chat      ChatConfig                `toml:"chat"`
	Tools     ToolsConfig               `toml:"tools"`
	Skills    SkillsConfig              `toml:"skills"`
	MCP       MCPConfig                 `toml:"mcp"`
	Channels  map[string]ChannelConfig  `toml:"channels"`
	TLS       TLSConfig                 `toml:"tls"`
	Auth      AuthConfig                `toml:"auth"`
	GraphQL   GraphQLConfig             `toml:"graphql"`
	Metrics   MetricsConfig             `toml:"metrics"`
	Identity  IdentityConfig            `toml:"identity"`
	User      UserConfig                `toml:"user"`
	Hooks     HooksConfig               `toml:"hooks"`
	Memory    MemoryConfig              `toml:"memory"`
	Tailscale TailscaleConfig           `toml:"tailscale"`
	Failover  FailoverConfig            `toml:"failover"`
	Heartbeat HeartbeatConfig           `toml:"heartbeat"`
	Voice     VoiceConfig               `toml:"voice"`
	Telemetry TelemetryConfig           `toml:"telemetry"`
	Cron      []CronJobConfig           `toml:"cron"`
	Env       map[string]string         `toml:"env"`
}

// ServerConfig controls the listener.
type ServerConfig struct {
	Host string `toml:"bind"`
	// Port 0 means "assign a random free port at startup" — an info
	// diagnostic, never an error.
	Port int `toml:"port"`
}

// ProvidersConfig is the hybrid map: a static "offered" allowlist alongside
// arbitrary provider-id-keyed entries (providers.anthropic, providers.custom-foo, ...).
type ProvidersConfig struct {
	Offered   []string                  `toml:"offered"`
	Providers map[string]ProviderEntry  `toml:"-"` // populated by the schema walk, not by struct tags
}

// ProviderEntry is one [providers.<name>] block.
type ProviderEntry struct {
	Enabled     bool     `toml:"enabled"`
	APIKey      string   `toml:"api_key"`
	BaseURL     string   `toml:"base_url"`
	Models      []string `toml:"models"`
	FetchModels bool     `toml:"fetch_models"`
	Alias       string   `toml:"alias"`
}

// ChatConfig covers chat-service-level settings not otherwise broken out.
type ChatConfig struct {
	DefaultModel       string `toml:"default_model"`
	MaxHistoryMessages int    `toml:"max_history_messages"`
}

// ToolsConfig groups the tool subsystems a sandboxed agent turn can invoke.
type ToolsConfig struct {
	Exec     ExecToolConfig     `toml:"exec"`
	Browser  BrowserToolConfig  `toml:"browser"`
	WebFetch WebFetchToolConfig `toml:"web_fetch"`
}

// ExecToolConfig configures the shell-command tool and its sandbox.
type ExecToolConfig struct {
	Sandbox SandboxTOMLConfig `toml:"sandbox"`
}

// SandboxTOMLConfig is the on-disk shape of SandboxConfig.
type SandboxTOMLConfig struct {
	Mode           string            `toml:"mode"` // off | non-main | all
	Scope          string            `toml:"scope"`
	WorkspaceMount string            `toml:"workspace_mount"`
	Image          string            `toml:"image"`
	Backend        string            `toml:"backend"` // auto | docker-like | alt | cgroup | no-sandbox
	NoNetwork      bool              `toml:"no_network"`
	Limits         SandboxLimits     `toml:"limits"`
	Packages       []string          `toml:"packages"`
	Timezone       string            `toml:"timezone"`
}

// SandboxLimits caps resource usage for a sandboxed session.
type SandboxLimits struct {
	MemoryMB     int `toml:"memory_mb"`
	CPUPercent   int `toml:"cpu_percent"`
	MaxTasks     int `toml:"max_tasks"`
	MaxOutputKB  int `toml:"max_output_kb"`
}

// BrowserToolConfig configures the headless browser pool.
type BrowserToolConfig struct {
	MaxInstances        int    `toml:"max_instances"`
	MemoryLimitPercent  int    `toml:"memory_limit_percent"`
	IdleTimeoutSeconds  int    `toml:"idle_timeout_seconds"`
	BinaryPath          string `toml:"binary_path"`
	UserAgent           string `toml:"user_agent"`
	ViewportWidth       int    `toml:"viewport_width"`
	ViewportHeight      int    `toml:"viewport_height"`
	RequestTimeoutMs    int    `toml:"request_timeout_ms"`
}

// WebFetchToolConfig configures the web-fetch tool.
type WebFetchToolConfig struct {
	MaxResponseBytes int `toml:"max_response_bytes"`
}

// SkillsConfig lists declared skill modules; fields deliberately left generic
// since skill definitions are out of scope for this spec.
type SkillsConfig struct {
	Enabled []string `toml:"enabled"`
}

// MCPConfig lists configured MCP server connections.
type MCPConfig struct {
	Servers map[string]MCPServerEntry `toml:"servers"`
}

// MCPServerEntry is one configured MCP server.
type MCPServerEntry struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// ChannelConfig is one [channels.<name>] block.
type ChannelConfig struct {
	Type    string `toml:"type"` // telegram | discord | ...
	Token   string `toml:"token"`
	Model   string `toml:"model"` // pinned model, if any
	Enabled bool   `toml:"enabled"`
}

// TLSConfig controls the HTTPS listener.
type TLSConfig struct {
	Enabled  bool   `toml:"enabled"`
	CertPath string `toml:"cert_path"`
	KeyPath  string `toml:"key_path"`
}

// AuthConfig controls the credential-store front gate.
type AuthConfig struct {
	Enabled bool   `toml:"enabled"`
	Token   string `toml:"token"`
}

// GraphQLConfig toggles the GraphQL surface (interface only — out of scope
// for this core spec, carried as a config leaf for schema completeness).
type GraphQLConfig struct {
	Enabled bool `toml:"enabled"`
}

// MetricsConfig toggles the external metrics-export collaborator interface.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// IdentityConfig names the gateway instance.
type IdentityConfig struct {
	Name string `toml:"name"`
}

// UserConfig is the local operator's display profile.
type UserConfig struct {
	DisplayName string `toml:"display_name"`
	Timezone    string `toml:"timezone"`
}

// HooksConfig lists webhook-style event subscriptions.
type HooksConfig struct {
	Events []HookEventConfig `toml:"events"`
}

// HookEventConfig is one declared hook subscription.
type HookEventConfig struct {
	Event string `toml:"event"`
	URL   string `toml:"url"`
}

// MemoryConfig selects the conversation-memory backend.
type MemoryConfig struct {
	Backend string `toml:"backend"` // sqlite | none
	Path    string `toml:"path"`    // sqlite file path, ignored when backend is "none"
}

// TailscaleConfig controls optional Tailscale-network binding.
type TailscaleConfig struct {
	Mode string `toml:"mode"` // off | funnel | serve
}

// FailoverConfig controls cross-replica failover behavior.
type FailoverConfig struct {
	Enabled bool `toml:"enabled"`
}

// HeartbeatConfig controls the liveness heartbeat.
type HeartbeatConfig struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// VoiceConfig selects the speech-to-text provider for inbound voice messages.
type VoiceConfig struct {
	Provider string `toml:"provider"` // whisper | none | ...
}

// TelemetryConfig controls the OTLP trace exporter. Disabled by default —
// a self-hosted operator opts in by pointing it at their own collector.
type TelemetryConfig struct {
	Enabled      bool   `toml:"enabled"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
	SampleRatio  float64 `toml:"sample_ratio"`
}

// CronJobConfig is one scheduled job entry.
type CronJobConfig struct {
	Schedule string `toml:"schedule"`
	Command  string `toml:"command"`
}

// Default returns the configuration used both as the process default and as
// the schema-drift self-test fixture.
func Default() MoltisConfig {
	return MoltisConfig{
		Server: ServerConfig{Host: "127.0.0.1", Port: 0},
		Providers: ProvidersConfig{
			Offered:   []string{},
			Providers: map[string]ProviderEntry{},
		},
		Chat: ChatConfig{MaxHistoryMessages: 200},
		Tools: ToolsConfig{
			Exec: ExecToolConfig{
				Sandbox: SandboxTOMLConfig{
					Mode:    "non-main",
					Scope:   "moltis",
					Backend: "auto",
					Limits:  SandboxLimits{MemoryMB: 2048, CPUPercent: 200, MaxTasks: 256, MaxOutputKB: 256},
				},
			},
			Browser: BrowserToolConfig{
				MaxInstances:       0,
				MemoryLimitPercent: 85,
				IdleTimeoutSeconds: 600,
				ViewportWidth:      1280,
				ViewportHeight:     800,
				RequestTimeoutMs:   30000,
			},
			WebFetch: WebFetchToolConfig{MaxResponseBytes: 5 << 20},
		},
		MCP:       MCPConfig{Servers: map[string]MCPServerEntry{}},
		Channels:  map[string]ChannelConfig{},
		Memory:    MemoryConfig{Backend: "sqlite", Path: "moltis-channel.db"},
		Tailscale: TailscaleConfig{Mode: "off"},
		Heartbeat: HeartbeatConfig{IntervalSeconds: 30},
		Voice:     VoiceConfig{Provider: "none"},
		Telemetry: TelemetryConfig{ServiceName: "moltis-gateway", SampleRatio: 1.0},
		Env:       map[string]string{},
	}
}
