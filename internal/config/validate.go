package config

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Severity classifies a Diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic is one finding from Validate, addressed by a dotted path
// (server.bnd, providers.anthropic.api_key, hooks.events[0].url).
type Diagnostic struct {
	Severity Severity
	Category string
	Path     string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s/%s %s: %s", d.Severity, d.Category, d.Path, d.Message)
}

// Validate parses raw TOML and returns the full diagnostic set: unknown-field
// errors with suggestions, a strict-deserialize type-error pass, and semantic
// checks over the parsed config.
func Validate(raw string) ([]Diagnostic, error) {
	var tree map[string]interface{}
	if _, err := toml.Decode(raw, &tree); err != nil {
		return nil, fmt.Errorf("config: malformed toml: %w", err)
	}

	var diags []Diagnostic
	diags = append(diags, walkSchema(RootSchema, tree, "")...)

	var cfg MoltisConfig
	if _, err := toml.Decode(raw, &cfg); err != nil {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Category: "type-error",
			Path:     "",
			Message:  err.Error(),
		})
	} else {
		cfg.Providers.Providers = extractProviderEntries(tree)
		diags = append(diags, semanticChecks(cfg)...)
	}

	return diags, nil
}

// walkSchema recursively compares tree against schema, emitting
// error/unknown-field for keys the schema does not recognize.
func walkSchema(schema *Schema, node interface{}, path string) []Diagnostic {
	if schema == nil {
		return nil
	}
	var diags []Diagnostic
	switch schema.Kind {
	case KindLeaf:
		if schema.Enum != nil {
			if s, ok := node.(string); ok && !containsString(schema.Enum, s) {
				diags = append(diags, Diagnostic{
					Severity: SeverityError,
					Category: "unknown-enum-value",
					Path:     path,
					Message:  fmt.Sprintf("%q is not one of %s", s, strings.Join(schema.Enum, ", ")),
				})
			}
		}
	case KindFixed:
		m, ok := node.(map[string]interface{})
		if !ok {
			return diags
		}
		known := make([]string, 0, len(schema.Children))
		for k := range schema.Children {
			known = append(known, k)
		}
		for k, v := range m {
			child, ok := schema.Children[k]
			childPath := joinPath(path, k)
			if !ok {
				diags = append(diags, unknownFieldDiag(childPath, k, known))
				continue
			}
			diags = append(diags, walkSchema(child, v, childPath)...)
		}
	case KindHybridMap:
		m, ok := node.(map[string]interface{})
		if !ok {
			return diags
		}
		dynShape := schema.Children["*"]
		known := make([]string, 0, len(schema.Children))
		for k := range schema.Children {
			if k != "*" {
				known = append(known, k)
			}
		}
		for k, v := range m {
			childPath := joinPath(path, k)
			if static, ok := schema.Children[k]; ok {
				diags = append(diags, walkSchema(static, v, childPath)...)
				continue
			}
			diags = append(diags, walkSchema(dynShape, v, childPath)...)
			_ = known
		}
	case KindDynamicMap:
		m, ok := node.(map[string]interface{})
		if !ok {
			return diags
		}
		shape := schema.Children["*"]
		for k, v := range m {
			diags = append(diags, walkSchema(shape, v, joinPath(path, k))...)
		}
	case KindArrayOfShape:
		arr, ok := node.([]map[string]interface{})
		if !ok {
			if rawArr, ok2 := node.([]interface{}); ok2 {
				shape := schema.Children["*"]
				for i, item := range rawArr {
					diags = append(diags, walkSchema(shape, item, fmt.Sprintf("%s[%d]", path, i))...)
				}
			}
			return diags
		}
		shape := schema.Children["*"]
		for i, item := range arr {
			diags = append(diags, walkSchema(shape, item, fmt.Sprintf("%s[%d]", path, i))...)
		}
	}
	return diags
}

func unknownFieldDiag(path, field string, known []string) Diagnostic {
	msg := fmt.Sprintf("unknown field %q", field)
	if suggestion := closestWithin(field, known, 3); suggestion != "" {
		msg += fmt.Sprintf(" — did you mean %q?", suggestion)
	}
	return Diagnostic{Severity: SeverityError, Category: "unknown-field", Path: path, Message: msg}
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// closestWithin returns the candidate with the lowest Levenshtein distance
// to target, provided that distance is <= maxDist; empty string otherwise.
func closestWithin(target string, candidates []string, maxDist int) string {
	best := ""
	bestDist := maxDist + 1
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	for _, c := range sorted {
		d := levenshtein(target, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	if bestDist > maxDist {
		return ""
	}
	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// extractProviderEntries re-decodes the dynamic [providers.*] blocks, since
// ProvidersConfig.Providers has no toml tag (the hybrid shape can't be
// expressed directly in BurntSushi struct tags alongside "offered").
func extractProviderEntries(tree map[string]interface{}) map[string]ProviderEntry {
	out := map[string]ProviderEntry{}
	providersNode, ok := tree["providers"].(map[string]interface{})
	if !ok {
		return out
	}
	for k, v := range providersNode {
		if k == "offered" {
			continue
		}
		block, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		entry := ProviderEntry{}
		if s, ok := block["api_key"].(string); ok {
			entry.APIKey = s
		}
		if s, ok := block["base_url"].(string); ok {
			entry.BaseURL = s
		}
		if s, ok := block["alias"].(string); ok {
			entry.Alias = s
		}
		if b, ok := block["enabled"].(bool); ok {
			entry.Enabled = b
		}
		if b, ok := block["fetch_models"].(bool); ok {
			entry.FetchModels = b
		}
		if arr, ok := block["models"].([]interface{}); ok {
			for _, m := range arr {
				if s, ok := m.(string); ok {
					entry.Models = append(entry.Models, s)
				}
			}
		}
		out[k] = entry
	}
	return out
}

// semanticChecks runs cross-field checks over an already-parsed
// config: auth-disabled + non-loopback, TLS-disabled + non-loopback, cert
// without key (and vice versa), sandbox mode off, and file-reference
// existence for configured TLS paths.
func semanticChecks(cfg MoltisConfig) []Diagnostic {
	var diags []Diagnostic
	loopback := isLoopbackHost(cfg.Server.Host)

	if cfg.Server.Port == 0 {
		diags = append(diags, Diagnostic{
			Severity: SeverityInfo,
			Category: "server-port-random",
			Path:     "server.port",
			Message:  "port 0: a random free port will be assigned at startup",
		})
	}

	if !cfg.Auth.Enabled && !loopback {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Category: "auth-disabled-non-loopback",
			Path:     "auth.enabled",
			Message:  "authentication is disabled while the server binds a non-loopback host",
		})
	}
	if !cfg.TLS.Enabled && !loopback {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Category: "tls-disabled-non-loopback",
			Path:     "tls.enabled",
			Message:  "TLS is disabled while the server binds a non-loopback host",
		})
	}
	if (cfg.TLS.CertPath != "") != (cfg.TLS.KeyPath != "") {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Category: "tls-cert-key-mismatch",
			Path:     "tls",
			Message:  "tls.cert_path and tls.key_path must both be set or both be absent",
		})
	}
	for _, p := range []struct{ path, value string }{
		{"tls.cert_path", cfg.TLS.CertPath},
		{"tls.key_path", cfg.TLS.KeyPath},
	} {
		if p.value == "" {
			continue
		}
		if _, err := os.Stat(p.value); err != nil {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Category: "file-not-found",
				Path:     p.path,
				Message:  fmt.Sprintf("%s does not exist", p.value),
			})
		}
	}

	if cfg.Tools.Exec.Sandbox.Mode == "off" {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Category: "sandbox-disabled",
			Path:     "tools.exec.sandbox.mode",
			Message:  "sandboxing is fully disabled; tool calls run directly on the host",
		})
	}

	return diags
}

func isLoopbackHost(host string) bool {
	if host == "" || host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// SerializeDefault round-trips Default() back to TOML text, used by the
// schema-drift self-test.
func SerializeDefault() (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(Default()); err != nil {
		return "", err
	}
	return buf.String(), nil
}
