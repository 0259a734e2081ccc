package config

// FieldKind distinguishes the four schema node shapes:
// a fixed field map, a dynamic map-of-known-shape, a map-with-explicit-
// static-fields hybrid, or an array-of-shape. Leaves have no children.
type FieldKind int

const (
	KindLeaf FieldKind = iota
	KindFixed
	KindDynamicMap
	KindHybridMap
	KindArrayOfShape
)

// Schema describes one node in the declarative config tree used both to
// flag unknown fields (with a Levenshtein-3 suggestion) and to document the
// shape strict deserialization expects.
type Schema struct {
	Kind     FieldKind
	Children map[string]*Schema // for Fixed / HybridMap (static part) / ArrayOfShape (element shape lives under "*")
	Enum     []string           // for leaves with a closed value set
}

func leaf() *Schema { return &Schema{Kind: KindLeaf} }

func leafEnum(values ...string) *Schema { return &Schema{Kind: KindLeaf, Enum: values} }

func fixed(children map[string]*Schema) *Schema {
	return &Schema{Kind: KindFixed, Children: children}
}

func dynamicMap(shape *Schema) *Schema {
	return &Schema{Kind: KindDynamicMap, Children: map[string]*Schema{"*": shape}}
}

func hybridMap(static map[string]*Schema, dynamicShape *Schema) *Schema {
	children := make(map[string]*Schema, len(static)+1)
	for k, v := range static {
		children[k] = v
	}
	children["*"] = dynamicShape
	return &Schema{Kind: KindHybridMap, Children: children}
}

func arrayOfShape(shape *Schema) *Schema {
	return &Schema{Kind: KindArrayOfShape, Children: map[string]*Schema{"*": shape}}
}

var sandboxModeEnum = []string{"off", "non-main", "all"}
var sandboxBackendEnum = []string{"auto", "docker-like", "alt", "cgroup", "no-sandbox"}
var memoryBackendEnum = []string{"sqlite", "none"}
var tailscaleModeEnum = []string{"off", "funnel", "serve"}
var voiceProviderEnum = []string{"whisper", "none"}

var providerEntrySchema = fixed(map[string]*Schema{
	"enabled":      leaf(),
	"api_key":      leaf(),
	"base_url":     leaf(),
	"models":       leaf(),
	"fetch_models": leaf(),
	"alias":        leaf(),
})

var channelEntrySchema = fixed(map[string]*Schema{
	"type":    leaf(),
	"token":   leaf(),
	"model":   leaf(),
	"enabled": leaf(),
})

var mcpServerSchema = fixed(map[string]*Schema{
	"command": leaf(),
	"args":    leaf(),
})

var hookEventSchema = fixed(map[string]*Schema{
	"event": leaf(),
	"url":   leaf(),
})

var cronJobSchema = fixed(map[string]*Schema{
	"schedule": leaf(),
	"command":  leaf(),
})

// RootSchema is the declarative schema walked by Validate.
// TestSchemaDriftOnDefault checks that every field of the serialized
// Default() config is known here; a schema key with no matching field is
// not detected.
var RootSchema = fixed(map[string]*Schema{
	"server": fixed(map[string]*Schema{
		"bind": leaf(),
		"port": leaf(),
	}),
	"providers": hybridMap(map[string]*Schema{
		"offered": leaf(),
	}, providerEntrySchema),
	"chat": fixed(map[string]*Schema{
		"default_model":        leaf(),
		"max_history_messages": leaf(),
	}),
	"tools": fixed(map[string]*Schema{
		"exec": fixed(map[string]*Schema{
			"sandbox": fixed(map[string]*Schema{
				"mode":            leafEnum(sandboxModeEnum...),
				"scope":           leaf(),
				"workspace_mount": leaf(),
				"image":           leaf(),
				"backend":         leafEnum(sandboxBackendEnum...),
				"no_network":      leaf(),
				"limits": fixed(map[string]*Schema{
					"memory_mb":      leaf(),
					"cpu_percent":    leaf(),
					"max_tasks":      leaf(),
					"max_output_kb":  leaf(),
				}),
				"packages": leaf(),
				"timezone": leaf(),
			}),
		}),
		"browser": fixed(map[string]*Schema{
			"max_instances":         leaf(),
			"memory_limit_percent":  leaf(),
			"idle_timeout_seconds":  leaf(),
			"binary_path":           leaf(),
			"user_agent":            leaf(),
			"viewport_width":        leaf(),
			"viewport_height":       leaf(),
			"request_timeout_ms":    leaf(),
		}),
		"web_fetch": fixed(map[string]*Schema{
			"max_response_bytes": leaf(),
		}),
	}),
	"skills": fixed(map[string]*Schema{
		"enabled": leaf(),
	}),
	"mcp": fixed(map[string]*Schema{
		"servers": dynamicMap(mcpServerSchema),
	}),
	"channels": dynamicMap(channelEntrySchema),
	"tls": fixed(map[string]*Schema{
		"enabled":   leaf(),
		"cert_path": leaf(),
		"key_path":  leaf(),
	}),
	"auth": fixed(map[string]*Schema{
		"enabled": leaf(),
		"token":   leaf(),
	}),
	"graphql": fixed(map[string]*Schema{
		"enabled": leaf(),
	}),
	"metrics": fixed(map[string]*Schema{
		"enabled": leaf(),
		"listen":  leaf(),
	}),
	"identity": fixed(map[string]*Schema{
		"name": leaf(),
	}),
	"user": fixed(map[string]*Schema{
		"display_name": leaf(),
		"timezone":     leaf(),
	}),
	"hooks": fixed(map[string]*Schema{
		"events": arrayOfShape(hookEventSchema),
	}),
	"memory": fixed(map[string]*Schema{
		"backend": leafEnum(memoryBackendEnum...),
		"path":    leaf(),
	}),
	"tailscale": fixed(map[string]*Schema{
		"mode": leafEnum(tailscaleModeEnum...),
	}),
	"failover": fixed(map[string]*Schema{
		"enabled": leaf(),
	}),
	"heartbeat": fixed(map[string]*Schema{
		"interval_seconds": leaf(),
	}),
	"voice": fixed(map[string]*Schema{
		"provider": leafEnum(voiceProviderEnum...),
	}),
	"telemetry": fixed(map[string]*Schema{
		"enabled":       leaf(),
		"otlp_endpoint": leaf(),
		"service_name":  leaf(),
		"sample_ratio":  leaf(),
	}),
	"cron": arrayOfShape(cronJobSchema),
	"env":  dynamicMap(leaf()),
})
