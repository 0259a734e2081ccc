package provider

import "strings"

// stripForeignPrefix removes a leading "prefix::" from a configured model id,
// whatever provider the prefix names, since pinned preferences are given as
// raw ids.
func stripForeignPrefix(id string) string {
	if idx := strings.Index(id, "::"); idx >= 0 {
		return id[idx+2:]
	}
	return id
}

// MergePreferredAndDiscovered implements the model list assembly:
// preferred ids first (preserving user order, deduplicated, foreign prefixes
// stripped), then discovered ids not already present. When a preferred id
// matches a discovered entry, the discovered DisplayName/CreatedAt are
// carried over. Idempotent: calling it twice with the same inputs yields the
// same list.
func MergePreferredAndDiscovered(preferred []string, discovered []ModelInfo) []ModelInfo {
	seen := map[string]bool{}
	discoveredByID := map[string]ModelInfo{}
	for _, d := range discovered {
		discoveredByID[d.ID] = d
	}

	var out []ModelInfo
	for _, raw := range preferred {
		id := stripForeignPrefix(raw)
		if seen[id] {
			continue
		}
		seen[id] = true
		if d, ok := discoveredByID[id]; ok {
			out = append(out, d)
		} else {
			out = append(out, ModelInfo{ID: id})
		}
	}
	for _, d := range discovered {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}
	return out
}
