// Package kaptinjson wraps github.com/kaptinlin/jsonrepair for the one
// place this repo needs it: tool-call argument JSON from a lossy upstream
package kaptinjson

import "github.com/kaptinlin/jsonrepair"

// RepairOrPassthrough attempts to repair malformed JSON; if repair itself
// fails, the original string is returned unchanged so the caller's own
// json.Unmarshal produces the error instead of this helper swallowing one.
func RepairOrPassthrough(raw string) string {
	if raw == "" {
		return raw
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return raw
	}
	return repaired
}
