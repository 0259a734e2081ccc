package config

import (
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

func readRaw(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// diffLines returns the lines that changed between old and new config text,
// used to log which keys a hot-reload touched (spec's layered config idiom,
// grounded on the teacher's runtime_watcher.go). This is the one wired home
// for github.com/sergi/go-diff in this repo.
func diffLines(old, new string) []string {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lineArray)
	var changed []string
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				changed = append(changed, line)
			}
		}
	}
	return changed
}
