package sandbox

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// dockerfileTemplateVersion is bumped whenever dockerfile.tmpl changes, so
// that a template edit invalidates every previously built tag. Keeping the
// version bump and the template edit in the same commit is a human
// discipline the drift test in image_test.go enforces: it checksums the
// embedded template text and fails if it changes without the checksum
// constant being updated alongside it.
const dockerfileTemplateVersion = "v1"

//go:embed dockerfile.tmpl
var dockerfileTemplateText string

// ImageTag computes the content-addressed moltis-sandbox tag for a base
// image and package set. The tag is stable across process restarts and
// independent of package ordering.
func ImageTag(base string, packages []string) string {
	sorted := append([]string(nil), packages...)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(dockerfileTemplateVersion))
	h.Write([]byte{0})
	h.Write([]byte(base))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, ",")))

	return fmt.Sprintf("moltis-sandbox:%s", hex.EncodeToString(h.Sum(nil))[:16])
}

var dockerfileTemplate = template.Must(template.New("sandbox-dockerfile").Funcs(template.FuncMap{
	"last": func(i, n int) bool { return i == n-1 },
}).Parse(dockerfileTemplateText))

type dockerfileData struct {
	Base     string
	Packages []string
}

// RenderDockerfile produces the Dockerfile text for the given base image and
// package list, matching exactly what ImageTag hashed.
func RenderDockerfile(base string, packages []string) (string, error) {
	sorted := append([]string(nil), packages...)
	sort.Strings(sorted)

	var buf strings.Builder
	if err := dockerfileTemplate.Execute(&buf, dockerfileData{Base: base, Packages: sorted}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
