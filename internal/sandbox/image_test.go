package sandbox

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

// recordedDockerfileTemplateChecksum pins dockerfile.tmpl's content so an
// edit to the template without a matching dockerfileTemplateVersion bump
// fails this test instead of silently shipping with an unchanged image tag.
const recordedDockerfileTemplateChecksum = "6d30c8a6879ca17b65dc0b913ab9a01292a0f704cfd1167d07082edfa38e753a"

func TestDockerfileTemplateChecksumMatchesRecordedVersion(t *testing.T) {
	sum := sha256.Sum256([]byte(dockerfileTemplateText))
	got := hex.EncodeToString(sum[:])
	if got != recordedDockerfileTemplateChecksum {
		t.Fatalf("dockerfile.tmpl changed (checksum %s) without bumping dockerfileTemplateVersion (%s) and the recorded checksum in this test", got, dockerfileTemplateVersion)
	}
}

func TestImageTagIsOrderIndependent(t *testing.T) {
	a := ImageTag("ubuntu:22.04", []string{"curl", "git"})
	b := ImageTag("ubuntu:22.04", []string{"git", "curl"})
	if a != b {
		t.Fatalf("expected order-independent tag, got %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "moltis-sandbox:") {
		t.Fatalf("expected moltis-sandbox: prefix, got %s", a)
	}
}

func TestImageTagDiffersOnPackages(t *testing.T) {
	a := ImageTag("ubuntu:22.04", []string{"curl"})
	b := ImageTag("ubuntu:22.04", []string{"curl", "git"})
	if a == b {
		t.Fatal("expected different tags for different package sets")
	}
}

func TestRenderDockerfileIncludesSortedPackages(t *testing.T) {
	out, err := RenderDockerfile("ubuntu:22.04", []string{"git", "curl"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "FROM ubuntu:22.04") {
		t.Fatalf("missing FROM line: %s", out)
	}
	curlIdx := strings.Index(out, "curl")
	gitIdx := strings.Index(out, "git")
	if curlIdx == -1 || gitIdx == -1 || curlIdx > gitIdx {
		t.Fatalf("expected sorted package order (curl before git), got: %s", out)
	}
}

func TestRenderDockerfileNoPackagesOmitsInstallStep(t *testing.T) {
	out, err := RenderDockerfile("ubuntu:22.04", nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "apt-get install") {
		t.Fatalf("expected no install step with no packages: %s", out)
	}
}
