package cli

import (
	"testing"

	"github.com/spawnlab/hivemem/internal/config"
)

func TestAuditActor(t *testing.T) {
	orig := asFlag
	t.Cleanup(func() { asFlag = orig })

	asFlag = ""
	if got := auditActor(&config.Config{}); got != "unknown" {
		t.Errorf("expected 'unknown' with no identity anywhere, got %q", got)
	}
	if got := auditActor(&config.Config{Identity: "zealot-1"}); got != "zealot-1" {
		t.Errorf("expected configured identity, got %q", got)
	}

	asFlag = "zealot-2"
	if got := auditActor(&config.Config{Identity: "zealot-1"}); got != "zealot-2" {
		t.Errorf("expected --as to win, got %q", got)
	}
}
