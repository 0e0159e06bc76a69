package clean

import (
	"strings"
	"testing"
)

func TestCleanRequiresConfirmation(t *testing.T) {
	yes = false
	err := Cmd.RunE(Cmd, nil)
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}
