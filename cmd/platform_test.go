package cmd

import (
	"os"
	"testing"

	"github.com/oakwood-commons/jqx/internal/ui"
)

// TestMain stubs platform actions (clipboard, shell commands) so that no test
// in the cmd package can touch the real clipboard or shell history.
func TestMain(m *testing.M) {
	restore := ui.StubPlatformActions()
	code := m.Run()
	restore()
	os.Exit(code)
}
