package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"
)

// copyToClipboardFn and runShellFn are the active implementations for
// clipboard and shell operations. Tests replace them with no-ops via
// StubPlatformActions() to prevent side effects.
var (
	copyToClipboardFn = clipboard.WriteAll
	runShellFn        = runShellImpl
)

const shellTimeout = 5 * time.Second

// CopyToClipboard copies text to the system clipboard.
func CopyToClipboard(text string) error { return copyToClipboardFn(text) }

// RunShell runs command with bash, writing stdin to it. A failing command
// reports its stderr as the error message.
func RunShell(ctx context.Context, command, stdin string) error {
	return runShellFn(ctx, command, stdin)
}

// StubPlatformActions replaces clipboard and shell functions with no-ops
// and returns a restore function. Use in tests to prevent side effects.
func StubPlatformActions() (restore func()) {
	origCopy := copyToClipboardFn
	origShell := runShellFn
	copyToClipboardFn = func(string) error { return nil }
	runShellFn = func(context.Context, string, string) error { return nil }
	return func() {
		copyToClipboardFn = origCopy
		runShellFn = origShell
	}
}

func runShellImpl(ctx context.Context, command, stdin string) error {
	ctx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return errors.New(msg)
		}
		return fmt.Errorf("%s: %w", command, err)
	}
	return nil
}

// ShellQuote quotes s for a POSIX shell. Words made only of safe characters
// are returned unchanged.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("@%+=:,./-_", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// CommandLine rebuilds the jqx invocation from args (without the program
// name) with its filter replaced by expression, quoted for a shell.
func CommandLine(name string, args []string, expression string) string {
	argv := []string{name}
	skip := false
	for _, a := range args {
		switch {
		case skip:
			skip = false
		case a == "-c" || a == "--command":
			skip = true
		case strings.HasPrefix(a, "-c") || strings.HasPrefix(a, "--command"):
		default:
			argv = append(argv, a)
		}
	}
	argv = append(argv, "--command", expression)

	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = ShellQuote(a)
	}
	return strings.Join(quoted, " ")
}

// HistoryCommand fills the {} placeholder of template with the quoted
// command line.
func HistoryCommand(template, commandLine string) string {
	return strings.ReplaceAll(template, "{}", ShellQuote(commandLine))
}
