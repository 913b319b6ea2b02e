// Package query evaluates filter expressions with the jq executable.
package query

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oakwood-commons/jqx/internal/jsonvalue"
)

// DefaultBinary is the jq executable looked up on PATH.
const DefaultBinary = "jq"

// CommandFactory builds the jq command. Tests inject a factory that runs a
// helper process instead.
type CommandFactory func(ctx context.Context, name string, args ...string) *exec.Cmd

func defaultCommandFactory(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	// jq may leave grandchildren holding the pipes open; don't wait on them
	// forever after a kill.
	cmd.WaitDelay = time.Second
	return cmd
}

// QueryError is a failed jq run: a non-zero exit, or output that is not a
// single JSON document.
type QueryError struct {
	Stderr   string
	ExitCode int
	Err      error
}

func (e *QueryError) Error() string {
	switch {
	case e.Err != nil:
		return e.Err.Error()
	case strings.TrimSpace(e.Stderr) != "":
		return e.Stderr
	default:
		return fmt.Sprintf("jq exited with status %d", e.ExitCode)
	}
}

func (e *QueryError) Unwrap() error { return e.Err }

// runner executes one jq invocation.
type runner struct {
	binary  string
	files   []string
	slurp   bool
	prelude string
	factory CommandFactory
}

// args builds the jq command line for expression.
func (r *runner) args(expression string) []string {
	var args []string
	if r.slurp || len(r.files) > 1 {
		args = append(args, "--slurp")
	}
	filter := expression
	if strings.TrimSpace(filter) == "" {
		filter = "."
	}
	if r.prelude != "" {
		filter = r.prelude + "\n" + filter
	}
	args = append(args, filter)
	return append(args, r.files...)
}

// output runs jq and returns its stdout.
func (r *runner) output(ctx context.Context, args []string) ([]byte, error) {
	cmd := r.factory(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &QueryError{Stderr: stderr.String(), ExitCode: exitErr.ExitCode()}
		}
		return nil, fmt.Errorf("failed to run %s: %w", r.binary, err)
	}
	return stdout.Bytes(), nil
}

// evaluate runs jq and decodes its output as exactly one document.
func (r *runner) evaluate(ctx context.Context, expression string) (jsonvalue.Value, error) {
	out, err := r.output(ctx, r.args(expression))
	if err != nil {
		return nil, err
	}
	v, err := jsonvalue.Parse(out)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	return v, nil
}

var versionPattern = regexp.MustCompile(`jq-(\d+)\.(\d+)`)

// MinimumVersion is the oldest jq release known to work.
var MinimumVersion = [2]int{1, 7}

// ErrUnsupportedVersion is returned by CheckVersion for an old jq.
var ErrUnsupportedVersion = errors.New("unsupported jq version")

// CheckVersion runs `jq --version` and reports an error when jq is missing
// or older than MinimumVersion. The version string is returned when known.
func (e *Engine) CheckVersion(ctx context.Context) (string, error) {
	out, err := e.runner.output(ctx, []string{"--version"})
	if err != nil {
		return "", fmt.Errorf("could not run %s: %w", e.runner.binary, err)
	}
	version := strings.TrimSpace(string(out))
	m := versionPattern.FindStringSubmatch(version)
	if m == nil {
		return version, nil
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	if major < MinimumVersion[0] || (major == MinimumVersion[0] && minor < MinimumVersion[1]) {
		return version, fmt.Errorf("%w: %s, need jq-%d.%d or newer", ErrUnsupportedVersion, version, MinimumVersion[0], MinimumVersion[1])
	}
	return version, nil
}
