package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// StdinPath names standard input in an argument list.
const StdinPath = "-"

// Inputs are the files handed to jq, some of which may be temporary copies.
type Inputs struct {
	Files []string
	dir   string
}

// Cleanup removes the temporary copies.
func (in *Inputs) Cleanup() error {
	if in == nil || in.dir == "" {
		return nil
	}
	err := os.RemoveAll(in.dir)
	in.dir = ""
	return err
}

// Prepare maps paths to files jq can read repeatedly. No paths means stdin.
// Regular JSON files are used in place. Standard input and other streams are
// read once and spooled to a temporary directory, and YAML, TOML and JWT
// inputs are converted to JSON on the way.
func Prepare(paths []string, stdin io.Reader) (*Inputs, error) {
	if len(paths) == 0 {
		paths = []string{StdinPath}
	}
	in := &Inputs{Files: make([]string, 0, len(paths))}
	for i, path := range paths {
		file, err := in.prepare(i, path, stdin)
		if err != nil {
			_ = in.Cleanup()
			return nil, err
		}
		in.Files = append(in.Files, file)
	}
	return in, nil
}

func (in *Inputs) prepare(i int, path string, stdin io.Reader) (string, error) {
	if path == StdinPath {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return in.spool(i, data, Detect(string(data)))
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to open input: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("input %s is a directory", path)
	}
	format, known := FormatForPath(path)
	if known && info.Mode().IsRegular() && format == FormatJSON {
		return path, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if !known {
		format = Detect(string(data))
	}
	if info.Mode().IsRegular() && format == FormatJSON {
		return path, nil
	}
	out, err := in.spool(i, data, format)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func (in *Inputs) spool(i int, data []byte, format Format) (string, error) {
	converted, err := ToJSON(data, format)
	if err != nil {
		return "", err
	}
	if in.dir == "" {
		dir, err := os.MkdirTemp("", "jqx-")
		if err != nil {
			return "", fmt.Errorf("failed to create temporary directory: %w", err)
		}
		in.dir = dir
	}
	name := filepath.Join(in.dir, fmt.Sprintf("input-%d.json", i))
	if err := os.WriteFile(name, converted, 0o600); err != nil {
		return "", fmt.Errorf("failed to write temporary input: %w", err)
	}
	return name, nil
}
