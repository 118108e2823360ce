package module

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	taskerrors "github.com/vinayprograms/conclave/internal/errors"
)

// FSModule exposes list(path, recursive?) and read(path, offset?,
// length?) over the local filesystem.
type FSModule struct{}

func NewFSModule() *FSModule { return &FSModule{} }

func (m *FSModule) Name() string { return "fs" }

func (m *FSModule) Execute(ctx context.Context, action string, args []string) (string, error) {
	switch action {
	case "list":
		path, kv := splitPathAndKV(args)
		if path == "" {
			return "", missingArg("fs", "list", "path")
		}
		return m.list(path, kv["recursive"] == "true")
	case "read":
		path, kv := splitPathAndKV(args)
		if path == "" {
			return "", missingArg("fs", "read", "path")
		}
		offset, length, err := parseReadRange(kv)
		if err != nil {
			return "", err
		}
		return m.read(path, offset, length)
	default:
		return "", unknownAction("fs", action, []string{"list", "read"})
	}
}

// list returns one path per line. Non-recursive listing joins path
// with each entry's own name; recursive listing walks the whole
// subtree and includes directories, excluding path itself.
func (m *FSModule) list(path string, recursive bool) (string, error) {
	var lines []string
	if recursive {
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if p == path {
				return nil
			}
			lines = append(lines, p)
			return nil
		})
		if err != nil {
			return "", taskerrors.NewModuleError(taskerrors.ModulePathNotFound, "%s: %v", path, err)
		}
	} else {
		entries, err := os.ReadDir(path)
		if err != nil {
			return "", taskerrors.NewModuleError(taskerrors.ModulePathNotFound, "%s: %v", path, err)
		}
		for _, e := range entries {
			lines = append(lines, filepath.Join(path, e.Name()))
		}
	}
	return strings.Join(lines, "\n"), nil
}

// read returns path's content verbatim, sliced to [offset, offset+length)
// when those are given. Binary content is rejected rather than
// returned mangled through a string conversion.
func (m *FSModule) read(path string, offset, length int) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", taskerrors.NewModuleError(taskerrors.ModulePathNotFound, "%s: %v", path, err)
	}
	if isBinary(data) {
		return "", taskerrors.NewModuleError(taskerrors.ModuleUnsupportedEncode, "%s: binary content", path)
	}

	if offset < 0 {
		offset = 0
	}
	if offset > len(data) {
		offset = len(data)
	}
	end := len(data)
	if length > 0 && offset+length < end {
		end = offset + length
	}
	return string(data[offset:end]), nil
}

// isBinary applies the same heuristic git and most text editors use:
// a NUL byte anywhere in the first few KB means the file isn't text.
func isBinary(data []byte) bool {
	const sniffLen = 8000
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) != -1
}

// splitPathAndKV treats the first bare (non key=value) argument as
// the path and collects the rest into a key=value map, mirroring
// internal/module's other modules' flat Args convention.
func splitPathAndKV(args []string) (path string, kv map[string]string) {
	kv = make(map[string]string)
	for _, a := range args {
		if key, value, ok := strings.Cut(a, "="); ok {
			kv[key] = value
			continue
		}
		if path == "" {
			path = a
		}
	}
	return path, kv
}

func parseReadRange(kv map[string]string) (offset, length int, err error) {
	if v, ok := kv["offset"]; ok {
		offset, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, taskerrors.NewModuleError(taskerrors.ModuleParseError, "invalid offset %q", v)
		}
	}
	if v, ok := kv["length"]; ok {
		length, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, taskerrors.NewModuleError(taskerrors.ModuleParseError, "invalid length %q", v)
		}
	}
	return offset, length, nil
}

func missingArg(moduleName, action, want string) error {
	return taskerrors.NewModuleError(taskerrors.ModuleParseError,
		"%s %s requires %s", moduleName, action, want)
}
