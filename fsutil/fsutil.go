package fsutil

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/wagiedev/commando/internal/errors"
)

const (
	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

// JSONDecodeError indicates a file's JSON content could not be parsed.
type JSONDecodeError = errors.JSONDecodeError

var (
	// ErrNotJSONObject indicates a JSON file holds valid JSON that is not an object.
	ErrNotJSONObject = errors.ErrNotJSONObject

	// ErrNotDirectory indicates a path exists but is not a directory.
	ErrNotDirectory = errors.ErrNotDirectory
)

// FS wraps an afero.Fs with the helper operations.
type FS struct {
	fs afero.Fs
}

// New returns helpers operating on fs.
func New(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// OS returns helpers operating on the operating system filesystem.
func OS() *FS {
	return New(afero.NewOsFs())
}

// Fs returns the underlying filesystem.
func (f *FS) Fs() afero.Fs {
	return f.fs
}

// PathExists reports whether path exists.
func (f *FS) PathExists(path string) (bool, error) {
	return afero.Exists(f.fs, path)
}

// Mkdir creates a single directory. The parent must exist.
func (f *FS) Mkdir(path string) error {
	return f.fs.Mkdir(path, dirPerm)
}

// ReadFile returns the content of path.
func (f *FS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(f.fs, path)
}

// WriteFile writes data to path, creating parent directories as needed.
func (f *FS) WriteFile(path string, data []byte) error {
	if err := f.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}

	return afero.WriteFile(f.fs, path, data, filePerm)
}

// EnsureFolder creates every missing directory in paths, in order,
// including missing parents. Existing directories are left alone, so the
// call is idempotent. A path that exists but is not a directory fails with
// ErrNotDirectory.
func (f *FS) EnsureFolder(paths ...string) error {
	for _, path := range paths {
		info, err := f.fs.Stat(path)

		switch {
		case err == nil && info.IsDir():
			continue
		case err == nil:
			return fmt.Errorf("ensure folder %s: %w", path, ErrNotDirectory)
		case !stderrors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("ensure folder %s: %w", path, err)
		}

		if err := f.fs.MkdirAll(path, dirPerm); err != nil {
			return fmt.Errorf("ensure folder %s: %w", path, err)
		}
	}

	return nil
}

// ReadJSON parses the JSON content of path into v.
// Returns *JSONDecodeError if the content is not valid JSON for v.
func (f *FS) ReadJSON(path string, v any) error {
	data, err := f.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return &JSONDecodeError{Path: path, RawData: string(data), Err: err}
	}

	return nil
}

// WriteJSON merges content over the top-level keys of the JSON object
// stored at path and writes the result with two-space indentation.
//
// A missing or empty file counts as an empty object. A file holding
// invalid JSON fails with *JSONDecodeError instead of being overwritten;
// one holding JSON that is not an object fails with ErrNotJSONObject.
func (f *FS) WriteJSON(path string, content map[string]any) error {
	current, err := f.readObject(path)
	if err != nil {
		return err
	}

	merged := make(map[string]any, len(current)+len(content))
	maps.Copy(merged, current)
	maps.Copy(merged, content)

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return f.WriteFile(path, data)
}

// readObject loads the top-level object at path for merging.
func (f *FS) readObject(path string) (map[string]any, error) {
	data, err := f.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &JSONDecodeError{Path: path, RawData: string(data), Err: err}
	}

	switch v := doc.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	default:
		return nil, &JSONDecodeError{Path: path, RawData: string(data), Err: ErrNotJSONObject}
	}
}

// IsEmptyDirectory reports whether the directory at path has no entries.
// Hidden entries count.
func (f *FS) IsEmptyDirectory(path string) (bool, error) {
	entries, err := afero.ReadDir(f.fs, path)
	if err != nil {
		return false, fmt.Errorf("read directory %s: %w", path, err)
	}

	return len(entries) == 0, nil
}

var osFS = OS()

// PathExists reports whether path exists on the OS filesystem.
func PathExists(path string) (bool, error) { return osFS.PathExists(path) }

// Mkdir creates a single directory on the OS filesystem.
func Mkdir(path string) error { return osFS.Mkdir(path) }

// ReadFile returns the content of path on the OS filesystem.
func ReadFile(path string) ([]byte, error) { return osFS.ReadFile(path) }

// WriteFile writes data to path on the OS filesystem.
func WriteFile(path string, data []byte) error { return osFS.WriteFile(path, data) }

// EnsureFolder creates missing directories on the OS filesystem.
func EnsureFolder(paths ...string) error { return osFS.EnsureFolder(paths...) }

// ReadJSON parses a JSON file on the OS filesystem.
func ReadJSON(path string, v any) error { return osFS.ReadJSON(path, v) }

// WriteJSON merges content into a JSON file on the OS filesystem.
func WriteJSON(path string, content map[string]any) error { return osFS.WriteJSON(path, content) }

// IsEmptyDirectory reports whether a directory on the OS filesystem is empty.
// An empty path means the current working directory.
func IsEmptyDirectory(path string) (bool, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return false, fmt.Errorf("get working directory: %w", err)
		}

		path = wd
	}

	return osFS.IsEmptyDirectory(path)
}
