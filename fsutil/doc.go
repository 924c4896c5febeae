// Package fsutil provides small filesystem helpers for test fixtures and
// project scaffolding: existence checks, folder creation, JSON read and
// merge-on-write, and empty-directory detection.
//
// Helpers operate on an afero.Fs so they can run against memory in tests:
//
//	fs := fsutil.New(afero.NewMemMapFs())
//	if err := fs.WriteJSON("package.json", map[string]any{"name": "demo"}); err != nil {
//	    return err
//	}
//
// The package-level functions use the operating system filesystem.
package fsutil
