package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Workspace is an in-memory filesystem holding input and output files
type Workspace struct {
	t      *testing.T
	Fs     afero.Fs
	ctx    context.Context
	cancel context.CancelFunc
}

// NewWorkspace creates an empty workspace cleaned up with the test
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	return &Workspace{t: t, Fs: afero.NewMemMapFs(), ctx: ctx, cancel: cancel}
}

// Context returns the workspace context
func (w *Workspace) Context() context.Context {
	return w.ctx
}

// Write creates a file with content, creating parent directories
func (w *Workspace) Write(name, content string) string {
	w.t.Helper()

	path := filepath.FromSlash(name)
	require.NoError(w.t, w.Fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(w.t, afero.WriteFile(w.Fs, path, []byte(content), 0o644))
	return path
}

// WriteAll writes every file of files
func (w *Workspace) WriteAll(files map[string]string) {
	w.t.Helper()
	for name, content := range files {
		w.Write(name, content)
	}
}

// Read returns the content of a file
func (w *Workspace) Read(name string) string {
	w.t.Helper()

	data, err := afero.ReadFile(w.Fs, filepath.FromSlash(name))
	require.NoError(w.t, err)
	return string(data)
}

// Exists reports whether a file exists
func (w *Workspace) Exists(name string) bool {
	w.t.Helper()

	ok, err := afero.Exists(w.Fs, filepath.FromSlash(name))
	require.NoError(w.t, err)
	return ok
}

// WorkspaceSuite gives every test of a suite a fresh workspace
type WorkspaceSuite struct {
	suite.Suite
	Workspace *Workspace
}

// SetupTest runs before each test in the suite
func (s *WorkspaceSuite) SetupTest() {
	s.Workspace = NewWorkspace(s.T())
}
