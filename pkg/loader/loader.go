// Package loader discovers and parses input documents.
//
// Directories are walked in lexicographic order with files before
// subdirectories, so the documents of a directory tree always combine in the
// same order. Files are read concurrently and handed back in discovery order.
package loader

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/tree"
)

// StdinPath reads standard input instead of a file
const StdinPath = "-"

// skippedDirs are never descended into
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
}

// Options configure discovery and loading
type Options struct {
	// Extensions of files picked up while walking directories. Files named
	// explicitly are always read.
	Extensions []string

	// Exclude holds doublestar patterns matched against paths relative to
	// the walked directory
	Exclude []string

	// Concurrency bounds the number of files read at once
	Concurrency int

	// Stdin is read for StdinPath; defaults to os.Stdin
	Stdin io.Reader

	Logger *zap.Logger
}

// DefaultOptions returns the default loader options
func DefaultOptions() Options {
	return Options{
		Extensions:  []string{".yaml", ".yml"},
		Concurrency: 4,
	}
}

// Source is one input file and the documents parsed from it
type Source struct {
	Path      string
	Documents []*tree.Node
}

// Loader reads documents from a filesystem
type Loader struct {
	fs     afero.Fs
	opts   Options
	logger *zap.Logger
}

// New creates a loader over fs
func New(fs afero.Fs, opts Options) *Loader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{fs: fs, opts: opts, logger: log}
}

// Load discovers every input under paths and returns their documents in
// discovery order
func (l *Loader) Load(ctx context.Context, paths []string) ([]*tree.Node, error) {
	sources, err := l.LoadSources(ctx, paths)
	if err != nil {
		return nil, err
	}

	var docs []*tree.Node
	for _, src := range sources {
		docs = append(docs, src.Documents...)
	}
	return docs, nil
}

// LoadSources is Load keeping the file each document came from
func (l *Loader) LoadSources(ctx context.Context, paths []string) ([]Source, error) {
	files, err := l.Discover(paths)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal, "loading cancelled")
			}
			docs, err := l.read(file)
			if err != nil {
				return err
			}
			sources[i] = Source{Path: file, Documents: docs}
			l.logger.Debug("loaded file", zap.String("path", file), zap.Int("documents", len(docs)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// Discover expands paths into the ordered list of files to read
func (l *Loader) Discover(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		if p == StdinPath {
			add(p)
			continue
		}

		info, err := l.fs.Stat(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot access "+p)
		}
		if !info.IsDir() {
			add(filepath.Clean(p))
			continue
		}

		found, err := l.walk(p, "")
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

// walk lists root/rel, files first, then each subdirectory
func (l *Loader) walk(root, rel string) ([]string, error) {
	dir := filepath.Join(root, filepath.FromSlash(rel))
	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot read directory "+dir)
	}

	var files, dirs []string
	for _, entry := range entries {
		name := entry.Name()
		entryRel := path.Join(rel, name)
		if entry.IsDir() {
			if !skippedDirs[name] && !l.excluded(entryRel) {
				dirs = append(dirs, entryRel)
			}
			continue
		}
		if l.hasExtension(name) && !l.excluded(entryRel) {
			files = append(files, filepath.Join(root, filepath.FromSlash(entryRel)))
		}
	}

	for _, sub := range dirs {
		found, err := l.walk(root, sub)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func (l *Loader) hasExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range l.opts.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func (l *Loader) excluded(rel string) bool {
	for _, pattern := range l.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (l *Loader) read(file string) ([]*tree.Node, error) {
	var (
		data []byte
		err  error
	)
	if file == StdinPath {
		data, err = io.ReadAll(l.opts.Stdin)
	} else {
		data, err = afero.ReadFile(l.fs, file)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read "+file)
	}

	docs, err := tree.ParseBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeStructural, file)
	}
	return docs, nil
}
