// Package output writes generated documents.
package output

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ajitpratap0/apimtpl/pkg/arm"
	"github.com/ajitpratap0/apimtpl/pkg/errors"
	"github.com/ajitpratap0/apimtpl/pkg/json"
)

// Options configure a Writer
type Options struct {
	// Dir receives one file per document. Empty or "-" writes a single
	// JSON object keyed by file name to Stdout instead.
	Dir string

	// TemplateFile and ParametersFile rename the generated documents
	TemplateFile   string
	ParametersFile string

	Indent string
	Stdout io.Writer
	Logger *zap.Logger
}

// Writer writes compiler output through an afero filesystem
type Writer struct {
	fs     afero.Fs
	opts   Options
	logger *zap.Logger
}

// NewWriter creates a writer over fs
func NewWriter(fs afero.Fs, opts Options) *Writer {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{fs: fs, opts: opts, logger: log}
}

// Write writes docs and returns the paths written, in file name order. Nothing
// is written for an empty document set.
func (w *Writer) Write(docs map[string]interface{}) ([]string, error) {
	docs = w.rename(docs)
	if len(docs) == 0 {
		return nil, nil
	}

	if w.opts.Dir == "" || w.opts.Dir == "-" {
		if err := json.MarshalToWriter(w.opts.Stdout, docs, w.opts.Indent); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to write documents to stdout")
		}
		return []string{"-"}, nil
	}

	if err := w.fs.MkdirAll(w.opts.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory "+w.opts.Dir)
	}

	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(w.opts.Dir, name)
		if err := w.writeFile(path, docs[name]); err != nil {
			return written, err
		}
		w.logger.Debug("wrote document", zap.String("path", path))
		written = append(written, path)
	}
	return written, nil
}

func (w *Writer) writeFile(path string, doc interface{}) error {
	data, err := json.MarshalIndent(doc, w.opts.Indent)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode "+path)
	}
	data = append(data, '\n')

	if err := afero.WriteFile(w.fs, path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write "+path)
	}
	return nil
}

// rename maps the default document names onto the configured ones
func (w *Writer) rename(docs map[string]interface{}) map[string]interface{} {
	renames := map[string]string{
		arm.TemplateFile:   w.opts.TemplateFile,
		arm.ParametersFile: w.opts.ParametersFile,
	}

	out := make(map[string]interface{}, len(docs))
	for name, doc := range docs {
		if to := renames[name]; to != "" {
			name = to
		}
		out[name] = doc
	}
	return out
}
