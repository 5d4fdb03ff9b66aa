package output

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/apimtpl/pkg/arm"
	"github.com/ajitpratap0/apimtpl/pkg/errors"
)

func documents() map[string]interface{} {
	return map[string]interface{}{
		arm.TemplateFile: &arm.Template{
			Schema:         arm.TemplateSchema,
			ContentVersion: arm.ContentVersion,
			Parameters:     map[string]arm.TemplateParameter{},
			Variables:      map[string]interface{}{},
			Resources:      []arm.Resource{},
		},
		arm.ParametersFile: &arm.ParameterFile{
			Schema:         arm.ParametersSchema,
			ContentVersion: arm.ContentVersion,
			Parameters:     map[string]arm.ParameterValue{"key": {Value: "<v>"}},
		},
	}
}

func TestWriteDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs, Options{Dir: "out", Indent: "  ", Logger: zaptest.NewLogger(t)})

	written, err := w.Write(documents())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("out", arm.TemplateFile),
		filepath.Join("out", arm.ParametersFile),
	}, written)

	data, err := afero.ReadFile(fs, filepath.Join("out", arm.ParametersFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"parameters\": {\n")
	assert.Contains(t, string(data), `"value": "<v>"`)
	assert.True(t, bytes.HasSuffix(data, []byte("}\n")))
}

func TestWriteRenamesDocuments(t *testing.T) {
	fs := afero.NewMemMapFs()
	w := NewWriter(fs, Options{Dir: "out", TemplateFile: "main.json", ParametersFile: "main.parameters.json"})

	written, err := w.Write(documents())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("out", "main.json"),
		filepath.Join("out", "main.parameters.json"),
	}, written)

	exists, err := afero.Exists(fs, filepath.Join("out", arm.TemplateFile))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWriteStdout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(afero.NewMemMapFs(), Options{Dir: "-", Stdout: &buf})

	written, err := w.Write(map[string]interface{}{arm.ParametersFile: documents()[arm.ParametersFile]})
	require.NoError(t, err)
	assert.Equal(t, []string{"-"}, written)
	assert.Equal(t, `{"azuredeploy.parameters.json":{"$schema":"`+arm.ParametersSchema+
		`","contentVersion":"1.0.0.0","parameters":{"key":{"value":"<v>"}}}}`+"\n", buf.String())
}

func TestWriteNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	written, err := NewWriter(fs, Options{Dir: "out"}).Write(nil)
	require.NoError(t, err)
	assert.Empty(t, written)

	exists, err := afero.DirExists(fs, "out")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWriteReadOnlyFs(t *testing.T) {
	w := NewWriter(afero.NewReadOnlyFs(afero.NewMemMapFs()), Options{Dir: "out"})

	_, err := w.Write(documents())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}
