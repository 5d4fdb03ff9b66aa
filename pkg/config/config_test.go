package config

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/apimtpl/pkg/arm"
	"github.com/ajitpratap0/apimtpl/pkg/errors"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := NewCompilerConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, arm.DefaultPolicy(), cfg.Policy())
	assert.Equal(t, []string{"stderr"}, cfg.LoggerConfig().OutputPaths)
	assert.False(t, cfg.TracingConfig("1.0.0").Enabled)
	assert.Equal(t, "1.0.0", cfg.TracingConfig("1.0.0").ServiceVersion)
}

func TestValidateCollectsEveryViolation(t *testing.T) {
	cfg := NewCompilerConfig()
	cfg.Discovery.Extensions = []string{"yaml"}
	cfg.Discovery.Exclude = []string{"[unclosed"}
	cfg.Placeholders.MaxDepth = 0
	cfg.Output.ParametersFile = cfg.Output.TemplateFile
	cfg.Output.Indent = "--"
	cfg.Logging.Level = "loud"
	cfg.Observability.SamplingRate = 2

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	var stageErr *errors.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Len(t, stageErr.Violations(), 7)
	assert.Contains(t, err.Error(), `discovery.extensions: "yaml" must start with a dot`)
	assert.Contains(t, err.Error(), `discovery.exclude: invalid pattern "[unclosed"`)
	assert.Contains(t, err.Error(), `logging.level: unknown level "loud"`)
}

func TestWritesToStdout(t *testing.T) {
	cfg := NewCompilerConfig()
	for dir, want := range map[string]bool{"": true, "-": true, "out": false} {
		cfg.Output.Dir = dir
		assert.Equal(t, want, cfg.WritesToStdout(), dir)
	}
}

func TestLoadFsMissingFile(t *testing.T) {
	err := LoadFs(afero.NewMemMapFs(), "missing.yaml", NewCompilerConfig())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestLoadFsInvalidYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("output: [\n"), 0o644))

	err := LoadFs(fs, "bad.yaml", NewCompilerConfig())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "c.yaml", []byte("placeholders:\n  max_depth: 4\n"), 0o644))

	cfg := NewCompilerConfig()
	require.NoError(t, LoadFs(fs, "c.yaml", cfg))
	assert.Equal(t, 4, cfg.Placeholders.MaxDepth)
	assert.Equal(t, arm.TemplateFile, cfg.Output.TemplateFile)
	assert.Equal(t, []string{".yaml", ".yml"}, cfg.Discovery.Extensions)
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := NewCompilerConfig()
	cfg.Output.Dir = "build"
	cfg.Discovery.Exclude = []string{"**/drafts/**"}
	require.NoError(t, Save(fs, "out.yaml", cfg))

	loaded := &CompilerConfig{}
	require.NoError(t, LoadFs(fs, "out.yaml", loaded))
	assert.Equal(t, cfg, loaded)
}

func TestSubstituteEnvVars(t *testing.T) {
	os.Setenv("APIMTPL_TEST_A", "x")
	os.Setenv("APIMTPL_TEST_LOOP", "${APIMTPL_TEST_A}")
	defer os.Unsetenv("APIMTPL_TEST_A")
	defer os.Unsetenv("APIMTPL_TEST_LOOP")

	assert.Equal(t, "a=x b= c=${APIMTPL_TEST_A} d=${open",
		substituteEnvVars("a=${APIMTPL_TEST_A} b=${APIMTPL_TEST_UNSET} c=${APIMTPL_TEST_LOOP} d=${open"))
}
