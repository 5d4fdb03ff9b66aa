package config

import (
	"os"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/apimtpl/pkg/errors"
)

// Load loads a configuration from a YAML file on the OS filesystem
func Load(filePath string, config interface{}) error {
	return LoadFs(afero.NewOsFs(), filePath, config)
}

// LoadFs loads a configuration from a YAML file on fs. ${VAR_NAME}
// references are replaced with environment values before parsing.
func LoadFs(fs afero.Fs, filePath string, config interface{}) error {
	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file")
	}

	content := substituteEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(content), config); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML")
	}

	return nil
}

// Save saves a configuration to a YAML file on fs
func Save(fs afero.Fs, filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := afero.WriteFile(fs, filePath, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file")
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Unset variables become empty strings.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
