package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// readYAML reads a YAML file into a generic map after substituting ${VAR}
// references with environment values. An empty file yields a nil map.
func readYAML(filePath string) (map[string]interface{}, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from --config
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings map[string]interface{}
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), &settings); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return settings, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
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
