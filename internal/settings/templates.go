package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts toml, yaml or yml.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown settings format: %s", raw)
	}
}

// FormatOf picks the format from a file extension; anything unknown is TOML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

func Template(format Format) (string, error) {
	switch format {
	case FormatTOML:
		return tomlTemplate, nil
	case FormatYAML:
		return yamlTemplate, nil
	default:
		return "", fmt.Errorf("unknown settings format: %s", format)
	}
}

// WriteTemplate atomically writes the starter settings file for format.
func WriteTemplate(path string, format Format, overwrite bool) error {
	template, err := Template(format)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("settings already exist: %s", path)
		}
	}
	if err := renameio.WriteFile(path, []byte(template), 0o644); err != nil {
		return fmt.Errorf("write settings template (%s): %w", path, err)
	}
	return nil
}

const tomlTemplate = `name = "android"
include = ["app"]
relocate = "../../build"
evaluation_anchor = "app"
clean_task = "clean"

[[repositories]]
name = "google"

[[repositories]]
name = "mavenCentral"
`

const yamlTemplate = `name: android
include:
  - app
relocate: ../../build
evaluation_anchor: app
clean_task: clean
repositories:
  - name: google
  - name: mavenCentral
`
