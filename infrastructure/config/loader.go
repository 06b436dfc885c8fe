package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	domainconfig "canvas-backend/domain/config"
)

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extensions() []string
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (YAMLLoader) Load(reader io.Reader, target interface{}) error {
	err := yaml.NewDecoder(reader).Decode(target)
	if err == io.EOF {
		return nil
	}
	return err
}

func (YAMLLoader) Extensions() []string { return []string{".yaml", ".yml"} }

// TOMLLoader loads configuration from TOML files.
type TOMLLoader struct{}

func (TOMLLoader) Load(reader io.Reader, target interface{}) error {
	_, err := toml.NewDecoder(reader).Decode(target)
	return err
}

func (TOMLLoader) Extensions() []string { return []string{".toml"} }

var fileLoaders = []FileLoader{YAMLLoader{}, TOMLLoader{}}

func loaderFor(path string) (FileLoader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, l := range fileLoaders {
		for _, e := range l.Extensions() {
			if e == ext {
				return l, nil
			}
		}
	}
	return nil, fmt.Errorf("unsupported config file type %q", ext)
}

// IsConfigFile reports whether path has an extension LoadDomainFile understands.
func IsConfigFile(path string) bool {
	_, err := loaderFor(path)
	return err == nil
}

// LoadDomainFile overlays the tunables in path on a copy of base. Keys the
// file leaves out keep their base values. An empty path returns the copy
// unchanged.
func LoadDomainFile(path string, base *domainconfig.DomainConfig) (*domainconfig.DomainConfig, error) {
	cfg := base.Clone()
	if path == "" {
		return cfg, nil
	}

	loader, err := loaderFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := loader.Load(f, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid canvas configuration in %s: %w", path, err)
	}
	return cfg, nil
}
