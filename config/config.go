package config

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed config.default.yaml
var defaultConfig []byte

// Config describes a filesystem and the mounts it is built from.
type Config struct {
	Log    LogConfig     `key:"log"`
	Mounts []MountConfig `key:"mounts"`
}

type LogConfig struct {
	Level      string `key:"level"`
	File       string `key:"file"`
	NoTerminal bool   `key:"noTerminal"`
	JSON       bool   `key:"json"`
}

// MountConfig attaches the handler created from Address at Path.
// Mounts are applied in the order they are listed.
type MountConfig struct {
	Path    string `key:"path"`
	Address string `key:"address"`
	Label   string `key:"label"`
}

var ErrMissingMountField = errors.New("config: mount requires path and address")

type ConfigFormat string

const (
	JSONConfigFormat ConfigFormat = ".json"
	YAMLConfigFormat ConfigFormat = ".yaml"
	YMLConfigFormat  ConfigFormat = ".yml"
)

type ParserFunc func() koanf.Parser

var parserMap = map[ConfigFormat]ParserFunc{
	JSONConfigFormat: func() koanf.Parser { return json.Parser() },
	YAMLConfigFormat: func() koanf.Parser { return yaml.Parser() },
	YMLConfigFormat:  func() koanf.Parser { return yaml.Parser() },
}

func GetConfigParser(format ConfigFormat) (koanf.Parser, error) {
	if parserFunc, ok := parserMap[format]; ok {
		return parserFunc(), nil
	}

	return nil, fmt.Errorf("config: parser not found for format '%s'", format)
}

// Loader merges configuration sources on top of the embedded defaults.
type Loader struct {
	kf *koanf.Koanf
}

func NewLoader() (*Loader, error) {
	l := &Loader{
		kf: koanf.New("."),
	}

	if err := l.Load(YAMLConfigFormat, rawbytes.Provider(defaultConfig)); err != nil {
		return nil, err
	}

	return l, nil
}

// Load merges the configuration read from provider in the given format.
func (l *Loader) Load(format ConfigFormat, provider koanf.Provider) error {
	parser, err := GetConfigParser(format)
	if err != nil {
		return err
	}

	return l.kf.Load(provider, parser)
}

// LoadFile merges the file at path, choosing the parser by its extension.
func (l *Loader) LoadFile(path string) error {
	return l.Load(ConfigFormat(filepath.Ext(path)), file.Provider(path))
}

// LoadBytes merges raw configuration content in the given format.
func (l *Loader) LoadBytes(format ConfigFormat, content []byte) error {
	return l.Load(format, rawbytes.Provider(content))
}

// Config unmarshals and validates the merged configuration.
func (l *Loader) Config() (*Config, error) {
	var cfg Config
	if err := l.kf.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "key"}); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Print returns a string representation of the merged configuration.
func (l *Loader) Print() string {
	return l.kf.Sprint()
}

func (c *Config) Validate() error {
	for i, mount := range c.Mounts {
		if mount.Path == "" || mount.Address == "" {
			return fmt.Errorf("%w: mounts[%d]", ErrMissingMountField, i)
		}
	}

	return nil
}

// LoadFile reads the configuration file at path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	l, err := NewLoader()
	if err != nil {
		return nil, err
	}

	if err := l.LoadFile(path); err != nil {
		return nil, err
	}

	return l.Config()
}

// Parse reads configuration content in the given format on top of the defaults.
func Parse(format ConfigFormat, content []byte) (*Config, error) {
	l, err := NewLoader()
	if err != nil {
		return nil, err
	}

	if err := l.LoadBytes(format, content); err != nil {
		return nil, err
	}

	return l.Config()
}
