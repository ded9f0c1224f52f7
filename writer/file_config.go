package writer

import (
	"fmt"
	"os"
	"time"

	"github.com/charmoney/SwitchInputEmulator/serialport"
	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML representation of a Config.
//
//	port: /dev/ttyACM0
//	baudRate: 19200
//	handshakeTimeout: 100ms
//	writeTimeout: 40ms
//	handshake:
//	  - {probe: 0xFF, expect: 0xFF}
//	  - {probe: 0x33, expect: 0xCC}
//	  - {probe: 0xCC, expect: 0x33}
//
// Zero values keep the defaults.
type FileConfig struct {
	Port             string        `yaml:"port"`
	BaudRate         int           `yaml:"baudRate"`
	HandshakeTimeout time.Duration `yaml:"handshakeTimeout"`
	WriteTimeout     time.Duration `yaml:"writeTimeout"`
	EventQueueSize   int           `yaml:"eventQueueSize"`
	EventTimeout     time.Duration `yaml:"eventTimeout"`
	CloseTimeout     time.Duration `yaml:"closeTimeout"`
	DialTimeout      time.Duration `yaml:"dialTimeout"`
	Handshake        []StepConfig  `yaml:"handshake"`
}

// StepConfig is the YAML representation of a handshake Step.
type StepConfig struct {
	Probe  uint8 `yaml:"probe"`
	Expect uint8 `yaml:"expect"`
}

// Options converts the file settings into Writer options.
func (fc *FileConfig) Options() ([]Option, error) {
	var opts []Option

	if fc.BaudRate != 0 {
		opts = append(opts, WithBaudRate(fc.BaudRate))
	}
	if fc.HandshakeTimeout != 0 {
		opts = append(opts, WithHandshakeTimeout(fc.HandshakeTimeout))
	}
	if fc.WriteTimeout != 0 {
		opts = append(opts, WithWriteTimeout(fc.WriteTimeout))
	}
	if fc.EventQueueSize != 0 {
		opts = append(opts, WithEventQueueSize(fc.EventQueueSize))
	}
	if fc.EventTimeout != 0 {
		opts = append(opts, WithEventTimeout(fc.EventTimeout))
	}
	if fc.CloseTimeout != 0 {
		opts = append(opts, WithCloseTimeout(fc.CloseTimeout))
	}
	if fc.DialTimeout != 0 {
		opts = append(opts, WithPortOptions(serialport.WithDialTimeout(fc.DialTimeout)))
	}

	if len(fc.Handshake) > 0 {
		if len(fc.Handshake) != StepCount {
			return nil, fmt.Errorf("writer: handshake needs exactly %d steps, got %d", StepCount, len(fc.Handshake))
		}

		var steps [StepCount]Step
		for i, sc := range fc.Handshake {
			steps[i] = Step{Probe: sc.Probe, Expect: sc.Expect}
		}
		opts = append(opts, WithHandshake(steps))
	}

	return opts, nil
}

// Config builds a Config from the file settings. opts are applied after
// the file settings and take precedence.
func (fc *FileConfig) Config(opts ...Option) (*Config, error) {
	fileOpts, err := fc.Options()
	if err != nil {
		return nil, err
	}

	return NewConfig(fc.Port, append(fileOpts, opts...)...)
}

// ParseFileConfig decodes a YAML document into a FileConfig.
func ParseFileConfig(data []byte) (*FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("writer: parse config: %w", err)
	}

	return &fc, nil
}

// LoadFileConfig reads and decodes the YAML config file at path.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("writer: read config: %w", err)
	}

	return ParseFileConfig(data)
}

// ParseConfig builds a Config from a YAML document. opts are applied after
// the file settings and take precedence.
func ParseConfig(data []byte, opts ...Option) (*Config, error) {
	fc, err := ParseFileConfig(data)
	if err != nil {
		return nil, err
	}

	return fc.Config(opts...)
}

// LoadConfigFile reads and parses the YAML config file at path.
func LoadConfigFile(path string, opts ...Option) (*Config, error) {
	fc, err := LoadFileConfig(path)
	if err != nil {
		return nil, err
	}

	return fc.Config(opts...)
}
