package serialport

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmoney/SwitchInputEmulator/logger"
)

const (
	// DefaultBaudRate is the line rate agreed with the controller firmware.
	DefaultBaudRate = 19200

	DefaultDialTimeout = 3 * time.Second

	MinBaudRate = 300
	MaxBaudRate = 4000000

	// TCPScheme prefixes port names that address a TCP serial bridge.
	TCPScheme = "tcp://"
)

type config struct {
	baudRate    int
	dialTimeout time.Duration
	opener      OpenFunc
	logger      logger.Logger
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		baudRate:    DefaultBaudRate,
		dialTimeout: DefaultDialTimeout,
		opener:      openDevice,
		logger:      logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Option is a functional option for Open.
type Option interface {
	apply(*config) error
}

type optFunc func(*config) error

func (f optFunc) apply(cfg *config) error { return f(cfg) }

// WithBaudRate sets the line rate. Ignored by TCP bridges.
func WithBaudRate(rate int) Option {
	return optFunc(func(cfg *config) error {
		if rate < MinBaudRate || rate > MaxBaudRate {
			return fmt.Errorf("serialport: baud rate %d out of range [%d, %d]", rate, MinBaudRate, MaxBaudRate)
		}
		cfg.baudRate = rate

		return nil
	})
}

// WithDialTimeout sets the connect timeout for tcp:// endpoints.
func WithDialTimeout(d time.Duration) Option {
	return optFunc(func(cfg *config) error {
		if d <= 0 {
			return errors.New("serialport: dial timeout must be positive")
		}
		cfg.dialTimeout = d

		return nil
	})
}

// WithOpener replaces the function used to open serial devices.
func WithOpener(fn OpenFunc) Option {
	return optFunc(func(cfg *config) error {
		if fn == nil {
			return errors.New("serialport: opener must not be nil")
		}
		cfg.opener = fn

		return nil
	})
}

// WithLogger sets the logger for the session.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *config) error {
		if l == nil {
			return errors.New("serialport: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
