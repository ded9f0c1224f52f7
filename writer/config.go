package writer

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmoney/SwitchInputEmulator/logger"
	"github.com/charmoney/SwitchInputEmulator/serialport"
)

// Default values.
const (
	DefaultHandshakeTimeout = 100 * time.Millisecond // per handshake step
	DefaultWriteTimeout     = 40 * time.Millisecond  // per write cycle
	DefaultEventQueueSize   = 64
	DefaultEventTimeout     = time.Second
	DefaultCloseTimeout     = 3 * time.Second
)

// Range limits.
const (
	MinHandshakeTimeout = 10 * time.Millisecond
	MaxHandshakeTimeout = 10 * time.Second

	MinWriteTimeout = 5 * time.Millisecond
	MaxWriteTimeout = 10 * time.Second

	MaxEventQueueSize = 4096
)

// readBufferSize is the maximum number of reply bytes read at once.
const readBufferSize = 128

// Config holds all configuration for a Writer.
type Config struct {
	portName string
	baudRate int

	handshake [StepCount]Step

	handshakeTimeout time.Duration
	writeTimeout     time.Duration

	eventQueueSize int
	eventTimeout   time.Duration
	closeTimeout   time.Duration

	portOpts []serialport.Option

	logger logger.Logger
}

// NewConfig creates a Writer configuration for the port named portName.
//
// An empty portName is accepted here; the worker reports it as a fatal Error
// event when started.
func NewConfig(portName string, opts ...Option) (*Config, error) {
	cfg := &Config{
		portName:         portName,
		baudRate:         serialport.DefaultBaudRate,
		handshake:        DefaultHandshake,
		handshakeTimeout: DefaultHandshakeTimeout,
		writeTimeout:     DefaultWriteTimeout,
		eventQueueSize:   DefaultEventQueueSize,
		eventTimeout:     DefaultEventTimeout,
		closeTimeout:     DefaultCloseTimeout,
		logger:           logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// PortName returns the port identifier.
func (cfg *Config) PortName() string { return cfg.portName }

// BaudRate returns the serial line rate.
func (cfg *Config) BaudRate() int { return cfg.baudRate }

// Handshake returns the three handshake steps.
func (cfg *Config) Handshake() [StepCount]Step { return cfg.handshake }

// HandshakeTimeout returns the reply timeout of a handshake step.
func (cfg *Config) HandshakeTimeout() time.Duration { return cfg.handshakeTimeout }

// WriteTimeout returns the reply timeout of a write cycle.
func (cfg *Config) WriteTimeout() time.Duration { return cfg.writeTimeout }

// EventQueueSize returns the buffer size of the default event channel.
func (cfg *Config) EventQueueSize() int { return cfg.eventQueueSize }

// EventTimeout returns how long delivery to a full event channel may block.
func (cfg *Config) EventTimeout() time.Duration { return cfg.eventTimeout }

// CloseTimeout returns how long Stop waits for the worker to terminate.
func (cfg *Config) CloseTimeout() time.Duration { return cfg.closeTimeout }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

func (cfg *Config) sessionOptions() []serialport.Option {
	opts := make([]serialport.Option, 0, len(cfg.portOpts)+2)
	opts = append(opts, serialport.WithBaudRate(cfg.baudRate), serialport.WithLogger(cfg.logger))

	return append(opts, cfg.portOpts...)
}

// --- Option ---

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithBaudRate sets the serial line rate. Default 19200.
func WithBaudRate(rate int) Option {
	return optFunc(func(cfg *Config) error {
		if rate < serialport.MinBaudRate || rate > serialport.MaxBaudRate {
			return fmt.Errorf("writer: baud rate %d out of range [%d, %d]",
				rate, serialport.MinBaudRate, serialport.MaxBaudRate)
		}
		cfg.baudRate = rate

		return nil
	})
}

// WithHandshake replaces the probe and response bytes of the three handshake steps.
func WithHandshake(steps [StepCount]Step) Option {
	return optFunc(func(cfg *Config) error {
		cfg.handshake = steps

		return nil
	})
}

// WithHandshakeTimeout sets the reply timeout of each handshake step.
func WithHandshakeTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinHandshakeTimeout || d > MaxHandshakeTimeout {
			return fmt.Errorf("writer: handshake timeout %v out of range [%v, %v]",
				d, MinHandshakeTimeout, MaxHandshakeTimeout)
		}
		cfg.handshakeTimeout = d

		return nil
	})
}

// WithWriteTimeout sets the reply timeout of each write cycle.
func WithWriteTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinWriteTimeout || d > MaxWriteTimeout {
			return fmt.Errorf("writer: write timeout %v out of range [%v, %v]",
				d, MinWriteTimeout, MaxWriteTimeout)
		}
		cfg.writeTimeout = d

		return nil
	})
}

// WithEventQueueSize sets the buffer size of the default event channel.
func WithEventQueueSize(size int) Option {
	return optFunc(func(cfg *Config) error {
		if size < 1 || size > MaxEventQueueSize {
			return fmt.Errorf("writer: event queue size %d out of range [1, %d]", size, MaxEventQueueSize)
		}
		cfg.eventQueueSize = size

		return nil
	})
}

// WithEventTimeout sets how long the worker waits on a full event channel
// before dropping the event.
func WithEventTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("writer: event timeout must be positive")
		}
		cfg.eventTimeout = d

		return nil
	})
}

// WithCloseTimeout sets how long Stop waits for the worker to terminate.
func WithCloseTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("writer: close timeout must be positive")
		}
		cfg.closeTimeout = d

		return nil
	})
}

// WithPortOptions passes extra options to serialport.Open.
func WithPortOptions(opts ...serialport.Option) Option {
	return optFunc(func(cfg *Config) error {
		cfg.portOpts = append(cfg.portOpts, opts...)

		return nil
	})
}

// WithLogger sets the logger for the writer.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("writer: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
