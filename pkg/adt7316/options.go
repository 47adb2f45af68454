package adt7316

import "github.com/rs/zerolog"

type options struct {
	logger zerolog.Logger
	name   string
	irq    int
}

func defaultOptions() options {
	return options{
		logger: zerolog.Nop(),
		irq:    -1,
	}
}

// Option configures a backend or a session at bring-up.
type Option func(*options)

// WithLogger sets the logger used for bring-up and register traffic.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithName attaches the identifying name handed over by the bus attachment, e.g. "adt7516".
// The name is not interpreted, Session.Name returns it as is.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithIRQ attaches the interrupt number of the device. Negative means none.
func WithIRQ(irq int) Option {
	return func(o *options) {
		o.irq = irq
	}
}

func resolveOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
