package binding

import (
	"github.com/Veraticus/clipkit/pkg/clipboard"
)

// Resolver produces one configuration value for a trigger. ok reports
// whether a value is present at all.
type Resolver interface {
	Resolve(t Trigger) (value string, ok bool, err error)
}

// Static always resolves to the same value.
type Static string

// Resolve returns the static value.
func (s Static) Resolve(Trigger) (string, bool, error) {
	return string(s), true, nil
}

// Attribute resolves to the named attribute of the trigger.
type Attribute string

// Resolve reads the attribute.
func (a Attribute) Resolve(t Trigger) (string, bool, error) {
	if t == nil {
		return "", false, nil
	}
	v, ok := t.Attr(string(a))
	return v, ok, nil
}

// Func resolves through a function.
type Func func(t Trigger) (string, bool, error)

// Resolve calls f.
func (f Func) Resolve(t Trigger) (string, bool, error) {
	return f(t)
}

// Config is the immutable configuration of a binding. Build it with
// NewConfig.
type Config struct {
	action Resolver
	target Resolver
	text   Resolver
	rich   Resolver

	finder   Finder
	callOpts []clipboard.CallOption

	success func(Event)
	failure func(Event)
}

// Option configures NewConfig.
type Option func(*Config)

// WithAction replaces the action resolver.
func WithAction(r Resolver) Option {
	return func(c *Config) {
		if r != nil {
			c.action = r
		}
	}
}

// WithTarget replaces the target selector resolver.
func WithTarget(r Resolver) Option {
	return func(c *Config) {
		if r != nil {
			c.target = r
		}
	}
}

// WithText replaces the literal text resolver.
func WithText(r Resolver) Option {
	return func(c *Config) {
		if r != nil {
			c.text = r
		}
	}
}

// WithRich replaces the rich flag resolver.
func WithRich(r Resolver) Option {
	return func(c *Config) {
		if r != nil {
			c.rich = r
		}
	}
}

// WithFinder sets how target selectors become elements.
func WithFinder(f Finder) Option {
	return func(c *Config) {
		c.finder = f
	}
}

// WithCallOptions passes options to every client call.
func WithCallOptions(opts ...clipboard.CallOption) Option {
	return func(c *Config) {
		c.callOpts = append(c.callOpts, opts...)
	}
}

// OnSuccess sets the success callback.
func OnSuccess(fn func(Event)) Option {
	return func(c *Config) {
		c.success = fn
	}
}

// OnFailure sets the failure callback.
func OnFailure(fn func(Event)) Option {
	return func(c *Config) {
		c.failure = fn
	}
}

// NewConfig returns a configuration reading the data-clipboard-*
// attributes, modified by opts.
func NewConfig(opts ...Option) Config {
	var c Config
	for _, opt := range opts {
		opt(&c)
	}
	c.callOpts = append([]clipboard.CallOption(nil), c.callOpts...)
	return c.withDefaults()
}

// withDefaults fills unset resolvers, so the zero Config reads the
// data-clipboard-* attributes.
func (c Config) withDefaults() Config {
	if c.action == nil {
		c.action = Attribute(AttrAction)
	}
	if c.target == nil {
		c.target = Attribute(AttrTarget)
	}
	if c.text == nil {
		c.text = Attribute(AttrText)
	}
	if c.rich == nil {
		c.rich = Attribute(AttrRich)
	}
	return c
}

// With returns a copy of c with opts applied. c is unchanged.
func (c Config) With(opts ...Option) Config {
	next := c
	next.callOpts = append([]clipboard.CallOption(nil), c.callOpts...)
	for _, opt := range opts {
		opt(&next)
	}
	return next
}
