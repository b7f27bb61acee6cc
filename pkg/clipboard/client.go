package clipboard

import (
	"context"
	"errors"
	"time"

	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
	"github.com/Veraticus/clipkit/pkg/logging"
	"github.com/Veraticus/clipkit/pkg/retry"
)

// Client is the unified entry point. It selects a strategy chain per call
// and runs it under the retry controller. A Client holds configuration only;
// calls are independent and may run concurrently.
type Client struct {
	env        Environment
	retry      retry.Config
	controller *retry.Controller
	fetcher    Fetcher
	metrics    MetricsCollector
	container  any
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetryConfig sets the default retry configuration for every call.
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithController replaces the retry controller, mostly for tests.
func WithController(ctrl *retry.Controller) ClientOption {
	return func(c *Client) {
		c.controller = ctrl
	}
}

// WithFetcher replaces the fetcher used for image URLs.
func WithFetcher(f Fetcher) ClientOption {
	return func(c *Client) {
		c.fetcher = f
	}
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m MetricsCollector) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithDefaultContainer sets the container used for offscreen nodes when a
// call does not name one.
func WithDefaultContainer(container any) ClientOption {
	return func(c *Client) {
		c.container = container
	}
}

// NewClient creates a client over env.
func NewClient(env Environment, opts ...ClientOption) *Client {
	c := &Client{
		env:        env,
		retry:      retry.DefaultConfig(),
		controller: &retry.Controller{},
		fetcher:    NewHTTPFetcher(nil),
		metrics:    &NoOpMetricsCollector{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Environment returns the environment the client probes.
func (c *Client) Environment() Environment {
	return c.env
}

// Capabilities probes the environment now.
func (c *Client) Capabilities() Capabilities {
	return Detect(c.env)
}

// Metrics returns the attached collector.
func (c *Client) Metrics() MetricsCollector {
	return c.metrics
}

// CallOption adjusts a single call.
type CallOption func(*callOptions)

type callOptions struct {
	retryRaw  any
	hasRetry  bool
	retry     retry.Config
	container any
	mime      string
}

// WithRetry overrides the retry configuration for one call. It accepts a
// retry.Config, a *retry.Config, or a bare int as shorthand for Retries.
func WithRetry(v any) CallOption {
	return func(o *callOptions) {
		o.retryRaw = v
		o.hasRetry = true
	}
}

// WithContainer names the container offscreen nodes are appended to.
func WithContainer(container any) CallOption {
	return func(o *callOptions) {
		o.container = container
	}
}

// WithMIME sets the MIME type hint for image payloads.
func WithMIME(mime string) CallOption {
	return func(o *callOptions) {
		o.mime = mime
	}
}

func (c *Client) options(opts []CallOption) (callOptions, error) {
	o := callOptions{retry: c.retry, container: c.container}
	for _, opt := range opts {
		opt(&o)
	}
	if o.hasRetry {
		cfg, err := retry.Parse(o.retryRaw)
		if err != nil {
			return o, err
		}
		o.retry = cfg
	}
	return o, nil
}

// execute runs fn under the controller and records the outcome.
func execute[T any](ctx context.Context, c *Client, op string, o callOptions, fn retry.Operation[T]) (T, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	v, err := retry.Run(ctx, c.controller, o.retry, fn)

	c.metrics.RecordOperation(op, time.Since(start), err)
	if err != nil {
		err = cliperr.WithOp(err, op)
		c.metrics.RecordError(op, err)
		if errors.Is(err, ErrTimeoutExceeded) {
			c.metrics.RecordTimeout(op)
		}
		log.Debug().Err(err).Str("op", op).Msg("clipboard operation failed")
		var zero T
		return zero, err
	}

	log.Debug().Str("op", op).Dur("elapsed", time.Since(start)).Msg("clipboard operation succeeded")
	return v, nil
}

// Copy writes text to the clipboard. text must be a string.
func (c *Client) Copy(ctx context.Context, text any, opts ...CallOption) (string, error) {
	s, ok := text.(string)
	if !ok {
		return "", cliperr.WithOp(cliperr.InvalidArgument("text must be a string, got %T", text), "copy")
	}
	o, err := c.options(opts)
	if err != nil {
		return "", cliperr.WithOp(err, "copy")
	}

	c.metrics.RecordSize("copy", len(s))
	return execute(ctx, c, "copy", o, func(ctx context.Context) (string, error) {
		return c.copyText(ctx, s, o)
	})
}

// CopyFromElement copies the text of a live element.
func (c *Client) CopyFromElement(ctx context.Context, el Element, opts ...CallOption) (string, error) {
	if el == nil {
		return "", cliperr.WithOp(cliperr.InvalidArgument("element must not be nil"), "copy")
	}
	o, err := c.options(opts)
	if err != nil {
		return "", cliperr.WithOp(err, "copy")
	}

	return execute(ctx, c, "copy", o, func(ctx context.Context) (string, error) {
		return c.copyFromElement(ctx, el, o)
	})
}

// Cut removes the text of an editable element and places it on the clipboard.
func (c *Client) Cut(ctx context.Context, el Element, opts ...CallOption) (string, error) {
	if el == nil {
		return "", cliperr.WithOp(cliperr.InvalidArgument("element must not be nil"), "cut")
	}
	if el.ReadOnly() || el.Disabled() {
		return "", cliperr.WithOp(cliperr.Validation("cannot cut from a read-only or disabled element"), "cut")
	}
	o, err := c.options(opts)
	if err != nil {
		return "", cliperr.WithOp(err, "cut")
	}

	return execute(ctx, c, "cut", o, func(ctx context.Context) (string, error) {
		return c.cut(ctx, el, o)
	})
}

// Read returns the clipboard text.
func (c *Client) Read(ctx context.Context, opts ...CallOption) (string, error) {
	o, err := c.options(opts)
	if err != nil {
		return "", cliperr.WithOp(err, "read")
	}

	text, err := execute(ctx, c, "read", o, c.readText)
	if err == nil {
		c.metrics.RecordSize("read", len(text))
	}
	return text, err
}

// CopyImage writes an image to the clipboard. src may be a Blob, *Blob,
// []byte, *os.File, image.Image, ImageElement or an http(s) URL string.
func (c *Client) CopyImage(ctx context.Context, src any, opts ...CallOption) (Blob, error) {
	o, err := c.options(opts)
	if err != nil {
		return Blob{}, cliperr.WithOp(err, "copy-image")
	}
	// Images have no fallback, so a missing item API is permanent.
	if !HasItemWrite(c.env) {
		return Blob{}, cliperr.WithOp(cliperr.Unsupported("image copy requires the clipboard item API"), "copy-image")
	}

	blob, err := c.toBlob(ctx, src, o.mime)
	if err != nil {
		return Blob{}, cliperr.WithOp(err, "copy-image")
	}

	c.metrics.RecordSize("copy-image", len(blob.Data))
	return execute(ctx, c, "copy-image", o, func(ctx context.Context) (Blob, error) {
		if err := c.writeBlob(ctx, blob); err != nil {
			return Blob{}, err
		}
		return blob, nil
	})
}

// CopyRich writes a plain-text and HTML pair. rt must be a RichText or
// *RichText.
func (c *Client) CopyRich(ctx context.Context, rt any, opts ...CallOption) (RichText, error) {
	var r RichText
	switch v := rt.(type) {
	case RichText:
		r = v
	case *RichText:
		if v == nil {
			return RichText{}, cliperr.WithOp(cliperr.InvalidArgument("rich text must not be nil"), "copy-rich")
		}
		r = *v
	default:
		return RichText{}, cliperr.WithOp(cliperr.InvalidArgument("rich text must be a RichText, got %T", rt), "copy-rich")
	}
	o, err := c.options(opts)
	if err != nil {
		return RichText{}, cliperr.WithOp(err, "copy-rich")
	}

	c.metrics.RecordSize("copy-rich", len(r.Text)+len(r.HTML))
	return execute(ctx, c, "copy-rich", o, func(ctx context.Context) (RichText, error) {
		if err := c.copyRichText(ctx, r, o); err != nil {
			return RichText{}, err
		}
		return r, nil
	})
}
