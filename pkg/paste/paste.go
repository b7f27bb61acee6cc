// Package paste observes clipboard changes and delivers them to a callback
// as Observations.
//
// A Source produces raw clipboard items: native.Backend and
// clipboard.MemoryClipboard subscribe to change notifications, WatchSource
// polls a read function, and Merge fans several sources into one. Listen
// runs a source in the background until the returned Handle is destroyed.
package paste

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/clipkit/pkg/clipboard"
	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
	"github.com/Veraticus/clipkit/pkg/listener"
	"github.com/Veraticus/clipkit/pkg/logging"
)

// Source produces clipboard items. Subscribe blocks, calling emit for every
// change, until ctx is done or the source fails.
type Source interface {
	Subscribe(ctx context.Context, emit func(clipboard.Item)) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, emit func(clipboard.Item)) error

// Subscribe calls f.
func (f SourceFunc) Subscribe(ctx context.Context, emit func(clipboard.Item)) error {
	return f(ctx, emit)
}

// File is a non-text part of an observed item.
type File struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data []byte `json:"data"`
}

// Observation is one observed paste.
type Observation struct {
	Text  string `json:"text"`
	HTML  string `json:"html"`
	Files []File `json:"files,omitempty"`

	// OriginalEvent is the clipboard.Item the source emitted.
	OriginalEvent any `json:"-"`
	// Trigger is the value given with WithTrigger.
	Trigger any `json:"-"`
}

// Observe converts an item into an Observation. Parts other than plain
// text and HTML become files in item order.
func Observe(item clipboard.Item, trigger any) Observation {
	obs := Observation{OriginalEvent: item, Trigger: trigger}
	for _, p := range item.Parts {
		switch p.Type {
		case clipboard.MIMEText:
			obs.Text = string(p.Data)
		case clipboard.MIMEHTML:
			obs.HTML = string(p.Data)
		default:
			obs.Files = append(obs.Files, File{
				Name: fileName(len(obs.Files), p.Type),
				Type: p.Type,
				Data: p.Data,
			})
		}
	}
	return obs
}

func fileName(i int, typ string) string {
	ext := ".bin"
	if exts, err := mime.ExtensionsByType(typ); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	if i == 0 {
		return "clipboard" + ext
	}
	return fmt.Sprintf("clipboard-%d%s", i, ext)
}

// Option configures Listen.
type Option func(*listenOptions)

type listenOptions struct {
	trigger any
	metrics clipboard.MetricsCollector
}

// WithTrigger sets the Trigger of every observation.
func WithTrigger(trigger any) Option {
	return func(o *listenOptions) {
		o.trigger = trigger
	}
}

// WithMetrics records the number of active listeners.
func WithMetrics(m clipboard.MetricsCollector) Option {
	return func(o *listenOptions) {
		o.metrics = m
	}
}

// Handle controls a running listener.
type Handle = listener.Handle

// Active returns the number of listeners that have not stopped.
func Active() int {
	return listener.Active()
}

// Listen runs src in the background and calls fn with every observation
// until the handle is destroyed or ctx is done. fn is never called
// concurrently.
func Listen(ctx context.Context, src Source, fn func(Observation), opts ...Option) (*Handle, error) {
	if src == nil {
		return nil, cliperr.InvalidArgument("paste source is required")
	}
	if fn == nil {
		return nil, cliperr.InvalidArgument("paste handler is required")
	}

	o := listenOptions{metrics: &clipboard.NoOpMetricsCollector{}}
	for _, opt := range opts {
		opt(&o)
	}

	h := listener.Go(ctx, o.metrics, func(ctx context.Context) error {
		var mu sync.Mutex
		return src.Subscribe(ctx, func(item clipboard.Item) {
			mu.Lock()
			defer mu.Unlock()
			if ctx.Err() != nil {
				return
			}
			fn(Observe(item, o.trigger))
		})
	})
	return h, nil
}

// Merge returns a source emitting the items of every source. A failing
// source does not stop the others; Subscribe returns once all of them have
// returned, with the first error.
func Merge(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context, emit func(clipboard.Item)) error {
		log := logging.FromContext(ctx)

		var mu sync.Mutex
		var g errgroup.Group
		for i, src := range sources {
			if src == nil {
				continue
			}
			i, src := i, src
			g.Go(func() error {
				err := src.Subscribe(ctx, func(item clipboard.Item) {
					mu.Lock()
					defer mu.Unlock()
					emit(item)
				})
				if err != nil {
					log.Debug().Err(err).Int("source", i).Msg("paste source failed")
				}
				return err
			})
		}
		return g.Wait()
	})
}

// Describe returns a short summary of an observation for logs.
func Describe(obs Observation) string {
	var parts []string
	if obs.Text != "" {
		parts = append(parts, fmt.Sprintf("text(%d)", len(obs.Text)))
	}
	if obs.HTML != "" {
		parts = append(parts, fmt.Sprintf("html(%d)", len(obs.HTML)))
	}
	for _, f := range obs.Files {
		parts = append(parts, fmt.Sprintf("%s(%d)", f.Type, len(f.Data)))
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ",")
}
