// Package binding turns declarative triggers into clipboard operations.
//
// A trigger carries data-clipboard-* attributes:
//
//	data-clipboard-action  "copy" (default) or "cut"
//	data-clipboard-target  selector of the element to copy or cut
//	data-clipboard-text    literal text to copy
//	data-clipboard-rich    present to copy the literal text as markup
//
// Bind subscribes to a TriggerSource and, for every trigger, resolves the
// action, target and text through the Config's resolvers, calls the
// clipboard.Client, and reports the outcome to the Success or Failure
// callback.
package binding

import (
	"context"
	"strings"

	"github.com/Veraticus/clipkit/pkg/clipboard"
	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
	"github.com/Veraticus/clipkit/pkg/listener"
	"github.com/Veraticus/clipkit/pkg/logging"
	"github.com/Veraticus/clipkit/pkg/terminal"
)

// Attribute names.
const (
	Prefix     = "data-clipboard-"
	AttrAction = Prefix + "action"
	AttrTarget = Prefix + "target"
	AttrText   = Prefix + "text"
	AttrRich   = Prefix + "rich"
)

// Actions.
const (
	ActionCopy = "copy"
	ActionCut  = "cut"
)

// Trigger is the element a user activated.
type Trigger interface {
	Attr(name string) (string, bool)
}

// Attrs is a Trigger backed by a map.
type Attrs map[string]string

// Attr returns the named attribute.
func (a Attrs) Attr(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

// TriggerSource delivers triggers. Subscribe blocks until ctx is done or the
// source fails.
type TriggerSource interface {
	Subscribe(ctx context.Context, emit func(Trigger)) error
}

// ChanSource delivers the triggers received on a channel. Subscribe returns
// nil when the channel is closed.
type ChanSource <-chan Trigger

// Subscribe reads the channel until it is closed or ctx is done.
func (c ChanSource) Subscribe(ctx context.Context, emit func(Trigger)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case t, ok := <-c:
			if !ok {
				return nil
			}
			emit(t)
		}
	}
}

// Finder resolves a target selector to an element.
type Finder interface {
	Find(selector string) (clipboard.Element, error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func(selector string) (clipboard.Element, error)

// Find calls f.
func (f FinderFunc) Find(selector string) (clipboard.Element, error) {
	return f(selector)
}

// Event reports the outcome of one trigger.
type Event struct {
	Action  string
	Text    string
	Trigger Trigger
	Target  clipboard.Element
	Err     error
}

// Binding is a running subscription.
type Binding struct {
	handle *listener.Handle
}

// Destroy stops the binding. Further calls do nothing.
func (b *Binding) Destroy() {
	b.handle.Destroy()
}

// Done is closed once the trigger source has returned.
func (b *Binding) Done() <-chan struct{} {
	return b.handle.Done()
}

// Err returns the error the trigger source failed with, if any.
func (b *Binding) Err() error {
	return b.handle.Err()
}

// Bind starts dispatching triggers from src to client.
func Bind(ctx context.Context, src TriggerSource, client *clipboard.Client, cfg Config) (*Binding, error) {
	if src == nil {
		return nil, cliperr.InvalidArgument("trigger source is required")
	}
	if client == nil {
		return nil, cliperr.InvalidArgument("clipboard client is required")
	}

	d := &dispatcher{client: client, cfg: cfg.withDefaults()}
	h := listener.Go(ctx, client.Metrics(), func(ctx context.Context) error {
		ctx = logging.WithComponent(ctx, "binding")
		return src.Subscribe(ctx, func(t Trigger) {
			d.dispatch(ctx, t)
		})
	})
	return &Binding{handle: h}, nil
}

type dispatcher struct {
	client *clipboard.Client
	cfg    Config
}

func (d *dispatcher) dispatch(ctx context.Context, t Trigger) {
	log := logging.FromContext(ctx)

	ev, err := d.run(ctx, t)
	ev.Trigger = t
	if err != nil {
		ev.Err = err
		log.Debug().Err(err).Str("action", ev.Action).Msg("clipboard trigger failed")
		if d.cfg.failure != nil {
			d.cfg.failure(ev)
		}
		return
	}
	log.Debug().Str("action", ev.Action).Int("size", len(ev.Text)).Msg("clipboard trigger handled")
	if d.cfg.success != nil {
		d.cfg.success(ev)
	}
}

func (d *dispatcher) run(ctx context.Context, t Trigger) (Event, error) {
	var ev Event

	action, ok, err := d.cfg.action.Resolve(t)
	if err != nil {
		return ev, err
	}
	action = strings.ToLower(strings.TrimSpace(action))
	if !ok || action == "" {
		action = ActionCopy
	}
	ev.Action = action
	if action != ActionCopy && action != ActionCut {
		return ev, cliperr.InvalidArgument("action must be %q or %q, got %q", ActionCopy, ActionCut, action)
	}

	target, err := d.target(t)
	if err != nil {
		return ev, err
	}
	ev.Target = target

	if action == ActionCut {
		if target == nil {
			return ev, cliperr.InvalidArgument("cut requires a target")
		}
		ev.Text, err = d.client.Cut(ctx, target, d.cfg.callOpts...)
		return ev, err
	}

	text, hasText, err := d.cfg.text.Resolve(t)
	if err != nil {
		return ev, err
	}
	switch {
	case hasText:
		ev.Text, err = d.copyText(ctx, t, text)
	case target != nil:
		ev.Text, err = d.client.CopyFromElement(ctx, target, d.cfg.callOpts...)
	default:
		err = cliperr.InvalidArgument("copy requires a target or text")
	}
	return ev, err
}

func (d *dispatcher) target(t Trigger) (clipboard.Element, error) {
	selector, ok, err := d.cfg.target.Resolve(t)
	if err != nil || !ok || selector == "" {
		return nil, err
	}
	if d.cfg.finder == nil {
		return nil, cliperr.InvalidArgument("no finder configured for target %q", selector)
	}
	el, err := d.cfg.finder.Find(selector)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, cliperr.InvalidArgument("target %q not found", selector)
	}
	return el, nil
}

func (d *dispatcher) copyText(ctx context.Context, t Trigger, text string) (string, error) {
	rich, err := flag(d.cfg.rich, t)
	if err != nil {
		return "", err
	}
	if !rich {
		return d.client.Copy(ctx, text, d.cfg.callOpts...)
	}

	plain, err := terminal.RenderText(text)
	if err != nil {
		return "", cliperr.InvalidArgument("rich text is not valid markup: %v", err)
	}
	rt, err := d.client.CopyRich(ctx, clipboard.RichText{Text: plain, HTML: text}, d.cfg.callOpts...)
	return rt.Text, err
}

// flag treats a present attribute as true unless its value is "false" or
// "0".
func flag(r Resolver, t Trigger) (bool, error) {
	v, ok, err := r.Resolve(t)
	if err != nil || !ok {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "0":
		return false, nil
	default:
		return true, nil
	}
}
