package clipboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
	"github.com/Veraticus/clipkit/pkg/logging"
)

// strategy is one tier of a chain. applies is evaluated right before the
// strategy would run, so a mechanism that disappears mid-call is skipped.
type strategy struct {
	mechanism Mechanism
	applies   func() bool
	run       func(ctx context.Context) error
}

// runChain tries each applicable strategy in order and returns on the first
// success. The last failure is what the caller observes. A chain where no
// strategy applies fails with UnsupportedEnvironment.
func (c *Client) runChain(ctx context.Context, op string, chain []strategy) error {
	log := logging.FromContext(ctx)

	var (
		lastErr  error
		lastMech Mechanism
		tried    int
	)
	for _, s := range chain {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.applies() {
			continue
		}
		if tried > 0 {
			c.metrics.RecordFallback(op, s.mechanism.String())
			log.Debug().
				Str("op", op).
				Str("from", lastMech.String()).
				Str("to", s.mechanism.String()).
				Err(lastErr).
				Msg("falling back to next clipboard mechanism")
		}
		tried++

		err := c.attempt(ctx, s)
		if err == nil {
			return nil
		}
		lastErr, lastMech = err, s.mechanism
	}

	switch {
	case tried == 0:
		return cliperr.Unsupported("no clipboard method available in this environment")
	case tried == 1 && lastMech == MechanismAsyncAPI:
		return cliperr.Mechanism(lastMech.String(), "clipboard API failed and no fallback available", lastErr)
	default:
		return lastErr
	}
}

// attempt runs one strategy and classifies a raw failure as a mechanism
// failure of that tier. Already classified errors pass through.
func (c *Client) attempt(ctx context.Context, s strategy) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = cliperr.Mechanism(s.mechanism.String(), fmt.Sprintf("panic: %v", r), nil)
		}
		c.metrics.RecordAttempt(s.mechanism.String(), err)
	}()

	err = s.run(ctx)
	if err == nil {
		return nil
	}
	var ce *cliperr.Error
	if errors.As(err, &ce) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return cliperr.Mechanism(s.mechanism.String(), "clipboard mechanism failed", err)
}

func (c *Client) asyncWrite(text func() string) strategy {
	return strategy{
		mechanism: MechanismAsyncAPI,
		applies:   func() bool { return HasAsyncWrite(c.env) },
		run: func(ctx context.Context) error {
			api := c.env.AsyncAPI()
			if api == nil {
				return cliperr.Unsupported("clipboard API disappeared")
			}
			return api.WriteText(ctx, text())
		},
	}
}

func (c *Client) offscreenCopy(content func() Content, container any) strategy {
	return strategy{
		mechanism: MechanismLegacyCopy,
		applies:   func() bool { return interactiveDocument(c.env) != nil },
		run: func(context.Context) error {
			doc := interactiveDocument(c.env)
			if doc == nil {
				return cliperr.Unsupported("document disappeared")
			}
			return legacyCopy(doc, container, content())
		},
	}
}

func (c *Client) processWrite(text func() string) strategy {
	return strategy{
		mechanism: MechanismOSProcess,
		applies:   func() bool { return hasProcess(c.env) },
		run: func(ctx context.Context) error {
			proc := c.env.Process()
			if proc == nil {
				return cliperr.Unsupported("process adapter disappeared")
			}
			_, err := proc.Write(ctx, text())
			return err
		},
	}
}

// selectionMu serializes legacy commands. A document has a single selection
// shared by every caller, so select-then-exec must not interleave.
var selectionMu sync.Mutex

// legacyCopy materializes content offscreen, selects it and issues "copy".
// The node is removed and the selection cleared on every exit path.
func legacyCopy(doc Document, container any, content Content) error {
	selectionMu.Lock()
	defer selectionMu.Unlock()

	scratch, err := doc.Materialize(container, content)
	if err != nil {
		return cliperr.Mechanism(MechanismLegacyCopy.String(), "failed to create offscreen node", err)
	}
	defer doc.ClearSelection()
	defer scratch.Remove()

	if err := scratch.SelectAll(); err != nil {
		return cliperr.Mechanism(MechanismLegacyCopy.String(), "failed to select offscreen node", err)
	}
	return execCommand(doc, "copy")
}

// execCommand issues a legacy command and turns a false result into a
// mechanism failure.
func execCommand(doc Document, action string) (err error) {
	mech := MechanismLegacyCopy
	if action == "cut" {
		mech = MechanismLegacyCut
	}
	defer func() {
		if r := recover(); r != nil {
			err = cliperr.Mechanism(mech.String(), fmt.Sprintf("%s command panicked: %v", action, r), nil)
		}
	}()

	ok, err := doc.ExecCommand(action)
	if err != nil {
		return cliperr.Mechanism(mech.String(), action+" command failed", err)
	}
	if !ok {
		return cliperr.Mechanism(mech.String(), action+" command was rejected", nil)
	}
	return nil
}

// copyText is one attempt of the text chain: async API, offscreen legacy
// copy, then the OS process adapter.
func (c *Client) copyText(ctx context.Context, text string, o callOptions) (string, error) {
	current := func() string { return text }
	err := c.runChain(ctx, "copy", []strategy{
		c.asyncWrite(current),
		c.offscreenCopy(func() Content { return Content{Text: text} }, o.container),
		c.processWrite(current),
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// copyFromElement harvests the element's text through the selection engine
// and then writes it like copyText, except that the legacy tier first tries
// the live selection before falling back to an offscreen node.
func (c *Client) copyFromElement(ctx context.Context, el Element, o callOptions) (string, error) {
	sel := c.selection()
	if sel == nil {
		return "", cliperr.Unsupported("no selection engine available")
	}
	text, err := sel.Select(el)
	if err != nil {
		return "", cliperr.Mechanism("selection", "failed to select element", err)
	}

	reselect := false
	current := func() string { return text }
	api := c.asyncWrite(current)
	asyncRun := api.run
	api.run = func(ctx context.Context) error {
		if err := asyncRun(ctx); err != nil {
			reselect = true
			return err
		}
		return nil
	}

	live := strategy{
		mechanism: MechanismLegacyCopy,
		applies:   func() bool { return interactiveDocument(c.env) != nil },
		run: func(context.Context) error {
			doc := interactiveDocument(c.env)
			if doc == nil {
				return cliperr.Unsupported("document disappeared")
			}
			selectionMu.Lock()
			defer selectionMu.Unlock()
			if reselect {
				// The API attempt may have moved focus; harvest again.
				if again, err := sel.Select(el); err == nil {
					text = again
				}
			}
			defer doc.ClearSelection()
			return execCommand(doc, "copy")
		},
	}

	err = c.runChain(ctx, "copy", []strategy{
		api,
		live,
		c.offscreenCopy(func() Content { return Content{Text: text} }, o.container),
		c.processWrite(current),
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// cut harvests the element, tries the legacy "cut" command on the live
// selection and otherwise emulates it as copy followed by clearing.
func (c *Client) cut(ctx context.Context, el Element, o callOptions) (string, error) {
	log := logging.FromContext(ctx)

	sel := c.selection()
	if sel == nil {
		return "", cliperr.Unsupported("no selection engine available")
	}
	text, err := sel.Select(el)
	if err != nil {
		return "", cliperr.Mechanism("selection", "failed to select element", err)
	}

	if doc := interactiveDocument(c.env); doc != nil && CommandSupported(c.env, "cut") {
		err := c.attempt(ctx, strategy{
			mechanism: MechanismLegacyCut,
			run: func(context.Context) error {
				selectionMu.Lock()
				defer selectionMu.Unlock()
				defer doc.ClearSelection()
				return execCommand(doc, "cut")
			},
		})
		if err == nil {
			return text, nil
		}
		c.metrics.RecordFallback("cut", "copy")
		log.Debug().Err(err).Msg("legacy cut failed, emulating with copy and clear")
	}

	if _, err := c.copyText(ctx, text, o); err != nil {
		return "", err
	}
	if err := clearElement(el); err != nil {
		return "", cliperr.Mechanism("element", "failed to clear element after copy", err)
	}
	return text, nil
}

func (c *Client) selection() SelectionEngine {
	if c.env == nil {
		return nil
	}
	return c.env.Selection()
}

// clearElement empties an editable element according to its kind.
func clearElement(el Element) error {
	switch el.Kind() {
	case KindInput, KindTextArea:
		return el.SetValue("")
	case KindRichEditable:
		return el.SetContent("")
	default:
		return nil
	}
}
