// Package native binds the in-process clipboard tiers to the operating
// system clipboard through golang.design/x/clipboard. It needs cgo on Linux
// and macOS and an X11 or Wayland display on Linux; Available reports
// whether initialization succeeded.
package native

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gclip "golang.design/x/clipboard"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/clipkit/pkg/clipboard"
	"github.com/Veraticus/clipkit/pkg/logging"
)

// ErrUnsupportedItem is returned for items the OS clipboard cannot hold
// atomically.
var ErrUnsupportedItem = errors.New("native clipboard holds a single text/plain or image/png part")

type driver struct {
	init  func() error
	write func(gclip.Format, []byte) <-chan struct{}
	read  func(gclip.Format) []byte
	watch func(context.Context, gclip.Format) <-chan []byte
}

var systemDriver = driver{
	init:  gclip.Init,
	write: gclip.Write,
	read:  gclip.Read,
	watch: gclip.Watch,
}

// Backend is the OS clipboard. It implements clipboard.AsyncAPI,
// clipboard.ItemWriter, clipboard.PermissionQuerier and paste.Source.
type Backend struct {
	drv driver

	once    sync.Once
	initErr error
}

var (
	_ clipboard.AsyncAPI          = (*Backend)(nil)
	_ clipboard.ItemWriter        = (*Backend)(nil)
	_ clipboard.PermissionQuerier = (*Backend)(nil)
)

// New returns the system backend. Initialization is deferred to first use.
func New() *Backend {
	return &Backend{drv: systemDriver}
}

func (b *Backend) ready() error {
	b.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				b.initErr = fmt.Errorf("native clipboard init panicked: %v", r)
			}
		}()
		b.initErr = b.drv.init()
	})
	return b.initErr
}

// Available reports whether the OS clipboard could be initialized.
func (b *Backend) Available() bool {
	return b.ready() == nil
}

// WriteText places text on the clipboard. The underlying call cannot be
// cancelled; a write abandoned by a timeout may still land afterwards.
func (b *Backend) WriteText(_ context.Context, text string) error {
	return b.write(gclip.FmtText, []byte(text))
}

// ReadText returns the clipboard text.
func (b *Backend) ReadText(_ context.Context) (string, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	return string(b.drv.read(gclip.FmtText)), nil
}

// WriteItem writes a single-part text/plain or image/png item. Anything
// else fails without touching the clipboard.
func (b *Backend) WriteItem(_ context.Context, item clipboard.Item) error {
	if len(item.Parts) != 1 {
		return ErrUnsupportedItem
	}
	part := item.Parts[0]
	switch part.Type {
	case clipboard.MIMEText:
		return b.write(gclip.FmtText, part.Data)
	case clipboard.MIMEPNG:
		return b.write(gclip.FmtImage, part.Data)
	default:
		return fmt.Errorf("%w: got %s", ErrUnsupportedItem, part.Type)
	}
}

func (b *Backend) write(format gclip.Format, data []byte) error {
	if err := b.ready(); err != nil {
		return err
	}
	if b.drv.write(format, data) == nil {
		return errors.New("native clipboard rejected the write")
	}
	return nil
}

// Query reports granted once the backend is initialized. The OS clipboard
// has no permission model of its own.
func (b *Backend) Query(_ context.Context, _ clipboard.PermissionKind) (clipboard.PermissionState, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	return clipboard.PermissionGranted, nil
}

// Subscribe emits an item for every text or image change until ctx is done.
// Image changes carry an image/png part.
func (b *Backend) Subscribe(ctx context.Context, emit func(clipboard.Item)) error {
	if err := b.ready(); err != nil {
		return err
	}
	log := logging.FromContext(ctx)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range []struct {
		format gclip.Format
		mime   string
	}{
		{gclip.FmtText, clipboard.MIMEText},
		{gclip.FmtImage, clipboard.MIMEPNG},
	} {
		w := w
		g.Go(func() error {
			ch := b.drv.watch(gctx, w.format)
			for data := range ch {
				log.Debug().Str("type", w.mime).Int("size", len(data)).Msg("native clipboard changed")
				mu.Lock()
				emit(clipboard.Item{Parts: []clipboard.Part{{Type: w.mime, Data: data}}})
				mu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}
