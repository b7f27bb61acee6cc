package clipboard

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/clipkit/pkg/retry"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCopyImage_Sources(t *testing.T) {
	data := pngBytes(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logo.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/untyped":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	tests := []struct {
		name     string
		src      func(t *testing.T) any
		opts     []CallOption
		wantType string
	}{
		{"blob", func(*testing.T) any { return Blob{Type: MIMEPNG, Data: data} }, nil, MIMEPNG},
		{"blob pointer", func(*testing.T) any { return &Blob{Type: "image/gif", Data: data} }, nil, "image/gif"},
		{"bytes sniffed", func(*testing.T) any { return data }, nil, MIMEPNG},
		{"bytes with hint", func(*testing.T) any { return data }, []CallOption{WithMIME("image/webp")}, "image/webp"},
		{"file", func(t *testing.T) any {
			f, err := os.Open(path)
			require.NoError(t, err)
			t.Cleanup(func() { _ = f.Close() })
			return f
		}, nil, MIMEPNG},
		{"raster", func(*testing.T) any { return image.NewGray(image.Rect(0, 0, 1, 1)) }, nil, MIMEPNG},
		{"url", func(*testing.T) any { return srv.URL + "/logo.png" }, nil, MIMEPNG},
		{"url sniffed", func(*testing.T) any { return srv.URL + "/untyped" }, nil, MIMEPNG},
		{"image element", func(*testing.T) any { return fakeImage{src: srv.URL + "/logo.png"} }, nil, MIMEPNG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := NewMemoryClipboard()
			c := NewClient(&StaticEnvironment{Ctx: ContextInteractive, Items: mem})

			blob, err := c.CopyImage(context.Background(), tt.src(t), tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, blob.Type)
			assert.NotEmpty(t, blob.Data)

			item := mem.Item()
			assert.Equal(t, []string{tt.wantType}, item.Types())
			got, ok := item.Get(tt.wantType)
			require.True(t, ok)
			assert.Equal(t, blob.Data, got)
		})
	}
}

func TestCopyImage_Failures(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	mem := NewMemoryClipboard()
	c := NewClient(&StaticEnvironment{Ctx: ContextInteractive, Items: mem})
	ctx := context.Background()

	_, err := c.CopyImage(ctx, srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrNetworkFetch)

	_, err = c.CopyImage(ctx, "not a url")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.CopyImage(ctx, 3.14)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.CopyImage(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 0, mem.Writes())

	noItems := NewClient(&StaticEnvironment{Ctx: ContextInteractive, API: NewMemoryClipboard(), Doc: newFakeDocument()})
	_, err = noItems.CopyImage(ctx, Blob{Type: MIMEPNG, Data: []byte{1}}, WithRetry(0))
	assert.ErrorIs(t, err, ErrUnsupportedEnvironment)
}

func TestCopyImage_MissingItemAPIIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	var waits atomic.Int32
	ctrl := &retry.Controller{After: func(time.Duration) <-chan time.Time {
		waits.Add(1)
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}}
	c := NewClient(&StaticEnvironment{Ctx: ContextInteractive, API: NewMemoryClipboard(), Doc: newFakeDocument()}, WithController(ctrl))

	got, err := c.CopyImage(context.Background(), srv.URL, WithRetry(3))
	assert.ErrorIs(t, err, ErrUnsupportedEnvironment)
	assert.Equal(t, Blob{}, got)
	assert.Zero(t, waits.Load())
	assert.Zero(t, hits.Load())
}

func TestCopyImage_FailureReturnsZeroBlob(t *testing.T) {
	mem := NewMemoryClipboard()
	mem.FailWrites(-1, errDenied)
	c := NewClient(&StaticEnvironment{Ctx: ContextInteractive, Items: mem})

	got, err := c.CopyImage(context.Background(), Blob{Type: MIMEPNG, Data: pngBytes(t)}, WithRetry(0))
	require.Error(t, err)
	assert.Equal(t, Blob{}, got)
}

func TestCopyImage_FetchesOnceAcrossRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	mem := NewMemoryClipboard()
	mem.FailWrites(2, errDenied)
	c := NewClient(&StaticEnvironment{Ctx: ContextInteractive, Items: mem}, WithController(instant()))

	_, err := c.CopyImage(context.Background(), srv.URL, WithRetry(2))
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 3, mem.Writes())
}

func TestCopyRich(t *testing.T) {
	rt := RichText{Text: "bold", HTML: "<b>bold</b>"}

	t.Run("item API writes both parts atomically", func(t *testing.T) {
		mem := NewMemoryClipboard()
		doc := newFakeDocument()
		c := NewClient(&StaticEnvironment{Ctx: ContextInteractive, Items: mem, Doc: doc})

		got, err := c.CopyRich(context.Background(), rt)
		require.NoError(t, err)
		assert.Equal(t, rt, got)

		item := mem.Item()
		assert.Equal(t, []string{MIMEText, MIMEHTML}, item.Types())
		html, _ := item.Get(MIMEHTML)
		assert.Equal(t, "<b>bold</b>", string(html))
		assert.Empty(t, doc.contents)
	})

	t.Run("falls back to markup node", func(t *testing.T) {
		mem := NewMemoryClipboard()
		mem.FailWrites(-1, errDenied)
		doc := newFakeDocument()
		c := NewClient(&StaticEnvironment{Ctx: ContextInteractive, Items: mem, Doc: doc})

		got, err := c.CopyRich(context.Background(), &rt, WithRetry(0))
		require.NoError(t, err)
		assert.Equal(t, rt, got)
		require.Len(t, doc.contents, 1)
		assert.Equal(t, "<b>bold</b>", doc.contents[0].HTML)
		assert.Equal(t, 1, doc.removed)
	})

	t.Run("failure returns zero value", func(t *testing.T) {
		mem := NewMemoryClipboard()
		mem.FailWrites(-1, errDenied)
		c := NewClient(&StaticEnvironment{Ctx: ContextInteractive, Items: mem})

		got, err := c.CopyRich(context.Background(), rt, WithRetry(0))
		require.Error(t, err)
		assert.Equal(t, RichText{}, got)
	})

	t.Run("argument shape", func(t *testing.T) {
		c := NewClient(&StaticEnvironment{Ctx: ContextInteractive, Doc: newFakeDocument()})
		_, err := c.CopyRich(context.Background(), "<b>x</b>")
		assert.ErrorIs(t, err, ErrInvalidArgument)

		var nilRT *RichText
		_, err = c.CopyRich(context.Background(), nilRT)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}
