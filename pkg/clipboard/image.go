package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
)

// MaxImageSize caps fetched and file-backed image payloads.
const MaxImageSize = 50 * 1024 * 1024

// Fetcher retrieves a remote image.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Blob, error)
}

// HTTPFetcher fetches images over HTTP(S).
type HTTPFetcher struct {
	client *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher wraps client; nil selects a client with a 30s timeout.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

// Fetch downloads rawURL. Transport failures and non-2xx responses are
// NetworkFetchFailure errors.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Blob{}, cliperr.NetworkFetch("invalid image request", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Blob{}, cliperr.NetworkFetch("failed to fetch image", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Blob{}, cliperr.NetworkFetch(fmt.Sprintf("failed to fetch image: HTTP %d", resp.StatusCode), nil)
	}

	data, err := readCapped(resp.Body)
	if err != nil {
		return Blob{}, cliperr.NetworkFetch("failed to read image body", err)
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return Blob{Type: mime, Data: data}, nil
}

func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}
	return data, nil
}

// toBlob normalizes an image source. Remote sources are fetched once here,
// outside the retry loop.
func (c *Client) toBlob(ctx context.Context, src any, mime string) (Blob, error) {
	switch s := src.(type) {
	case nil:
		return Blob{}, cliperr.InvalidArgument("image source must not be nil")
	case Blob:
		return typed(s, mime), nil
	case *Blob:
		if s == nil {
			return Blob{}, cliperr.InvalidArgument("image source must not be nil")
		}
		return typed(*s, mime), nil
	case []byte:
		return typed(Blob{Data: s}, mime), nil
	case *os.File:
		data, err := readCapped(s)
		if err != nil {
			return Blob{}, cliperr.Mechanism("file", "failed to read image file", err)
		}
		return typed(Blob{Data: data}, mime), nil
	case image.Image:
		var buf bytes.Buffer
		if err := png.Encode(&buf, s); err != nil {
			return Blob{}, cliperr.InvalidArgument("failed to encode image: %v", err)
		}
		return Blob{Type: MIMEPNG, Data: buf.Bytes()}, nil
	case ImageElement:
		return c.fetch(ctx, s.Src(), mime)
	case string:
		return c.fetch(ctx, s, mime)
	default:
		return Blob{}, cliperr.InvalidArgument("unsupported image source %T", src)
	}
}

func (c *Client) fetch(ctx context.Context, rawURL, mime string) (Blob, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Blob{}, cliperr.InvalidArgument("image source %q is not an http(s) URL", rawURL)
	}
	blob, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Blob{}, err
	}
	if mime != "" {
		blob.Type = mime
	}
	return blob, nil
}

// typed fills in a missing MIME type from the hint or by sniffing the data.
func typed(b Blob, hint string) Blob {
	if b.Type != "" {
		return b
	}
	if hint != "" {
		b.Type = hint
		return b
	}
	b.Type = http.DetectContentType(b.Data)
	return b
}

// writeBlob writes a normalized blob through the item API. Images have no
// legacy or process fallback.
func (c *Client) writeBlob(ctx context.Context, blob Blob) error {
	if !HasItemWrite(c.env) {
		return cliperr.Unsupported("image copy requires the clipboard item API")
	}
	return c.runChain(ctx, "copy-image", []strategy{
		c.itemWrite(Item{Parts: []Part{{Type: blob.Type, Data: blob.Data}}}),
	})
}
