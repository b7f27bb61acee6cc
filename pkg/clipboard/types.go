package clipboard

import "github.com/Veraticus/clipkit/pkg/clipboard/cliperr"

// MIME types used for typed clipboard items.
const (
	MIMEText = "text/plain"
	MIMEHTML = "text/html"
	MIMEPNG  = "image/png"
)

// Part is one MIME-typed payload of an Item.
type Part struct {
	Type string
	Data []byte
}

// Item is a single clipboard payload bundling one or more typed parts. It is
// written atomically: either every part lands or none does.
type Item struct {
	Parts []Part
}

// Types lists the MIME types carried by the item.
func (i Item) Types() []string {
	out := make([]string, 0, len(i.Parts))
	for _, p := range i.Parts {
		out = append(out, p.Type)
	}
	return out
}

// Get returns the part with the given type.
func (i Item) Get(mime string) ([]byte, bool) {
	for _, p := range i.Parts {
		if p.Type == mime {
			return p.Data, true
		}
	}
	return nil, false
}

// RichText is a plain-text and HTML rendition of the same content.
type RichText struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// Blob is raw binary data with a MIME type.
type Blob struct {
	Type string
	Data []byte
}

// ImageElement is an image-like object identified by its source URL.
type ImageElement interface {
	Src() string
}

// PermissionKind names a clipboard permission.
type PermissionKind string

const (
	PermissionRead  PermissionKind = "read"
	PermissionWrite PermissionKind = "write"
)

// ParsePermissionKind validates a permission name.
func ParsePermissionKind(s string) (PermissionKind, error) {
	switch PermissionKind(s) {
	case PermissionRead, PermissionWrite:
		return PermissionKind(s), nil
	default:
		return "", cliperr.InvalidArgument("permission kind must be %q or %q, got %q",
			PermissionRead, PermissionWrite, s)
	}
}

// PermissionState is the advisory answer of a permission query.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

// PermissionStatus is returned by Client.QueryPermission.
type PermissionStatus struct {
	State PermissionState `json:"state"`
}
