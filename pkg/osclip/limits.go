package osclip

import "errors"

// MaxClipboardSize caps how much output a read command may produce (10MB).
const MaxClipboardSize = 10 * 1024 * 1024

// ErrContentTooLarge is wrapped when a read produced more than the cap.
var ErrContentTooLarge = errors.New("content exceeds maximum size")

// cappedBuffer accumulates up to limit bytes and silently drains the rest so
// a chatty process never blocks on a full pipe.
type cappedBuffer struct {
	buf      []byte
	limit    int
	overflow bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	room := c.limit - len(c.buf)
	if room <= 0 {
		if len(p) > 0 {
			c.overflow = true
		}
		return len(p), nil
	}
	if len(p) > room {
		c.buf = append(c.buf, p[:room]...)
		c.overflow = true
		return len(p), nil
	}
	c.buf = append(c.buf, p...)
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	return string(c.buf)
}
