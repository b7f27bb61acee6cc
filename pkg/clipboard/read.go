package clipboard

import (
	"context"

	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
)

// readText is one read attempt. Reads have no legacy tier: the async API is
// used when present, the OS process adapter when headless, and nothing else.
// A failing async read does not fall through.
func (c *Client) readText(ctx context.Context) (string, error) {
	var text string

	switch {
	case HasAsyncRead(c.env):
		err := c.attempt(ctx, strategy{
			mechanism: MechanismAsyncRead,
			run: func(ctx context.Context) error {
				api := c.env.AsyncAPI()
				if api == nil {
					return cliperr.Unsupported("clipboard API disappeared")
				}
				var err error
				text, err = api.ReadText(ctx)
				return err
			},
		})
		return text, err

	case hasProcess(c.env):
		err := c.attempt(ctx, strategy{
			mechanism: MechanismOSProcess,
			run: func(ctx context.Context) error {
				proc := c.env.Process()
				if proc == nil {
					return cliperr.Unsupported("process adapter disappeared")
				}
				var err error
				text, err = proc.Read(ctx)
				return err
			},
		})
		return text, err

	default:
		return "", cliperr.Unsupported("read not supported in this environment")
	}
}
