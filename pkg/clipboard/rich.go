package clipboard

import (
	"context"

	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
)

// copyRichText writes text/plain and text/html as one item. Without the item
// API it falls back to an offscreen markup node and the legacy copy
// command. There is no OS process tier for markup.
func (c *Client) copyRichText(ctx context.Context, rt RichText, o callOptions) error {
	item := Item{Parts: []Part{
		{Type: MIMEText, Data: []byte(rt.Text)},
		{Type: MIMEHTML, Data: []byte(rt.HTML)},
	}}

	return c.runChain(ctx, "copy-rich", []strategy{
		c.itemWrite(item),
		c.offscreenCopy(func() Content { return Content{Text: rt.Text, HTML: rt.HTML} }, o.container),
	})
}

func (c *Client) itemWrite(item Item) strategy {
	return strategy{
		mechanism: MechanismItemAPI,
		applies:   func() bool { return HasItemWrite(c.env) },
		run: func(ctx context.Context) error {
			w := c.env.ItemWriter()
			if w == nil {
				return cliperr.Unsupported("item API disappeared")
			}
			return w.WriteItem(ctx, item)
		},
	}
}
