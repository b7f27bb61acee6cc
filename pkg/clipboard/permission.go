package clipboard

import (
	"context"

	"github.com/Veraticus/clipkit/pkg/clipboard/cliperr"
	"github.com/Veraticus/clipkit/pkg/logging"
)

// QueryPermission reports the advisory permission state for kind ("read" or
// "write"). Headless processes are always granted. In an interactive
// context the host permission subsystem is asked; when it is missing or
// fails the answer is prompt. The result never blocks an operation.
func (c *Client) QueryPermission(ctx context.Context, kind string) (PermissionStatus, error) {
	k, err := ParsePermissionKind(kind)
	if err != nil {
		return PermissionStatus{}, cliperr.WithOp(err, "permission")
	}

	switch ContextOf(c.env) {
	case ContextHeadless:
		return PermissionStatus{State: PermissionGranted}, nil
	case ContextInteractive:
		return PermissionStatus{State: c.queryHost(ctx, k)}, nil
	default:
		return PermissionStatus{State: PermissionPrompt}, nil
	}
}

func (c *Client) queryHost(ctx context.Context, kind PermissionKind) (state PermissionState) {
	q := c.env.Permissions()
	if q == nil {
		return PermissionPrompt
	}
	defer func() {
		if r := recover(); r != nil {
			state = PermissionPrompt
		}
	}()

	st, err := q.Query(ctx, kind)
	if err != nil {
		logging.FromContext(ctx).Debug().Err(err).Str("kind", string(kind)).Msg("permission query failed")
		return PermissionPrompt
	}
	switch st {
	case PermissionGranted, PermissionDenied, PermissionPrompt:
		return st
	default:
		return PermissionPrompt
	}
}
