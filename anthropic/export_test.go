package anthropic

import (
	"context"
	"io"
)

// ConvertRequest exports convertRequest for testing.
var ConvertRequest = convertRequest

// Relay exports relay for testing.
func Relay(ctx context.Context, r io.Reader, sessionID string, w io.Writer) (string, error) {
	return relay(ctx, r, sessionID, w, nil)
}
