package transport

import "context"

// Issuer is the seam pkg/client depends on instead of *Transport directly,
// so a fake (internal/faketransport) can stand in for real HTTP during
// unit tests without touching the network.
type Issuer interface {
	Issue(ctx context.Context, req Request) (*Result, error)
}

var _ Issuer = (*Transport)(nil)
