package core

import "context"

type clientKey struct{}

// Client identifies who triggered a run. It is copied into run history.
type Client struct {
	IPAddress string
	UserAgent string
}

// ContextWithClient attaches the triggering client to ctx.
func ContextWithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFromContext returns the client attached to ctx, or the zero Client.
func ClientFromContext(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}
