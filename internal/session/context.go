package session

import "context"

type contextKey int

const controllerKey contextKey = iota

// WithController scopes a controller to ctx, so handlers can reach the
// session (and its in-progress flag) without global state.
func WithController(ctx context.Context, c *Controller) context.Context {
	return context.WithValue(ctx, controllerKey, c)
}

// FromContext returns the controller stored by WithController.
func FromContext(ctx context.Context) (*Controller, bool) {
	c, ok := ctx.Value(controllerKey).(*Controller)
	return c, ok && c != nil
}
