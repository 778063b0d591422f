package auth

import "context"

type contextKey struct{}

// AuthContext carries the authenticated artist through a request.
type AuthContext struct {
	ArtistID   string
	StudioName string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// ArtistID returns the authenticated artist's id, or "" when the request
// is unauthenticated.
func ArtistID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.ArtistID
}
