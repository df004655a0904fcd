package auth

import "context"

// Identity is the authenticated caller resolved for one request.
type Identity struct {
	UserID  string
	Name    string
	Email   string
	IsAdmin bool
}

// CanAccess reports whether the identity may read or act on a record owned by ownerID.
func (i Identity) CanAccess(ownerID string) bool {
	return i.IsAdmin || (i.UserID != "" && i.UserID == ownerID)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.UserID != ""
}
