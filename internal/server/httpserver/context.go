package httpserver

import (
	"context"

	"github.com/dmitrijs2005/partsinventory/internal/server/models"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

func withIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns the identity resolved for the request, or nil
// for anonymous requests.
func IdentityFromContext(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(ctxKeyIdentity).(*models.Identity)
	return id
}
