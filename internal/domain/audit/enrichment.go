package audit

import (
	"context"

	appctx "repopa/internal/core/context"
)

type createdByer interface {
	SetCreatedBy(string)
	SetUpdatedBy(string)
}

// EnrichCreatedBy stamps both author fields with the current user.
// A context without user is a no-op.
func EnrichCreatedBy(ctx context.Context, rec any) {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return
	}
	if e, ok := rec.(createdByer); ok {
		e.SetCreatedBy(userID)
		e.SetUpdatedBy(userID)
	}
}

// EnrichUpdatedBy stamps the last editor.
func EnrichUpdatedBy(ctx context.Context, rec any) {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return
	}
	if e, ok := rec.(interface{ SetUpdatedBy(string) }); ok {
		e.SetUpdatedBy(userID)
	}
}
