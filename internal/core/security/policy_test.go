package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/apperror"
	appctx "repopa/internal/core/context"
)

func TestDefaultPolicy(t *testing.T) {
	p := MustDefault()

	tests := []struct {
		role     Role
		action   Action
		resource string
		want     bool
	}{
		{RoleReader, ActionRead, ResourceEntes, true},
		{RoleReader, ActionCreate, ResourceEntes, false},
		{RoleReader, ActionRead, ResourceUsers, false},
		{RoleEditor, ActionCreate, ResourceEntes, true},
		{RoleEditor, ActionUpdate, ResourceRecords, true},
		{RoleEditor, ActionDelete, ResourceRecords, false},
		{RoleEditor, ActionCreate, ResourceUsers, false},
		{RoleAdmin, ActionDelete, ResourceEntes, true},
		{RoleAdmin, ActionCreate, ResourceUsers, true},
		{Role("Invitado"), ActionRead, ResourceEntes, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.action)+"/"+tt.resource, func(t *testing.T) {
			got, err := p.Allowed(tt.role, tt.action, tt.resource)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPolicy_RejectsBadRules(t *testing.T) {
	_, err := NewPolicy([]Rule{{Name: "syntax", Expr: `role ==`}})
	assert.Error(t, err)

	_, err = NewPolicy([]Rule{{Name: "not bool", Expr: `role`}})
	assert.Error(t, err)
}

func TestPolicy_Authorize(t *testing.T) {
	p := MustDefault()

	err := p.Authorize(context.Background(), ActionRead, ResourceEntes)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u1", Role: string(RoleReader)})
	assert.NoError(t, p.Authorize(ctx, ActionRead, ResourceEntes))

	err = p.Authorize(ctx, ActionDelete, ResourceEntes)
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" editor ")
	assert.True(t, ok)
	assert.Equal(t, RoleEditor, r)

	_, ok = ParseRole("root")
	assert.False(t, ok)
}
