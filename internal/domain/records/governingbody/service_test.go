package governingbody

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/core/tx"
	"repopa/internal/domain/records"
)

func TestService_NormalizesStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewService(records.Config[*Member]{
		Repo:      records.NewMemoryRepository[*Member](),
		TxManager: tx.Passthrough,
	})

	m := NewMember(id.New())
	m.BodyType = "Junta de Gobierno"
	m.MemberName = "  Laura Méndez "
	m.Position = "Presidenta"
	m.Status = ""
	require.NoError(t, svc.Create(ctx, m))
	assert.Equal(t, StatusActive, m.Status)
	assert.Equal(t, "Laura Méndez", m.MemberName)

	m.Status = "CONCLUIDO"
	require.NoError(t, svc.Update(ctx, m))

	stored, err := svc.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConcluded, stored.Status)

	stored.Status = "Suspendido"
	assert.True(t, apperror.IsValidation(svc.Update(ctx, stored)))
}
