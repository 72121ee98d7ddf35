package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "repopa/internal/core/context"
	"repopa/internal/core/id"
	"repopa/internal/domain/audit"
)

func TestAuditStore_EncodeRoundTrip(t *testing.T) {
	s, err := NewAuditStore(StaticQuerier{Q: &mockQuerier{}})
	require.NoError(t, err)
	s = s.WithCompressThreshold(64)

	small := []byte(`{"name":"x"}`)
	plain, compressed, algo := s.encode(small)
	assert.Equal(t, CompressionNone, algo)
	assert.Equal(t, small, plain)
	assert.Nil(t, compressed)

	big := []byte(`{"observations":"` + strings.Repeat("Lorem ipsum ", 200) + `"}`)
	plain, compressed, algo = s.encode(big)
	assert.Equal(t, CompressionZstd, algo)
	assert.Nil(t, plain)
	assert.Less(t, len(compressed), len(big))

	out, err := s.decode(plain, compressed, algo)
	require.NoError(t, err)
	assert.Equal(t, big, out)
}

func TestAuditStore_LogChange(t *testing.T) {
	q := &mockQuerier{}
	s, err := NewAuditStore(StaticQuerier{Q: q})
	require.NoError(t, err)

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-1", Email: "ana@repopa.gob.mx"})
	enteID := id.New()
	require.NoError(t, s.LogChange(ctx, "Ente", enteID, audit.ActionCreate, map[string]any{"folio": "F-1"}))

	call := q.last()
	assert.Contains(t, call.sql, "INSERT INTO sys_audit")
	require.Len(t, call.args, 10)
	assert.Equal(t, "Ente", call.args[1])
	assert.Equal(t, enteID, call.args[2])
	assert.Equal(t, "create", call.args[3])
	assert.Equal(t, "u-1", call.args[4])
	assert.Equal(t, "ana@repopa.gob.mx", call.args[5])
	assert.Equal(t, "none", call.args[8])

	var changes map[string]any
	require.NoError(t, json.Unmarshal(call.args[6].([]byte), &changes))
	assert.Equal(t, "F-1", changes["folio"])
}
