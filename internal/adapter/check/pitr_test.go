package check

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/arturoeanton/supabase-guard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPITREvaluate(t *testing.T) {
	fake := &fakeProject{backups: &domain.BackupStatus{
		Region:      "eu-central-1",
		PITREnabled: false,
		WALGEnabled: true,
		Backups:     []json.RawMessage{json.RawMessage(`{}`), json.RawMessage(`{}`), json.RawMessage(`{}`)},
	}}

	entities, err := NewPITRCheck(fake).Evaluate(context.Background(), nil, "abcd")
	require.NoError(t, err)
	require.Len(t, entities, 1)

	e := entities[0]
	assert.Equal(t, "abcd", e.ID)
	assert.False(t, e.Compliant)
	assert.Equal(t, "eu-central-1", e.Attributes["region"])
	assert.Equal(t, true, e.Attributes["walg_enabled"])
	assert.Equal(t, 3, e.Attributes["backup_count"])
}
