//go:build integration

package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pg "suratdesa/internal/platform/postgres"
	"suratdesa/pkg/platform/sentinel"
	"suratdesa/pkg/testutil/containers"
)

func TestPostgresMappingStore_Integration(t *testing.T) {
	ctx := context.Background()
	pgc := containers.NewPostgresContainer(t)
	require.NoError(t, pg.Migrate(ctx, pgc.DB))

	s := NewPostgresMappingStore(pgc.DB)

	_, err := s.FindByLetterType(ctx, "surat-keterangan-usaha")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	mapping := &FieldMapping{
		LetterType:  "surat-keterangan-usaha",
		IsFillable:  true,
		AutoFill:    []string{"nama_lengkap", "alamat"},
		ManualInput: []string{"keperluan"},
	}
	require.NoError(t, s.Save(ctx, mapping))

	found, err := s.FindByLetterType(ctx, "surat-keterangan-usaha")
	require.NoError(t, err)
	assert.Equal(t, mapping.AutoFill, found.AutoFill)
	assert.Equal(t, mapping.ManualInput, found.ManualInput)
	assert.True(t, found.IsFillable)

	// Saving again upserts, replacing the previous classification.
	require.NoError(t, mapping.SetBucket("alamat", BucketSkipped))
	require.NoError(t, s.Save(ctx, mapping))

	found, err = s.FindByLetterType(ctx, "surat-keterangan-usaha")
	require.NoError(t, err)
	assert.Equal(t, []string{"nama_lengkap"}, found.AutoFill)
	assert.Equal(t, BucketSkipped, found.BucketOf("alamat"))
}
