package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "suratdesa/pkg/domain-errors"
)

func newTestAdmin() (*Admin, *StaticFieldSource, *InMemoryMappingStore) {
	fields := NewStaticFieldSource()
	mappings := NewInMemoryMappingStore()
	admin := NewAdmin(mappings, fields, []string{"nama", "nik", "alamat"})
	return admin, fields, mappings
}

func TestAdmin_DetectClassifiesAndPersists(t *testing.T) {
	ctx := context.Background()
	admin, fields, mappings := newTestAdmin()
	fields.Put("surat-keterangan-usaha", []RawField{
		{Name: "nama_lengkap", Type: "text"},
		{Name: "keperluan", Type: "text"},
	})

	mapping, err := admin.Detect(ctx, "surat-keterangan-usaha")
	require.NoError(t, err)
	assert.Equal(t, []string{"nama_lengkap"}, mapping.AutoFill)
	assert.Equal(t, []string{"keperluan"}, mapping.ManualInput)

	stored, err := mappings.FindByLetterType(ctx, "surat-keterangan-usaha")
	require.NoError(t, err)
	assert.Equal(t, mapping, stored)
}

func TestAdmin_DetectUnknownTemplate(t *testing.T) {
	admin, _, _ := newTestAdmin()
	_, err := admin.Detect(context.Background(), "surat-tidak-ada")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestAdmin_DetectReplacesManualCorrections(t *testing.T) {
	ctx := context.Background()
	admin, fields, _ := newTestAdmin()
	fields.Put("surat-keterangan-usaha", []RawField{{Name: "nama_lengkap", Type: "text"}})

	_, err := admin.Detect(ctx, "surat-keterangan-usaha")
	require.NoError(t, err)
	_, err = admin.SetFieldBucket(ctx, "surat-keterangan-usaha", "nama_lengkap", BucketSkipped)
	require.NoError(t, err)

	// Re-running detection starts from scratch.
	mapping, err := admin.Detect(ctx, "surat-keterangan-usaha")
	require.NoError(t, err)
	assert.Equal(t, BucketAutoFill, mapping.BucketOf("nama_lengkap"))
}

func TestAdmin_SetFieldBucketPersists(t *testing.T) {
	ctx := context.Background()
	admin, fields, mappings := newTestAdmin()
	fields.Put("surat-keterangan-usaha", []RawField{{Name: "nama_usaha", Type: "text"}})
	_, err := admin.Detect(ctx, "surat-keterangan-usaha")
	require.NoError(t, err)

	mapping, err := admin.SetFieldBucket(ctx, "surat-keterangan-usaha", "nama_usaha", BucketManualInput)
	require.NoError(t, err)
	assert.Equal(t, BucketManualInput, mapping.BucketOf("nama_usaha"))

	stored, err := mappings.FindByLetterType(ctx, "surat-keterangan-usaha")
	require.NoError(t, err)
	assert.Equal(t, BucketManualInput, stored.BucketOf("nama_usaha"))
}

func TestAdmin_SetFieldBucketUnknownMapping(t *testing.T) {
	admin, _, _ := newTestAdmin()
	_, err := admin.SetFieldBucket(context.Background(), "surat-tidak-ada", "nama", BucketSkipped)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
