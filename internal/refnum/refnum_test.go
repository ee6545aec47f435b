package refnum

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suratdesa/internal/letter/models"
)

func TestFormat(t *testing.T) {
	august := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "474.1/015/VIII/2026", Format("474.1", 15, august))

	january := time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "503/001/I/2027", Format("503", 1, january))

	december := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "471.13/120/XII/2026", Format("471.13", 120, december))
}

func TestInMemoryGenerator_SequencesPerTypeAndYear(t *testing.T) {
	ctx := context.Background()
	g := NewInMemoryGenerator()
	domisili := models.LetterType{ID: "surat-keterangan-domisili", Code: "474.1"}
	usaha := models.LetterType{ID: "surat-keterangan-usaha", Code: "503"}
	in2026 := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	in2027 := time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)

	first, err := g.Next(ctx, domisili, in2026)
	require.NoError(t, err)
	second, err := g.Next(ctx, domisili, in2026)
	require.NoError(t, err)
	assert.Equal(t, "474.1/001/VIII/2026", first)
	assert.Equal(t, "474.1/002/VIII/2026", second)

	// Sequences are independent per letter type.
	otherType, err := g.Next(ctx, usaha, in2026)
	require.NoError(t, err)
	assert.Equal(t, "503/001/VIII/2026", otherType)

	// And reset with the calendar year.
	newYear, err := g.Next(ctx, domisili, in2027)
	require.NoError(t, err)
	assert.Equal(t, "474.1/001/I/2027", newYear)
}
