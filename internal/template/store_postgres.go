package template

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "suratdesa/pkg/domain"
	"suratdesa/pkg/platform/sentinel"
)

// PostgresMappingStore keeps one row per letter type; saves upsert because
// an administrator reruns auto-detection after replacing a template file.
type PostgresMappingStore struct {
	db *sql.DB
}

func NewPostgresMappingStore(db *sql.DB) *PostgresMappingStore {
	return &PostgresMappingStore{db: db}
}

func (s *PostgresMappingStore) Save(ctx context.Context, mapping *FieldMapping) error {
	query := `
		INSERT INTO template_field_mappings (letter_type_id, is_fillable, auto_fill, manual_input)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (letter_type_id) DO UPDATE
		SET is_fillable = EXCLUDED.is_fillable,
		    auto_fill = EXCLUDED.auto_fill,
		    manual_input = EXCLUDED.manual_input
	`
	_, err := s.db.ExecContext(ctx, query,
		string(mapping.LetterType),
		mapping.IsFillable,
		pq.Array(mapping.AutoFill),
		pq.Array(mapping.ManualInput),
	)
	if err != nil {
		return fmt.Errorf("save field mapping: %w", err)
	}
	return nil
}

func (s *PostgresMappingStore) FindByLetterType(ctx context.Context, letterType id.LetterTypeID) (*FieldMapping, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT letter_type_id, is_fillable, auto_fill, manual_input
		FROM template_field_mappings
		WHERE letter_type_id = $1
	`, string(letterType))

	var (
		mapping     FieldMapping
		rawType     string
		autoFill    pq.StringArray
		manualInput pq.StringArray
	)
	err := row.Scan(&rawType, &mapping.IsFillable, &autoFill, &manualInput)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan field mapping: %w", err)
	}
	mapping.LetterType = id.LetterTypeID(rawType)
	mapping.AutoFill = []string(autoFill)
	mapping.ManualInput = []string(manualInput)
	return &mapping, nil
}
