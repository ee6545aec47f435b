package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"suratdesa/internal/letter/models"
	id "suratdesa/pkg/domain"
	"suratdesa/pkg/platform/sentinel"
	"suratdesa/pkg/platform/tx"
)

// Postgres persists requests in the letter_requests table. Execute wraps the
// validate/mutate cycle in a transaction with SELECT ... FOR UPDATE so the
// row is locked for the whole validate-then-mutate window. The record
// callback runs with the open transaction in context before commit, so the
// audit insert and the request write land or abort together.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

func (s *Postgres) Create(ctx context.Context, request *models.LetterRequest,
	record func(ctx context.Context) error) error {

	attachments, dataFields, err := marshalRequestJSON(request)
	if err != nil {
		return err
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer txn.Rollback() //nolint:errcheck // no-op after commit

	query := `
		INSERT INTO letter_requests
			(id, requester_id, location_tag, letter_type_id, status, attachments,
			 reference_number, data_fields, resume_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = txn.ExecContext(ctx, query,
		request.ID.String(),
		string(request.RequesterID),
		request.LocationTag,
		string(request.LetterType),
		string(request.Status),
		attachments,
		request.ReferenceNumber,
		dataFields,
		string(request.ResumeStatus),
		request.CreatedAt,
		request.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert letter request: %w", err)
	}
	if record != nil {
		if err := record(tx.With(ctx, txn)); err != nil {
			return err
		}
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit letter request insert: %w", err)
	}
	return nil
}

const selectColumns = `
	id, requester_id, location_tag, letter_type_id, status, attachments,
	reference_number, data_fields, resume_status, created_at, updated_at
`

func (s *Postgres) FindByID(ctx context.Context, requestID id.RequestID) (*models.LetterRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM letter_requests WHERE id = $1`, requestID.String())
	return scanRequest(row)
}

func (s *Postgres) ListByRequester(ctx context.Context, requesterID id.ResidentID) ([]*models.LetterRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM letter_requests WHERE requester_id = $1 ORDER BY created_at DESC`,
		string(requesterID))
	if err != nil {
		return nil, fmt.Errorf("list letter requests: %w", err)
	}
	defer rows.Close()

	var out []*models.LetterRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, request)
	}
	return out, rows.Err()
}

func (s *Postgres) Execute(ctx context.Context, requestID id.RequestID,
	validate func(*models.LetterRequest) error,
	mutate func(*models.LetterRequest),
	record func(ctx context.Context) error) (*models.LetterRequest, error) {

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer txn.Rollback() //nolint:errcheck // no-op after commit

	row := txn.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM letter_requests WHERE id = $1 FOR UPDATE`, requestID.String())
	request, err := scanRequest(row)
	if err != nil {
		return nil, err
	}

	if err := validate(request); err != nil {
		return nil, err
	}
	mutate(request)

	attachments, dataFields, err := marshalRequestJSON(request)
	if err != nil {
		return nil, err
	}
	_, err = txn.ExecContext(ctx, `
		UPDATE letter_requests
		SET status = $2, attachments = $3, reference_number = $4,
		    data_fields = $5, resume_status = $6, updated_at = $7
		WHERE id = $1
	`,
		request.ID.String(),
		string(request.Status),
		attachments,
		request.ReferenceNumber,
		dataFields,
		string(request.ResumeStatus),
		request.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update letter request: %w", err)
	}
	if record != nil {
		if err := record(tx.With(ctx, txn)); err != nil {
			return nil, err
		}
	}
	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("commit letter request update: %w", err)
	}
	return request, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.LetterRequest, error) {
	var (
		request        models.LetterRequest
		rawID          string
		requesterID    string
		letterTypeID   string
		status         string
		resumeStatus   string
		attachmentsRaw []byte
		dataFieldsRaw  []byte
	)
	err := row.Scan(&rawID, &requesterID, &request.LocationTag, &letterTypeID, &status,
		&attachmentsRaw, &request.ReferenceNumber, &dataFieldsRaw, &resumeStatus,
		&request.CreatedAt, &request.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan letter request: %w", err)
	}

	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse request id: %w", err)
	}
	request.ID = id.RequestID(parsed)
	request.RequesterID = id.ResidentID(requesterID)
	request.LetterType = id.LetterTypeID(letterTypeID)
	request.Status = models.Status(status)
	request.ResumeStatus = models.Status(resumeStatus)

	if err := json.Unmarshal(attachmentsRaw, &request.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if err := json.Unmarshal(dataFieldsRaw, &request.DataFields); err != nil {
		return nil, fmt.Errorf("decode data fields: %w", err)
	}
	return &request, nil
}

func marshalRequestJSON(request *models.LetterRequest) (attachments, dataFields []byte, err error) {
	attachments, err = json.Marshal(request.Attachments)
	if err != nil {
		return nil, nil, fmt.Errorf("encode attachments: %w", err)
	}
	dataFields, err = json.Marshal(request.DataFields)
	if err != nil {
		return nil, nil, fmt.Errorf("encode data fields: %w", err)
	}
	return attachments, dataFields, nil
}
