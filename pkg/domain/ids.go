package domain

import "github.com/google/uuid"

// RequestID identifies a single letter request through its whole lifecycle.
type RequestID uuid.UUID

func NewRequestID() RequestID {
	return RequestID(uuid.New())
}

func ParseRequestID(s string) (RequestID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(u), nil
}

func (id RequestID) String() string {
	return uuid.UUID(id).String()
}

func (id RequestID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText renders the canonical uuid form so request ids serialize as
// strings in JSON and map keys rather than raw byte arrays.
func (id RequestID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *RequestID) UnmarshalText(text []byte) error {
	parsed, err := ParseRequestID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ResidentID is the requester's identity as issued by the auth layer.
type ResidentID string

func (id ResidentID) IsZero() bool { return id == "" }

// ActorID identifies whoever performs a workflow action: the requester, a
// verifier, or an administrator.
type ActorID string

func (id ActorID) IsZero() bool { return id == "" }

// LetterTypeID references a letter template definition ("surat keterangan
// domisili", "surat pengantar KTP", ...). Slugs, not UUIDs: they are
// configured by hand and show up in URLs and reference numbers.
type LetterTypeID string

func (id LetterTypeID) IsZero() bool { return id == "" }
