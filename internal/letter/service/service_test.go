package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"suratdesa/internal/attachment"
	"suratdesa/internal/audit"
	"suratdesa/internal/letter/models"
	"suratdesa/internal/letter/store"
	"suratdesa/internal/profile"
	"suratdesa/internal/refnum"
	"suratdesa/internal/template"
	id "suratdesa/pkg/domain"
	dErrors "suratdesa/pkg/domain-errors"
	"suratdesa/pkg/requestcontext"
)

// recordingDispatcher captures dispatched events and can be told to fail.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (d *recordingDispatcher) OnEvent(_ context.Context, event audit.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

// flakyTrail delegates to the in-memory trail and can be told to fail, so
// tests can observe what a transition leaves behind when the audit write
// does not go through.
type flakyTrail struct {
	inner *audit.InMemoryTrail
	err   error
}

func (t *flakyTrail) Append(ctx context.Context, event audit.Event) error {
	if t.err != nil {
		return t.err
	}
	return t.inner.Append(ctx, event)
}

func (t *flakyTrail) ListByRequest(ctx context.Context, requestID id.RequestID) ([]audit.Event, error) {
	return t.inner.ListByRequest(ctx, requestID)
}

// countingGenerator wraps the in-memory generator to count allocations.
type countingGenerator struct {
	inner *refnum.InMemoryGenerator
	mu    sync.Mutex
	calls int
}

func (g *countingGenerator) Next(ctx context.Context, letterType models.LetterType, effectiveDate time.Time) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	return g.inner.Next(ctx, letterType, effectiveDate)
}

type ServiceSuite struct {
	suite.Suite

	ctx         context.Context
	now         time.Time
	service     *Service
	requests    *store.InMemory
	trail       *flakyTrail
	mappings    *template.InMemoryMappingStore
	profiles    *profile.InMemorySource
	attachments *attachment.InMemoryStore
	refnums     *countingGenerator
	dispatcher  *recordingDispatcher

	resident models.ActorRef
	rt       models.ActorRef
	rw       models.ActorRef
	admin    models.ActorRef
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.requests = store.NewInMemory()
	s.trail = &flakyTrail{inner: audit.NewInMemoryTrail()}
	s.mappings = template.NewInMemoryMappingStore()
	s.profiles = profile.NewInMemorySource()
	s.attachments = attachment.NewInMemoryStore()
	s.refnums = &countingGenerator{inner: refnum.NewInMemoryGenerator()}
	s.dispatcher = &recordingDispatcher{}

	types := store.NewInMemoryTypeStore()
	store.SeedLetterTypes(types)

	svc, err := New(s.requests, types, s.trail,
		WithMappingStore(s.mappings),
		WithProfileSource(s.profiles),
		WithAttachmentStore(s.attachments),
		WithReferenceNumbers(s.refnums),
		WithDispatcher(s.dispatcher),
	)
	s.Require().NoError(err)
	s.service = svc

	s.resident = models.ActorRef{ID: "resident-1", Role: models.RoleResident}
	s.rt = models.ActorRef{ID: "rt-chair", Role: models.RoleNeighborhood}
	s.rw = models.ActorRef{ID: "rw-chair", Role: models.RoleDistrict}
	s.admin = models.ActorRef{ID: "village-admin", Role: models.RoleAdmin}
}

func (s *ServiceSuite) submit(letterType id.LetterTypeID) *models.LetterRequest {
	s.T().Helper()
	request, err := s.service.Submit(s.ctx, SubmitInput{
		RequesterID: "resident-1",
		LocationTag: "RT03/RW05",
		LetterType:  letterType,
		DataFields:  map[string]string{"keperluan": "pembukaan rekening"},
	})
	s.Require().NoError(err)
	return request
}

func (s *ServiceSuite) upload(label string) models.AttachmentRef {
	s.T().Helper()
	ref, err := s.attachments.Store(s.ctx, []byte(label), "application/pdf")
	s.Require().NoError(err)
	return ref
}

func (s *ServiceSuite) TestFullApprovalChain() {
	request := s.submit("surat-keterangan-domisili")
	s.Equal(models.StatusAwaitingNeighborhood, request.Status)

	request, err := s.service.Verify(s.ctx, request.ID, s.rt, s.upload("rt cover"), "warga kami")
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingDistrict, request.Status)

	request, err = s.service.Verify(s.ctx, request.ID, s.rw, s.upload("rw cover"), "")
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingFinalApproval, request.Status)

	request, err = s.service.Approve(s.ctx, request.ID, s.admin, s.now)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, request.Status)
	s.Equal("474.1/001/VIII/2026", request.ReferenceNumber)
	s.Len(request.Attachments, 2)

	events, err := s.service.History(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 4)
	s.Equal(audit.ActionCreated, events[0].Action)
	s.Equal(audit.ActionVerified, events[1].Action)
	s.Equal(audit.ActionVerified, events[2].Action)
	s.Equal(audit.ActionApproved, events[3].Action)
	s.Equal("474.1/001/VIII/2026", events[3].Note)
	s.Equal(4, s.dispatcher.count())
}

func (s *ServiceSuite) TestSingleTierTypeSkipsDistrict() {
	request := s.submit("surat-pengantar-ktp")

	request, err := s.service.Verify(s.ctx, request.ID, s.rt, s.upload("rt cover"), "")
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingFinalApproval, request.Status)

	request, err = s.service.Approve(s.ctx, request.ID, s.admin, s.now)
	s.Require().NoError(err)
	s.Equal("471.13/001/VIII/2026", request.ReferenceNumber)
}

func (s *ServiceSuite) TestRejectionIsTerminalAndNeedsANote() {
	request := s.submit("surat-keterangan-domisili")
	request, err := s.service.Verify(s.ctx, request.ID, s.rt, s.upload("rt cover"), "")
	s.Require().NoError(err)

	s.Run("rejection without a note is refused", func() {
		_, err := s.service.Reject(s.ctx, request.ID, s.rw, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejection with a note terminates the request", func() {
		rejected, err := s.service.Reject(s.ctx, request.ID, s.rw, "alamat tidak sesuai KTP")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, rejected.Status)
	})

	s.Run("nothing acts on a rejected request", func() {
		_, err := s.service.Verify(s.ctx, request.ID, s.rw, s.upload("late cover"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		_, err = s.service.Approve(s.ctx, request.ID, s.admin, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		_, err = s.service.Resubmit(s.ctx, request.ID, s.resident, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ServiceSuite) TestRevisionResumesAtRequestingTier() {
	request := s.submit("surat-keterangan-domisili")
	request, err := s.service.Verify(s.ctx, request.ID, s.rt, s.upload("rt cover"), "")
	s.Require().NoError(err)

	request, err = s.service.RequestRevision(s.ctx, request.ID, s.rw, "lampirkan bukti domisili baru")
	s.Require().NoError(err)
	s.Equal(models.StatusRevisionRequested, request.Status)

	request, err = s.service.Resubmit(s.ctx, request.ID, s.resident, map[string]string{"keperluan": "kredit usaha"})
	s.Require().NoError(err)

	// Back in the district queue, not at the start; the neighborhood cover
	// letter is still attached.
	s.Equal(models.StatusAwaitingDistrict, request.Status)
	s.Contains(request.Attachments, models.LevelNeighborhood)
	s.Equal("kredit usaha", request.DataFields["keperluan"])

	request, err = s.service.Verify(s.ctx, request.ID, s.rw, s.upload("rw cover"), "")
	s.Require().NoError(err)
	request, err = s.service.Approve(s.ctx, request.ID, s.admin, s.now)
	s.Require().NoError(err)
	s.Equal(models.StatusCompleted, request.Status)

	events, err := s.service.History(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Len(events, 6)
}

func (s *ServiceSuite) TestResubmitOnlyByRequester() {
	request := s.submit("surat-keterangan-domisili")
	_, err := s.service.RequestRevision(s.ctx, request.ID, s.rt, "perbaiki nama")
	s.Require().NoError(err)

	s.Run("another resident", func() {
		stranger := models.ActorRef{ID: "resident-2", Role: models.RoleResident}
		_, err := s.service.Resubmit(s.ctx, request.ID, stranger, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	// Verifier and admin tokens are not the requester either; their role
	// buys no bypass of the identity check.
	s.Run("verifier and admin tokens", func() {
		for _, actor := range []models.ActorRef{s.rt, s.rw, s.admin} {
			_, err := s.service.Resubmit(s.ctx, request.ID, actor, map[string]string{"keperluan": "diubah"})
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "role %s", actor.Role)
		}
		current, err := s.service.GetRequest(s.ctx, request.ID)
		s.Require().NoError(err)
		s.Equal("pembukaan rekening", current.DataFields["keperluan"])
	})

	s.Run("the requester", func() {
		updated, err := s.service.Resubmit(s.ctx, request.ID, s.resident, nil)
		s.Require().NoError(err)
		s.Equal(models.StatusAwaitingNeighborhood, updated.Status)
	})
}

func (s *ServiceSuite) TestAuditWriteFailureLeavesStateUntouched() {
	request := s.submit("surat-keterangan-domisili")
	cover := s.upload("rt cover")

	s.trail.err = errors.New("event log unavailable")
	_, err := s.service.Verify(s.ctx, request.ID, s.rt, cover, "")
	s.Require().Error(err)

	// The failed verification is invisible: no status change, no event, no
	// notification beyond the original submission.
	s.trail.err = nil
	current, err := s.service.GetRequest(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingNeighborhood, current.Status)
	events, err := s.service.History(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Len(events, 1)
	s.Equal(1, s.dispatcher.count())

	// The same attempt goes through once the trail recovers.
	updated, err := s.service.Verify(s.ctx, request.ID, s.rt, cover, "")
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingDistrict, updated.Status)
}

func (s *ServiceSuite) TestRoleMustMatchState() {
	request := s.submit("surat-keterangan-domisili")

	// The district verifier cannot act while the neighborhood tier is up.
	_, err := s.service.Verify(s.ctx, request.ID, s.rw, s.upload("rw cover"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	// Nor can the admin approve before the chain completes.
	_, err = s.service.Approve(s.ctx, request.ID, s.admin, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	s.Equal(0, s.refnums.calls)

	current, err := s.service.GetRequest(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingNeighborhood, current.Status)
}

func (s *ServiceSuite) TestVerifyDemandsACoverLetter() {
	request := s.submit("surat-keterangan-domisili")

	_, err := s.service.Verify(s.ctx, request.ID, s.rt, models.AttachmentRef{}, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	// A handle that doesn't resolve to a stored upload is refused too.
	bogus := models.AttachmentRef{Handle: "no-such-upload", UploadedAt: s.now}
	_, err = s.service.Verify(s.ctx, request.ID, s.rt, bogus, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	// The failed attempts left no trace: state and trail are untouched.
	current, err := s.service.GetRequest(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingNeighborhood, current.Status)
	events, err := s.service.History(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *ServiceSuite) TestReferenceNumberAllocatedAtMostOnce() {
	request := s.submit("surat-pengantar-ktp")
	_, err := s.service.Verify(s.ctx, request.ID, s.rt, s.upload("rt cover"), "")
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx, request.ID, s.admin, s.now)
	s.Require().NoError(err)
	_, err = s.service.Approve(s.ctx, request.ID, s.admin, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	s.Equal(1, s.refnums.calls)
}

func (s *ServiceSuite) TestDispatchFailureNeverSurfaces() {
	s.dispatcher.err = errors.New("broker down")

	request := s.submit("surat-keterangan-domisili")
	s.Equal(models.StatusAwaitingNeighborhood, request.Status)

	updated, err := s.service.Verify(s.ctx, request.ID, s.rt, s.upload("rt cover"), "")
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingDistrict, updated.Status)
}

func (s *ServiceSuite) TestSubmitEnforcesManualFields() {
	mapping := &template.FieldMapping{
		LetterType:  "surat-keterangan-domisili",
		IsFillable:  true,
		AutoFill:    []string{"nama_lengkap"},
		ManualInput: []string{"keperluan", "lama_tinggal"},
	}
	s.Require().NoError(s.mappings.Save(s.ctx, mapping))

	_, err := s.service.Submit(s.ctx, SubmitInput{
		RequesterID: "resident-1",
		LetterType:  "surat-keterangan-domisili",
		DataFields:  map[string]string{"keperluan": "bank"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Submit(s.ctx, SubmitInput{
		RequesterID: "resident-1",
		LetterType:  "surat-keterangan-domisili",
		DataFields:  map[string]string{"keperluan": "bank", "lama_tinggal": "5 tahun"},
	})
	s.NoError(err)
}

func (s *ServiceSuite) TestSubmitUnknownLetterType() {
	_, err := s.service.Submit(s.ctx, SubmitInput{
		RequesterID: "resident-1",
		LetterType:  "surat-tidak-ada",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestHistoryUnknownRequest() {
	_, err := s.service.History(s.ctx, id.NewRequestID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestFillMergesProfileAndWarnsOnGaps() {
	mapping := &template.FieldMapping{
		LetterType:  "surat-keterangan-domisili",
		IsFillable:  true,
		AutoFill:    []string{"nama_lengkap", "pekerjaan"},
		ManualInput: []string{"keperluan"},
	}
	s.Require().NoError(s.mappings.Save(s.ctx, mapping))
	s.profiles.Put("resident-1", profile.Attributes{"nama": "Budi Santoso"})

	request := s.submit("surat-keterangan-domisili")

	result, err := s.service.Fill(s.ctx, request.ID)
	s.Require().NoError(err)
	s.Equal("Budi Santoso", result.Values["nama_lengkap"])
	s.Equal("pembukaan rekening", result.Values["keperluan"])
	s.Equal("", result.Values["pekerjaan"])
	s.Contains(result.Warning, "pekerjaan")
}
