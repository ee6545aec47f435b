package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"suratdesa/internal/platform/middleware"
	"suratdesa/internal/template"
	"suratdesa/internal/template/handler/mocks"
	dErrors "suratdesa/pkg/domain-errors"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	actorID, role, ok := strings.Cut(token, "|")
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return &middleware.JWTClaims{ActorID: actorID, Role: role}, nil
}

type MappingHandlerSuite struct {
	suite.Suite
}

func TestMappingHandlerSuite(t *testing.T) {
	suite.Run(t, new(MappingHandlerSuite))
}

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, logger, nil, stubValidator{})
	r := chi.NewRouter()
	h.Register(r)
	return r, mockService
}

func do(t *testing.T, router chi.Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func (s *MappingHandlerSuite) TestDetect() {
	router, mockService := newTestRouter(s.T())
	mapping := &template.FieldMapping{
		LetterType:  "surat-keterangan-usaha",
		IsFillable:  true,
		AutoFill:    []string{"nama_lengkap"},
		ManualInput: []string{"keperluan"},
	}
	mockService.EXPECT().Detect(gomock.Any(), mapping.LetterType).Return(mapping, nil)

	rec := do(s.T(), router, http.MethodPost, "/templates/surat-keterangan-usaha/mapping/detect", "village-admin|admin", nil)
	s.Equal(http.StatusOK, rec.Code)

	var got template.FieldMapping
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.True(got.IsFillable)
	s.Equal([]string{"nama_lengkap"}, got.AutoFill)
}

func (s *MappingHandlerSuite) TestMutationsAreAdminOnly() {
	router, _ := newTestRouter(s.T())
	for _, token := range []string{"resident-1|resident", "rt-chair|rt", "rw-chair|rw"} {
		rec := do(s.T(), router, http.MethodPost, "/templates/surat-keterangan-usaha/mapping/detect", token, nil)
		s.Equal(http.StatusForbidden, rec.Code, "token %s", token)

		rec = do(s.T(), router, http.MethodPut, "/templates/surat-keterangan-usaha/mapping/fields/nama", token, map[string]string{"bucket": "skipped"})
		s.Equal(http.StatusForbidden, rec.Code, "token %s", token)
	}
}

func (s *MappingHandlerSuite) TestAnyAuthenticatedRoleReadsMappings() {
	router, mockService := newTestRouter(s.T())
	mapping := &template.FieldMapping{LetterType: "surat-keterangan-usaha", IsFillable: true}
	mockService.EXPECT().GetMapping(gomock.Any(), mapping.LetterType).Return(mapping, nil)

	rec := do(s.T(), router, http.MethodGet, "/templates/surat-keterangan-usaha/mapping", "resident-1|resident", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *MappingHandlerSuite) TestGetMappingNotFound() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().
		GetMapping(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "no field mapping for letter type surat-x"))

	rec := do(s.T(), router, http.MethodGet, "/templates/surat-x/mapping", "village-admin|admin", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *MappingHandlerSuite) TestSetBucket() {
	router, mockService := newTestRouter(s.T())
	mapping := &template.FieldMapping{
		LetterType:  "surat-keterangan-usaha",
		IsFillable:  true,
		ManualInput: []string{"nama_usaha"},
	}
	mockService.EXPECT().
		SetFieldBucket(gomock.Any(), mapping.LetterType, "nama_usaha", template.BucketManualInput).
		Return(mapping, nil)

	rec := do(s.T(), router, http.MethodPut, "/templates/surat-keterangan-usaha/mapping/fields/nama_usaha", "village-admin|admin", map[string]string{
		"bucket": "manual_input",
	})
	s.Equal(http.StatusOK, rec.Code)
}

func (s *MappingHandlerSuite) TestSetBucketRejectsUnknownBucket() {
	router, mockService := newTestRouter(s.T())
	mockService.EXPECT().
		SetFieldBucket(gomock.Any(), gomock.Any(), "nama_usaha", template.FieldBucket("elsewhere")).
		Return(nil, dErrors.New(dErrors.CodeValidation, "unknown field bucket elsewhere"))

	rec := do(s.T(), router, http.MethodPut, "/templates/surat-keterangan-usaha/mapping/fields/nama_usaha", "village-admin|admin", map[string]string{
		"bucket": "elsewhere",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
}
