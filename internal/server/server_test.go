package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pdf-annotator-be/internal/bootstrap"
	"pdf-annotator-be/internal/config"
	"pdf-annotator-be/internal/controller"
	"pdf-annotator-be/internal/dto"
	"pdf-annotator-be/internal/pkg/logger"
	"pdf-annotator-be/internal/pkg/serverutils"
	"pdf-annotator-be/pkg/annotation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	sessions  []string
	uploadErr error
	toggleErr error
	exportErr error
	workErr   error
	imageErr  error
	lastReq   *dto.ToggleRequest
}

func (s *stubService) Upload(ctx context.Context, sessionID string, src io.Reader) (*dto.UploadResponse, error) {
	s.sessions = append(s.sessions, sessionID)
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &dto.UploadResponse{PageCount: 2}, nil
}

func (s *stubService) Workspace(ctx context.Context, sessionID string) (*dto.WorkspaceResponse, error) {
	s.sessions = append(s.sessions, sessionID)
	if s.workErr != nil {
		return nil, s.workErr
	}
	return &dto.WorkspaceResponse{PageCount: 2}, nil
}

func (s *stubService) PageImage(ctx context.Context, sessionID string, pageNum int) ([]byte, error) {
	if s.imageErr != nil {
		return nil, s.imageErr
	}
	return []byte("png"), nil
}

func (s *stubService) Toggle(ctx context.Context, sessionID string, req *dto.ToggleRequest) (*dto.ToggleResponse, error) {
	s.lastReq = req
	if s.toggleErr != nil {
		return nil, s.toggleErr
	}
	return &dto.ToggleResponse{
		Status: "ok",
		Action: annotation.ActionAdded,
		Counts: annotation.Counts{annotation.TypeTick: 1, annotation.TypeCross: 0, annotation.TypeBlueMark: 0},
	}, nil
}

func (s *stubService) Export(ctx context.Context, sessionID string) (*dto.ExportResult, error) {
	if s.exportErr != nil {
		return nil, s.exportErr
	}
	return &dto.ExportResult{
		Data:     []byte("%PDF-1.7"),
		Filename: "annotated_document.pdf",
		Applied:  1,
		Warnings: []annotation.Warning{{RecordID: "r1", Reason: "icon image not found"}},
	}, nil
}

func (s *stubService) Discard(ctx context.Context, sessionID string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Port:               "0",
			CorsAllowedOrigins: "http://localhost:5173",
			BodyLimitMB:        1,
			StartPath:          "/",
		},
		Session: config.SessionConfig{
			TTL:        time.Hour,
			CookieName: "annotator_session",
		},
	}
}

func testContainer(svc *stubService) *bootstrap.Container {
	return &bootstrap.Container{
		DocumentController:   controller.NewDocumentController(svc, "/"),
		AnnotationController: controller.NewAnnotationController(svc),
		Logger:               logger.NewNopLogger(),
	}
}

func newTestServer(t *testing.T, svc *stubService) *Server {
	t.Helper()
	srv, err := New(testConfig(), testContainer(svc))
	require.NoError(t, err)
	return srv
}

func toggleRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/annotations/toggle", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, resp *http.Response) serverutils.ErrorBody {
	t.Helper()
	var body serverutils.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestNew_RejectsWildcardOrigin(t *testing.T) {
	for _, origins := range []string{"*", "http://localhost:5173, *"} {
		cfg := testConfig()
		cfg.App.CorsAllowedOrigins = origins
		srv, err := New(cfg, testContainer(&stubService{}))
		assert.ErrorIs(t, err, ErrWildcardOrigin, origins)
		assert.Nil(t, srv)
	}
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	srv := newTestServer(t, &stubService{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := srv.GetApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubService{})
	resp, err := srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestToggle_Success(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	resp, err := srv.GetApp().Test(toggleRequest(`{"page_num":0,"x":50,"y":50,"type":"tick"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "added", body["action"])

	require.NotNil(t, svc.lastReq)
	assert.Equal(t, 0, *svc.lastReq.PageNum)
	assert.Equal(t, 50.0, *svc.lastReq.X)
}

func TestToggle_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"invalid json", `{"page_num":`, nil, http.StatusBadRequest, annotation.CodeInvalidBody},
		{"missing field", `{"page_num":0,"x":5,"type":"tick"}`, nil, http.StatusBadRequest, annotation.CodeMissingField},
		{"invalid page", `{"page_num":5,"x":5,"y":5,"type":"tick"}`,
			annotation.Validation(annotation.CodeInvalidPage, "Invalid page number"), http.StatusBadRequest, annotation.CodeInvalidPage},
		{"no document", `{"page_num":0,"x":5,"y":5,"type":"tick"}`,
			annotation.Precondition(annotation.CodeNoDocument, "No PDF loaded"), http.StatusBadRequest, annotation.CodeNoDocument},
		{"internal", `{"page_num":0,"x":5,"y":5,"type":"tick"}`,
			errors.New("disk on fire"), http.StatusInternalServerError, annotation.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubService{toggleErr: tt.err})
			resp, err := srv.GetApp().Test(toggleRequest(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			body := decodeError(t, resp)
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, tt.code, body.Code)
			assert.NotContains(t, body.Message, "disk on fire")
		})
	}
}

func TestSessionCookie_IsIssuedAndReused(t *testing.T) {
	svc := &stubService{}
	srv := newTestServer(t, svc)

	resp, err := srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/api/documents/current", nil))
	require.NoError(t, err)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "annotator_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/current", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	_, err = srv.GetApp().Test(req)
	require.NoError(t, err)

	require.Len(t, svc.sessions, 2)
	assert.Equal(t, svc.sessions[0], svc.sessions[1])
	assert.Equal(t, cookie.Value, svc.sessions[1])
}

func TestWorkspace_RedirectsWithoutDocument(t *testing.T) {
	srv := newTestServer(t, &stubService{workErr: annotation.Precondition(annotation.CodeNoDocument, "No PDF loaded")})

	resp, err := srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/api/documents/current", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestDownload(t *testing.T) {
	t.Run("attachment", func(t *testing.T) {
		srv := newTestServer(t, &stubService{})
		resp, err := srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/api/documents/current/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "annotated_document.pdf")
		assert.Equal(t, "1", resp.Header.Get("X-Annotation-Warnings"))

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7"), data)
	})

	t.Run("second export redirects", func(t *testing.T) {
		srv := newTestServer(t, &stubService{exportErr: annotation.Precondition(annotation.CodeNoDocument, "No PDF loaded")})
		resp, err := srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/api/documents/current/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	})

	t.Run("missing document", func(t *testing.T) {
		srv := newTestServer(t, &stubService{exportErr: annotation.RenderFailure(annotation.CodeDocumentNotFound, "PDF not found", nil)})
		resp, err := srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/api/documents/current/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, annotation.CodeDocumentNotFound, decodeError(t, resp).Code)
	})

	t.Run("render failure", func(t *testing.T) {
		srv := newTestServer(t, &stubService{exportErr: annotation.RenderFailure(annotation.CodeRenderFailed, "Error processing PDF", errors.New("boom"))})
		resp, err := srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/api/documents/current/download", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestPageImage(t *testing.T) {
	srv := newTestServer(t, &stubService{})
	resp, err := srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/api/documents/current/pages/0/image", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, err = srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/api/documents/current/pages/abc/image", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	srv = newTestServer(t, &stubService{imageErr: annotation.Precondition(annotation.CodeNoDocument, "No PDF loaded")})
	resp, err = srv.GetApp().Test(httptest.NewRequest(http.MethodGet, "/api/documents/current/pages/0/image", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpload(t *testing.T) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("pdf_file", "doc.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	srv := newTestServer(t, &stubService{})
	resp, err := srv.GetApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err = srv.GetApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, annotation.CodeMissingField, decodeError(t, resp).Code)
}
