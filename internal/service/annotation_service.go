package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"pdf-annotator-be/internal/dto"
	"pdf-annotator-be/internal/pkg/logger"
	"pdf-annotator-be/internal/repository/contract"
	"pdf-annotator-be/pkg/annotation"
	"pdf-annotator-be/pkg/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const ExportFilename = "annotated_document.pdf"

var tracer = otel.Tracer("pdf-annotator-be/internal/service")

// DocumentInspector reads page geometry from an uploaded document.
type DocumentInspector interface {
	Inspect(path string, scale float64) ([]annotation.PageDescriptor, error)
}

// PageRasterizer renders a single page to PNG.
type PageRasterizer interface {
	RenderPage(path string, pageNum int, scale float64) ([]byte, error)
}

type IAnnotationService interface {
	Upload(ctx context.Context, sessionID string, src io.Reader) (*dto.UploadResponse, error)
	Workspace(ctx context.Context, sessionID string) (*dto.WorkspaceResponse, error)
	PageImage(ctx context.Context, sessionID string, pageNum int) ([]byte, error)
	Toggle(ctx context.Context, sessionID string, req *dto.ToggleRequest) (*dto.ToggleResponse, error)
	Export(ctx context.Context, sessionID string) (*dto.ExportResult, error)
	Discard(ctx context.Context, sessionID string) error
}

type AnnotationServiceConfig struct {
	UploadDir   string
	RenderScale float64
}

type annotationService struct {
	repo       contract.SessionRepository
	inspector  DocumentInspector
	rasterizer PageRasterizer
	reconciler *annotation.Reconciler
	engine     *annotation.Engine
	publisher  IPublisherService
	logger     logger.ILogger
	cfg        AnnotationServiceConfig
	now        func() time.Time
	touch      func(path string, atime, mtime time.Time) error
}

func NewAnnotationService(
	repo contract.SessionRepository,
	inspector DocumentInspector,
	rasterizer PageRasterizer,
	reconciler *annotation.Reconciler,
	engine *annotation.Engine,
	publisher IPublisherService,
	log logger.ILogger,
	cfg AnnotationServiceConfig,
) IAnnotationService {
	if cfg.RenderScale <= 0 {
		cfg.RenderScale = 2.0
	}
	return &annotationService{
		repo:       repo,
		inspector:  inspector,
		rasterizer: rasterizer,
		reconciler: reconciler,
		engine:     engine,
		publisher:  publisher,
		logger:     log,
		cfg:        cfg,
		now:        time.Now,
		touch:      os.Chtimes,
	}
}

// Upload stores the document and starts a fresh session, replacing whatever
// the caller had before.
func (s *annotationService) Upload(ctx context.Context, sessionID string, src io.Reader) (*dto.UploadResponse, error) {
	ctx, span := tracer.Start(ctx, "AnnotationService.Upload")
	defer span.End()

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return nil, annotation.Internal("failed to prepare upload directory", err)
	}
	tmp, err := os.CreateTemp(s.cfg.UploadDir, "upload-*.pdf")
	if err != nil {
		return nil, annotation.Internal("failed to create upload file", err)
	}
	path := tmp.Name()
	_, copyErr := io.Copy(tmp, src)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		s.removeFile(path)
		return nil, annotation.Internal("failed to store upload", err)
	}

	pages, err := s.inspector.Inspect(path, s.cfg.RenderScale)
	if err != nil {
		s.removeFile(path)
		return nil, annotation.Validation(annotation.CodeInvalidDocument, fmt.Sprintf("Error processing PDF: %v", err))
	}

	if previous, found, err := s.repo.Get(ctx, sessionID); err == nil && found && previous.DocumentRef != path {
		s.removeFile(previous.DocumentRef)
	}

	now := s.now()
	session := &annotation.Session{
		ID:          sessionID,
		DocumentRef: path,
		Pages:       pages,
		Annotations: []annotation.Record{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Save(ctx, session); err != nil {
		s.removeFile(path)
		return nil, annotation.Internal("failed to save session", err)
	}

	s.publish(ctx, events.New(events.TypeDocumentUploaded, map[string]interface{}{
		"session_id": sessionID,
		"page_count": len(pages),
	}))

	span.SetAttributes(attribute.Int("document.page_count", len(pages)))
	return &dto.UploadResponse{PageCount: len(pages), Pages: pages}, nil
}

func (s *annotationService) Workspace(ctx context.Context, sessionID string) (*dto.WorkspaceResponse, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(session.Pages))
	for _, p := range session.Pages {
		urls = append(urls, PageImageURL(p.PageNum))
	}
	store := annotation.NewStore(session.Annotations)

	return &dto.WorkspaceResponse{
		PageCount:     len(session.Pages),
		Pages:         session.Pages,
		PageImageURLs: urls,
		Annotations:   store.List(),
		Counts:        store.Counts(),
		Tolerance:     s.engine.Tolerance(),
	}, nil
}

// PageImageURL is the path the page image endpoint serves pageNum on.
func PageImageURL(pageNum int) string {
	return fmt.Sprintf("/api/documents/current/pages/%d/image", pageNum)
}

func (s *annotationService) PageImage(ctx context.Context, sessionID string, pageNum int) ([]byte, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if pageNum < 0 || pageNum >= len(session.Pages) {
		return nil, annotation.RenderFailure(annotation.CodePageNotFound, "PDF page not found or PDF not loaded.", nil)
	}

	img, err := s.rasterizer.RenderPage(session.DocumentRef, pageNum, session.Pages[pageNum].RenderScale)
	if err != nil {
		s.logger.Error("AnnotationService", "Error generating page image", map[string]interface{}{
			"session_id": sessionID,
			"page_num":   pageNum,
			"error":      err.Error(),
		})
		return nil, annotation.RenderFailure(annotation.CodePageNotFound, "Error generating page image.", err)
	}
	return img, nil
}

func (s *annotationService) Toggle(ctx context.Context, sessionID string, req *dto.ToggleRequest) (*dto.ToggleResponse, error) {
	if req.PageNum == nil || req.X == nil || req.Y == nil || req.Type == "" {
		return nil, annotation.Validation(annotation.CodeMissingField, "Missing or invalid data: page_num, x, y and type are required")
	}

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireDocument(ctx, session); err != nil {
		return nil, err
	}

	res, err := s.engine.ToggleAt(session, *req.PageNum, *req.X, *req.Y, annotation.Type(req.Type))
	if err != nil {
		return nil, err
	}

	session.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, session); err != nil {
		return nil, annotation.Internal("failed to save session", err)
	}
	// keeps the upload clear of the stale-file sweep while the session lives
	if err := s.touch(session.DocumentRef, session.UpdatedAt, session.UpdatedAt); err != nil {
		s.logger.Warn("AnnotationService", "Failed to refresh upload timestamp", map[string]interface{}{
			"session_id": sessionID,
			"path":       session.DocumentRef,
			"error":      err.Error(),
		})
	}

	s.publish(ctx, events.New(events.TypeAnnotationToggled, map[string]interface{}{
		"session_id": sessionID,
		"action":     string(res.Action),
		"record_id":  res.Record.ID,
		"page_num":   res.Record.PageNum,
		"type":       string(res.Record.Type),
	}))

	record := res.Record
	return &dto.ToggleResponse{
		Status: "ok",
		Action: res.Action,
		Counts: res.Counts,
		Record: &record,
	}, nil
}

// Export burns the markers into the document. On success the whole session is
// removed in one step; on failure it is kept as it was.
func (s *annotationService) Export(ctx context.Context, sessionID string) (*dto.ExportResult, error) {
	ctx, span := tracer.Start(ctx, "AnnotationService.Export")
	defer span.End()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireDocument(ctx, session); err != nil {
		if annotation.CodeOf(err) == annotation.CodeStaleSession {
			return nil, annotation.RenderFailure(annotation.CodeDocumentNotFound, "Error: PDF not found or could not be opened.", err)
		}
		return nil, err
	}

	res, err := s.reconciler.Export(ctx, session)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("AnnotationService", "Error processing PDF for download", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil, err
	}

	for _, w := range res.Warnings {
		s.logger.Warn("AnnotationService", "Annotation skipped during export", map[string]interface{}{
			"session_id": sessionID,
			"record_id":  w.RecordID,
			"page_num":   w.PageNum,
			"type":       string(w.Type),
			"reason":     w.Reason,
		})
	}

	span.SetAttributes(
		attribute.Int("annotation.applied", res.Applied),
		attribute.Int("annotation.skipped", len(res.Warnings)),
	)

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return nil, annotation.Internal("failed to clear session", err)
	}
	s.removeFile(session.DocumentRef)

	s.publish(ctx, events.New(events.TypeDocumentExported, map[string]interface{}{
		"session_id": sessionID,
		"applied":    res.Applied,
		"skipped":    len(res.Warnings),
		"counts":     res.Counts,
	}))

	return &dto.ExportResult{
		Data:     res.Data,
		Filename: ExportFilename,
		Applied:  res.Applied,
		Warnings: res.Warnings,
	}, nil
}

func (s *annotationService) Discard(ctx context.Context, sessionID string) error {
	session, found, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return annotation.Internal("failed to load session", err)
	}
	if !found {
		return nil
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return annotation.Internal("failed to clear session", err)
	}
	s.removeFile(session.DocumentRef)

	s.publish(ctx, events.New(events.TypeSessionDiscarded, map[string]interface{}{
		"session_id": sessionID,
	}))
	return nil
}

// load fetches the session and checks it is complete. Records persisted
// without ids are given one and saved back before anything reads them.
func (s *annotationService) load(ctx context.Context, sessionID string) (*annotation.Session, error) {
	session, found, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, annotation.Internal("failed to load session", err)
	}
	if !found {
		return nil, annotation.Precondition(annotation.CodeNoDocument, "No PDF loaded")
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}

	if needsIDs(session.Annotations) {
		session.Annotations = annotation.NewStore(session.Annotations).List()
		if err := s.repo.Save(ctx, session); err != nil {
			return nil, annotation.Internal("failed to save session", err)
		}
	}
	return session, nil
}

// requireDocument fails when the uploaded file is gone. Such a session can
// never be used again, so it is dropped.
func (s *annotationService) requireDocument(ctx context.Context, session *annotation.Session) error {
	if _, err := os.Stat(session.DocumentRef); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return annotation.Internal("failed to check document", err)
	}

	s.logger.Warn("AnnotationService", "Session references a missing document", map[string]interface{}{
		"session_id":   session.ID,
		"document_ref": session.DocumentRef,
	})
	if err := s.repo.Delete(ctx, session.ID); err != nil {
		return annotation.Internal("failed to clear session", err)
	}
	return annotation.Precondition(annotation.CodeStaleSession, "PDF not found, please upload it again")
}

func needsIDs(records []annotation.Record) bool {
	for _, r := range records {
		if r.ID == "" {
			return true
		}
	}
	return false
}

func (s *annotationService) removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("AnnotationService", "Error deleting temporary file", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}

// publish is best effort; events never fail a request.
func (s *annotationService) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("AnnotationService", "Failed to publish event", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}
