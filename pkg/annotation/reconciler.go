package annotation

import (
	"context"
	"errors"
	"fmt"
)

// DefaultIconSize is the side of the square icon footprint in document points.
const DefaultIconSize = 15.0

// ErrIconMissing is returned by a Canvas when no icon image exists for a type.
var ErrIconMissing = errors.New("icon image not found")

// Renderer opens a stored document for stamping.
type Renderer interface {
	Open(ctx context.Context, documentRef string) (Canvas, error)
}

// Canvas is an opened document that accepts overlays and serializes the result.
type Canvas interface {
	PageCount() int
	// StampIcon overlays the icon for t centered at (x, y), top-left origin.
	StampIcon(pageNum int, t Type, x, y, size float64) error
	// StampSummary writes the per-type counts onto the first page.
	StampSummary(counts Counts) error
	Bytes() ([]byte, error)
	Close() error
}

// Warning is a non-fatal problem met while replaying one record.
type Warning struct {
	RecordID string `json:"record_id"`
	PageNum  int    `json:"page_num"`
	Type     Type   `json:"type"`
	Reason   string `json:"reason"`
}

type ExportResult struct {
	Data     []byte
	Applied  int
	Counts   Counts
	Warnings []Warning
}

// Reconciler replays a session's markers onto its document.
type Reconciler struct {
	renderer     Renderer
	iconSize     float64
	stampSummary bool
}

func NewReconciler(renderer Renderer, iconSize float64, stampSummary bool) *Reconciler {
	if iconSize <= 0 {
		iconSize = DefaultIconSize
	}
	return &Reconciler{
		renderer:     renderer,
		iconSize:     iconSize,
		stampSummary: stampSummary,
	}
}

// Export renders every record of session in store order and returns the
// serialized document. It never mutates session; clearing it after a
// successful export is up to the caller.
func (r *Reconciler) Export(ctx context.Context, session *Session) (*ExportResult, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	canvas, err := r.renderer.Open(ctx, session.DocumentRef)
	if err != nil {
		return nil, RenderFailure(CodeDocumentNotFound, "PDF not found or could not be opened", err)
	}
	defer canvas.Close()

	store := NewStore(session.Annotations)
	result := &ExportResult{Counts: store.Counts()}

	for _, rec := range store.List() {
		if err := ctx.Err(); err != nil {
			return nil, Internal("export cancelled", err)
		}
		if rec.PageNum >= canvas.PageCount() {
			result.Warnings = append(result.Warnings, warningFor(rec, "page outside document"))
			continue
		}
		if err := canvas.StampIcon(rec.PageNum, rec.Type, rec.X, rec.Y, r.iconSize); err != nil {
			reason := fmt.Sprintf("stamp failed: %v", err)
			if errors.Is(err, ErrIconMissing) {
				reason = fmt.Sprintf("icon image not found for type %q", rec.Type)
			}
			result.Warnings = append(result.Warnings, warningFor(rec, reason))
			continue
		}
		result.Applied++
	}

	if r.stampSummary && canvas.PageCount() > 0 {
		if err := canvas.StampSummary(result.Counts); err != nil {
			result.Warnings = append(result.Warnings, Warning{PageNum: 0, Reason: fmt.Sprintf("summary not written: %v", err)})
		}
	}

	data, err := canvas.Bytes()
	if err != nil {
		return nil, RenderFailure(CodeRenderFailed, "Error processing PDF for download", err)
	}
	result.Data = data
	return result, nil
}

func warningFor(rec Record, reason string) Warning {
	return Warning{RecordID: rec.ID, PageNum: rec.PageNum, Type: rec.Type, Reason: reason}
}

// SummaryLine formats the counts written onto the first page.
func SummaryLine(counts Counts) string {
	return fmt.Sprintf("Annotation Counts: Ticks: %d, Crosses: %d, Blue Marks: %d",
		counts[TypeTick], counts[TypeCross], counts[TypeBlueMark])
}
