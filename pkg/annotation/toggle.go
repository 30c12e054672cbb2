package annotation

import (
	"fmt"
	"math"
)

// DefaultTolerance is the removal radius in document points. Clicks arrive in
// raster pixels at scale 2.0, so this equals 10 pixels on screen.
const DefaultTolerance = 5.0

type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
)

// ToggleResult describes what a click did to the store.
type ToggleResult struct {
	Action Action `json:"action"`
	Record Record `json:"record"`
	Counts Counts `json:"counts"`
}

// Engine decides whether a click adds a marker or removes a nearby one of the
// same type.
type Engine struct {
	tolerance float64
	storeOpts []StoreOption
}

func NewEngine(tolerance float64, storeOpts ...StoreOption) *Engine {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Engine{tolerance: tolerance, storeOpts: storeOpts}
}

func (e *Engine) Tolerance() float64 {
	return e.tolerance
}

// Toggle applies one click in document coordinates to store. pageCount bounds
// the valid page numbers.
func (e *Engine) Toggle(store *Store, pageCount, pageNum int, docX, docY float64, t Type) (*ToggleResult, error) {
	if pageNum < 0 || pageNum >= pageCount {
		return nil, Validation(CodeInvalidPage, fmt.Sprintf("Invalid page number: %d", pageNum))
	}
	if !t.Valid() {
		return nil, Validation(CodeInvalidType, fmt.Sprintf("Invalid annotation type: %q", t))
	}
	if !validCoordinate(docX) || !validCoordinate(docY) {
		return nil, Validation(CodeInvalidCoordinate, "Coordinates must be finite and non-negative")
	}

	if existing, found := store.Find(pageNum, docX, docY, t, e.tolerance); found {
		store.Remove(existing.ID)
		return &ToggleResult{Action: ActionRemoved, Record: existing, Counts: store.Counts()}, nil
	}

	record := store.NewRecord(pageNum, docX, docY, t)
	store.Insert(record)
	return &ToggleResult{Action: ActionAdded, Record: record, Counts: store.Counts()}, nil
}

// ToggleAt maps an image-space click onto the session's page and toggles it.
// The session's annotations are replaced with the updated list; on error the
// session is left as it was.
func (e *Engine) ToggleAt(session *Session, pageNum int, imageX, imageY float64, t Type) (*ToggleResult, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if pageNum < 0 || pageNum >= len(session.Pages) {
		return nil, Validation(CodeInvalidPage, fmt.Sprintf("Invalid page number: %d", pageNum))
	}
	if !t.Valid() {
		return nil, Validation(CodeInvalidType, fmt.Sprintf("Invalid annotation type: %q", t))
	}
	if !validCoordinate(imageX) || !validCoordinate(imageY) {
		return nil, Validation(CodeInvalidCoordinate, "Coordinates must be finite and non-negative")
	}
	docX, docY := MapToDocument(imageX, imageY, session.Pages[pageNum])

	store := NewStore(session.Annotations, e.storeOpts...)
	res, err := e.Toggle(store, len(session.Pages), pageNum, docX, docY, t)
	if err != nil {
		return nil, err
	}
	session.Annotations = store.List()
	return res, nil
}

func validCoordinate(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
