package annotation

import "time"

// Type is the marker kind placed by a click.
type Type string

const (
	TypeTick     Type = "tick"
	TypeCross    Type = "cross"
	TypeBlueMark Type = "blue_mark"
)

// Types lists every supported marker in display order.
var Types = []Type{TypeTick, TypeCross, TypeBlueMark}

// Valid reports whether t is one of the enumerated marker types.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Record is one placed marker. X and Y are document-native points with the
// origin at the top-left corner of the page.
type Record struct {
	ID      string  `json:"id"`
	PageNum int     `json:"page_num"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Type    Type    `json:"type"`
}

// PageDescriptor holds the native page size and the scale used to rasterize it.
type PageDescriptor struct {
	PageNum     int     `json:"page_num"`
	OrigWidth   float64 `json:"orig_width"`
	OrigHeight  float64 `json:"orig_height"`
	RenderScale float64 `json:"render_scale"`
}

// Counts maps every marker type to the number of records of that type.
type Counts map[Type]int

// Session is the ephemeral per-upload state: one document, its pages and the
// markers placed on them.
type Session struct {
	ID          string           `json:"id"`
	DocumentRef string           `json:"document_ref"`
	Pages       []PageDescriptor `json:"pages"`
	Annotations []Record         `json:"annotations"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Clone returns a deep copy so callers never share slices across requests.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Pages = append([]PageDescriptor(nil), s.Pages...)
	c.Annotations = append([]Record(nil), s.Annotations...)
	return &c
}

// Validate checks that the session carries a document together with its page
// descriptors and that every marker indexes an existing page.
func (s *Session) Validate() error {
	if s == nil || s.DocumentRef == "" {
		return Precondition(CodeNoDocument, "no PDF loaded")
	}
	if len(s.Pages) == 0 {
		return Precondition(CodeNoDocument, "no page information for the loaded PDF")
	}
	for _, r := range s.Annotations {
		if r.PageNum < 0 || r.PageNum >= len(s.Pages) {
			return Precondition(CodeStaleSession, "annotation references a page outside the loaded PDF")
		}
	}
	return nil
}

// Reset drops the document reference, page descriptors and annotations.
func (s *Session) Reset() {
	s.DocumentRef = ""
	s.Pages = nil
	s.Annotations = nil
}
