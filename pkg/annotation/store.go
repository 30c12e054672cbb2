package annotation

import "github.com/google/uuid"

// Store is the ordered collection of markers for one session. Iteration order
// is insertion order.
type Store struct {
	records []Record
	newID   func() string
}

type StoreOption func(*Store)

// WithIDGenerator replaces the uuid-based id source.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		s.newID = fn
	}
}

// NewStore builds a store from previously persisted records. Records saved
// before ids existed get one here, before any lookup touches them.
func NewStore(records []Record, opts ...StoreOption) *Store {
	s := &Store{
		records: append([]Record(nil), records...),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.migrateIDs()
	return s
}

func (s *Store) migrateIDs() {
	seen := make(map[string]bool, len(s.records))
	for i := range s.records {
		id := s.records[i].ID
		if id == "" || seen[id] {
			id = s.newID()
			s.records[i].ID = id
		}
		seen[id] = true
	}
}

// NewRecord creates a record with a fresh id. It is not inserted.
func (s *Store) NewRecord(pageNum int, x, y float64, t Type) Record {
	return Record{
		ID:      s.newID(),
		PageNum: pageNum,
		X:       x,
		Y:       y,
		Type:    t,
	}
}

// List returns a copy of the records in insertion order.
func (s *Store) List() []Record {
	return append([]Record(nil), s.records...)
}

func (s *Store) Len() int {
	return len(s.records)
}

// Counts returns the number of records per type. Every type is present.
func (s *Store) Counts() Counts {
	counts := make(Counts, len(Types))
	for _, t := range Types {
		counts[t] = 0
	}
	for _, r := range s.records {
		counts[r.Type]++
	}
	return counts
}

// Insert appends r. Inserting an id that is already present replaces nothing
// and leaves the store unchanged.
func (s *Store) Insert(r Record) {
	for _, existing := range s.records {
		if existing.ID == r.ID {
			return
		}
	}
	s.records = append(s.records, r)
}

// Remove deletes the record with the given id. Unknown ids are ignored.
func (s *Store) Remove(id string) bool {
	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the earliest-inserted record of type t on pageNum whose
// distance to (x, y) is at most tolerance.
func (s *Store) Find(pageNum int, x, y float64, t Type, tolerance float64) (Record, bool) {
	limit := tolerance * tolerance
	for _, r := range s.records {
		if r.PageNum != pageNum || r.Type != t {
			continue
		}
		dx := r.X - x
		dy := r.Y - y
		if dx*dx+dy*dy <= limit {
			return r, true
		}
	}
	return Record{}, false
}

func (s *Store) Clear() {
	s.records = nil
}
