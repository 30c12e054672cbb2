package contract

import (
	"context"

	"pdf-annotator-be/pkg/annotation"
)

// SessionRepository persists annotation sessions keyed by session id. Entries
// may expire at any time; a missing entry is reported as found == false.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*annotation.Session, bool, error)
	Save(ctx context.Context, session *annotation.Session) error
	Delete(ctx context.Context, id string) error
}
