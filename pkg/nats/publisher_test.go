package nats

import (
	"testing"
	"time"

	"pdf-annotator-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "annotator.DOCUMENT_EXPORTED", Subject(DefaultSubjectPrefix, events.TypeDocumentExported))
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{URL: "nats://localhost:4222"}.withDefaults()
	assert.Equal(t, DefaultStream, cfg.Stream)
	assert.Equal(t, DefaultSubjectPrefix, cfg.SubjectPrefix)
	assert.Equal(t, 7*24*time.Hour, cfg.MaxAge)

	cfg = Config{Stream: "CUSTOM", SubjectPrefix: "pdf", MaxAge: time.Hour}.withDefaults()
	assert.Equal(t, "CUSTOM", cfg.Stream)
	assert.Equal(t, "pdf", cfg.SubjectPrefix)
	assert.Equal(t, time.Hour, cfg.MaxAge)
}
