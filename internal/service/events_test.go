package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"pdf-annotator-be/internal/pkg/logger"
	"pdf-annotator-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditEntry struct {
	level   string
	message string
	details map[string]interface{}
}

type captureLogger struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (l *captureLogger) record(level, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, auditEntry{level, message, details})
}

func (l *captureLogger) Debug(module, message string, details map[string]interface{}) {}
func (l *captureLogger) Info(module, message string, details map[string]interface{}) {
	l.record("info", message, details)
}
func (l *captureLogger) Warn(module, message string, details map[string]interface{}) {
	l.record("warn", message, details)
}
func (l *captureLogger) Error(module, message string, details map[string]interface{}) {
	l.record("error", message, details)
}
func (l *captureLogger) Sync() error { return nil }

func (l *captureLogger) snapshot() []auditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]auditEntry(nil), l.entries...)
}

var _ logger.ILogger = (*captureLogger)(nil)

func TestPublisherService_PublishesEnvelope(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := pubSub.Subscribe(ctx, "test.events")
	require.NoError(t, err)

	pub := NewPublisherService("test.events", pubSub, nil, logger.NewNopLogger())
	require.NoError(t, pub.Publish(ctx, events.New(events.TypeAnnotationToggled, map[string]interface{}{
		"session_id": "s1",
		"action":     "added",
	})))

	select {
	case msg := <-messages:
		assert.Equal(t, events.TypeAnnotationToggled, msg.Metadata.Get("type"))
		var env events.Envelope
		require.NoError(t, json.Unmarshal(msg.Payload, &env))
		assert.Equal(t, events.TypeAnnotationToggled, env.Type)
		assert.Equal(t, "s1", env.Data["session_id"])
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestConsumerService_WritesAuditEntries(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	audit := &captureLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, NewConsumerService(pubSub, "test.events", audit).Consume(ctx))

	pub := NewPublisherService("test.events", pubSub, nil, logger.NewNopLogger())
	require.NoError(t, pub.Publish(ctx, events.New(events.TypeDocumentExported, map[string]interface{}{
		"session_id": "s1",
	})))

	assert.Eventually(t, func() bool { return len(audit.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	entry := audit.snapshot()[0]
	assert.Equal(t, "info", entry.level)
	assert.Equal(t, events.TypeDocumentExported, entry.message)
	assert.Equal(t, "s1", entry.details["session_id"])
	assert.Contains(t, entry.details, "occurred_at")
}
