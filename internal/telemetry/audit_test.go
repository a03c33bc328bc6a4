package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"message-service/internal/mocks"
)

func TestEmitPublishesEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, "audit.messages", mock.MatchedBy(func(e AuditEnvelope) bool {
		return e.SchemaVersion == 1 &&
			e.EventType == "audit_log" &&
			e.Service == "message-service" &&
			e.Username == "alice" &&
			e.Payload.Level == "INFO" &&
			e.Payload.Text == "group created"
	})).Return(nil).Once()

	emitter := NewAuditEmitter(publisher, "audit.messages", "message-service", "test")
	emitter.Emit(context.Background(), "INFO", "group created", "req-1", "alice")

	publisher.AssertExpectations(t)
}

func TestNilEmitterIsSafe(t *testing.T) {
	var emitter *AuditEmitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "noop", "req-1", "alice")
	})
}
