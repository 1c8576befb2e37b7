package statement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func TestLogObserver_WritesDebugEntries(t *testing.T) {
	core, logs := zapobserver.New(zapcore.DebugLevel)
	observer := NewLogObserver(zap.New(core))

	observer.Observe(context.Background(), Event{
		RunID:          "run-1",
		StatementID:    "stmt-1",
		Decision:       DecisionLineEmitted,
		DocumentNumber: "INV/001",
		Rate:           dec("20"),
		Base:           dec("100"),
		Tax:            dec("20"),
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "line_emitted", fields["decision"])
	assert.Equal(t, "100", fields["base"])
}

func TestLogObserver_SilentAboveDebug(t *testing.T) {
	core, logs := zapobserver.New(zapcore.InfoLevel)
	observer := NewLogObserver(zap.New(core))

	observer.Observe(context.Background(), Event{Decision: DecisionDocumentSelected})

	assert.Equal(t, 0, logs.Len())
}
