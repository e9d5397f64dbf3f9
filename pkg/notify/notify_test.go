package notify

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		kind  Kind
		level Level
	}{
		{KindSignSuccess, LevelSuccess},
		{KindVerifyValid, LevelSuccess},
		{KindSignFailure, LevelError},
		{KindVerifyInvalid, LevelError},
		{KindVerifyFailure, LevelError},
		{KindPersistenceFailure, LevelError},
		{KindCleared, LevelInfo},
		{KindHistoryCleared, LevelInfo},
		{KindSignatureCopied, LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.level, LevelFor(tt.kind))
			assert.Equal(t, tt.level, NewEvent(tt.kind, "m", nil).Level)
		})
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	sink.Notify(NewEvent(KindSignSuccess, "Message signed!", nil))
	sink.Notify(NewEvent(KindVerifyInvalid, "Signature is invalid!", nil))
	sink.Notify(NewEvent(KindCleared, "Cleared", nil))

	assert.Equal(t, "✅ Message signed!\n❌ Signature is invalid!\n🧹 Cleared\n", buf.String())
}

func TestLoggerSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLoggerSink(zap.New(core))

	sink.Notify(NewEvent(KindSignSuccess, "Message signed!", nil))
	sink.Notify(NewEvent(KindSignFailure, "Signing failed!", fmt.Errorf("connection refused")))

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "Message signed!", entries[0].Message)

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "connection refused", entries[1].ContextMap()["error"])
}

func TestMultiSink_FansOutInOrder(t *testing.T) {
	first := &RecordingSink{}
	second := &RecordingSink{}
	sink := MultiSink{first, nil, second}

	sink.Notify(NewEvent(KindCleared, "Cleared", nil))
	sink.Notify(NewEvent(KindHistoryCleared, "History cleared", nil))

	assert.Equal(t, []Kind{KindCleared, KindHistoryCleared}, first.Kinds())
	assert.Equal(t, first.Events(), second.Events())
}

func TestRecordingSink_Concurrent(t *testing.T) {
	sink := &RecordingSink{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.Notify(NewEvent(KindSignSuccess, "ok", nil))
		}()
	}
	wg.Wait()

	assert.Len(t, sink.Events(), 20)
	NopSink{}.Notify(NewEvent(KindSignSuccess, "ignored", nil))
}
