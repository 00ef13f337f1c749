package logger

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	mu       sync.Mutex
	messages []string
}

func (h *recordingHub) Broadcast(msgType string, _ any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgType)
	return nil
}

func TestRingBuffer_Wraps(t *testing.T) {
	rb := NewRingBuffer[int](3)
	assert.Empty(t, rb.GetAll())

	for i := 1; i <= 5; i++ {
		rb.Push(i)
	}

	assert.Equal(t, []int{3, 4, 5}, rb.GetAll())
	assert.Equal(t, 3, rb.Len())
}

func TestRingBuffer_Partial(t *testing.T) {
	rb := NewRingBuffer[string](4)
	rb.Push("a")
	rb.Push("b")

	assert.Equal(t, []string{"a", "b"}, rb.GetAll())
	assert.Equal(t, 2, rb.Len())
}

func TestLogger_JSONOutputAndStreaming(t *testing.T) {
	var out bytes.Buffer
	log := New(Config{
		Level:           "info",
		Format:          "json",
		EnableStreaming: true,
		BufferSize:      10,
		Console:         &out,
	})

	hub := &recordingHub{}
	log.SetBroadcastHub(hub)

	log.WithComponent("catalog").Info().Str("category", "favourite").Msg("loaded")
	log.Debug().Msg("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.Split(out.Bytes(), []byte("\n"))[0], &line))
	assert.Equal(t, "loaded", line["message"])
	assert.Equal(t, "catalog", line["component"])

	recent := log.GetRecentLogs()
	require.Len(t, recent, 1)
	assert.Equal(t, "catalog", recent[0].Component)
	assert.Equal(t, "info", recent[0].Level)
	assert.Equal(t, "favourite", recent[0].Fields["category"])

	assert.Equal(t, []string{"logs:entry"}, hub.messages)
}

func TestLogger_FileRotation(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Path: dir, Console: &out})
	defer log.Close()

	log.Info().Msg("to file")
	require.NotNil(t, log.rotator)
	assert.Contains(t, log.rotator.Filename, "movieontip.log")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"trace":   "trace",
		"DEBUG":   "debug",
		"warning": "warn",
		"bogus":   "info",
	}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
