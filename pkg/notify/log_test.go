package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Sternrassler/uk-petitions/pkg/monitor"
	"github.com/Sternrassler/uk-petitions/pkg/petition"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf).Level(zerolog.InfoLevel))

	cur := &petition.Petition{ID: 42, Action: "Save the pier", SignatureCount: 120}
	old := &petition.Petition{ID: 42, SignatureCount: 100}

	sink.Handle(monitor.Event{Name: monitor.EventUpdatedPetition, Petition: cur, Old: old})
	sink.Handle(monitor.Event{Name: monitor.EventError, Err: errors.New("bad gateway")})
	sink.Handle(monitor.Event{Name: monitor.EventLoaded})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2, "loaded is logged at debug level")

	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, monitor.EventUpdatedPetition, lines[0]["event"])
	assert.EqualValues(t, 42, lines[0]["petition_id"])
	assert.EqualValues(t, 20, lines[0]["signature_diff"])

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "bad gateway", lines[1]["error"])
}
