package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":         zerolog.InfoLevel,
		"INFO":     zerolog.InfoLevel,
		"debug":    zerolog.DebugLevel,
		"WARNING":  zerolog.WarnLevel,
		" error ":  zerolog.ErrorLevel,
		"CRITICAL": zerolog.FatalLevel,
		"verbose":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNew_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "prod", "info")

	log.Debug().Msg("hidden")
	log.Info().Str("k", "v").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "v", line["k"])
	assert.Contains(t, line, "time")
}

func TestNew_DevWritesConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "dev", "debug")

	log.Debug().Msg("visible in dev")

	assert.Contains(t, buf.String(), "visible in dev")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
