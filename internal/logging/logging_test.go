package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"err":     slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestNewRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	lg, err := New(Options{Level: "info", JSON: true, Writer: &buf})
	require.NoError(t, err)

	lg.Info("login", "username", "admin1", "password", "adminpass123", "token", "abcdef0123")
	lg.Info("mail", "tracking_url", "https://shop/track-order?token=eyJhbGciOiJIUzI1NiJ9.body.sig")

	out := buf.String()
	require.Contains(t, out, "admin1")
	require.NotContains(t, out, "adminpass123")
	require.NotContains(t, out, "abcdef")
	require.NotContains(t, out, "eyJhbGciOiJIUzI1NiJ9")
	require.Contains(t, out, Redacted)
}
