package log

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestLevelFromDebug(t *testing.T) {
	cases := []struct {
		debug int
		want  zerolog.Level
	}{
		{0, zerolog.InfoLevel},
		{-1, zerolog.InfoLevel},
		{1, zerolog.DebugLevel},
		{2, zerolog.TraceLevel},
		{5, zerolog.TraceLevel},
	}
	for _, c := range cases {
		if got := levelFromDebug(c.debug); got != c.want {
			t.Fatalf("levelFromDebug(%d) = %v, want %v", c.debug, got, c.want)
		}
	}
}

func TestNewDefaultDebugIsInfoLevel(t *testing.T) {
	l := New(0, false)
	if l.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("level = %v, want InfoLevel", l.GetLevel())
	}
}
