package logging

import (
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != FormatJSON {
		t.Error("ParseFormat(json) should be FormatJSON")
	}
	if ParseFormat("text") != FormatText {
		t.Error("ParseFormat(text) should be FormatText")
	}
	if ParseFormat("") != FormatText {
		t.Error("ParseFormat default should be FormatText")
	}
}

func TestInitLoggerReplacesDefault(t *testing.T) {
	InitLogger(LevelDebug, FormatJSON)
	first := GetLogger()
	if first == nil {
		t.Fatal("GetLogger returned nil")
	}

	InitLogger(LevelError, FormatText)
	if GetLogger() == first {
		t.Error("InitLogger should install a fresh logger")
	}

	// Restore defaults for other tests.
	InitLogger(LevelInfo, FormatText)
}

func TestEventHelpersDoNotPanic(t *testing.T) {
	InitLogger(LevelDebug, FormatText)

	ProvisionEvent("cuv", "copy", "bytes", 1024)
	SwitchEvent("cuv", "asv", 0)
	OverlayError("highlights", errTest)
	QueryEvent("cuv", "verses", 0, "book", 1, "chapter", 1)
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "test error" }
