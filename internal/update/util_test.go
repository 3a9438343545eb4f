package update

import "testing"

func TestEscapeAppleScript(t *testing.T) {
	cases := map[string]string{
		`plain`:                 `plain`,
		`say "hi"`:              `say \"hi\"`,
		`C:\tmp`:                `C:\\tmp`,
		`bad \" end`:            `bad \\\" end`,
		`gemini: 400 {"a":"b"}`: `gemini: 400 {\"a\":\"b\"}`,
	}
	for in, want := range cases {
		if got := escapeAppleScript(in); got != want {
			t.Fatalf("escapeAppleScript(%q) = %q, want %q", in, got, want)
		}
	}
}
