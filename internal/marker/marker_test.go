package marker

import (
	"fmt"
	"strings"
	"testing"
)

func TestGenerateUnique(t *testing.T) {
	seenStart := make(map[string]bool, 10000)
	seenEnd := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		start, end := Generate()
		if seenStart[start] {
			t.Fatalf("duplicate start marker after %d generations: %s", i, start)
		}
		if seenEnd[end] {
			t.Fatalf("duplicate end marker after %d generations: %s", i, end)
		}
		seenStart[start] = true
		seenEnd[end] = true
	}
}

func TestGeneratePrefixesDistinct(t *testing.T) {
	start, end := Generate()
	if !strings.HasPrefix(start, "PP_EXEC_START_") {
		t.Errorf("start marker %q missing prefix", start)
	}
	if !strings.HasPrefix(end, "PP_EXEC_END_") {
		t.Errorf("end marker %q missing prefix", end)
	}
	if strings.HasPrefix(end, "PP_EXEC_START_") || strings.HasPrefix(start, "PP_EXEC_END_") {
		t.Error("start and end prefixes must never be confusable")
	}
}

func TestGenerateShellSafe(t *testing.T) {
	start, end := Generate()
	for _, m := range []string{start, end} {
		for _, r := range m {
			ok := r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			if !ok {
				t.Errorf("marker %q contains shell-unsafe rune %q", m, r)
			}
		}
	}
}

func TestWrapStructure(t *testing.T) {
	got := Wrap("pwd", "__START__", "__END__")
	want := "echo __START__; { pwd; } 2>&1; echo __END__:$?"
	if got != want {
		t.Errorf("Wrap = %q, want %q", got, want)
	}
}

func TestWrapPreservesCommand(t *testing.T) {
	cmd := "echo 'hello world' && ls | wc -l"
	got := Wrap(cmd, "__S__", "__E__")
	if !strings.Contains(got, cmd) {
		t.Errorf("wrapped fragment %q lost command text", got)
	}
}

func TestParseRoundTrip(t *testing.T) {
	outputs := map[string]string{
		"empty":      "",
		"single":     "hello",
		"multiline":  "line 1\nline 2\nline 3",
		"blanklines": "first\n\nthird",
	}
	codes := []int{0, 1, 127, 255}

	for name, output := range outputs {
		for _, code := range codes {
			t.Run(fmt.Sprintf("%s_%d", name, code), func(t *testing.T) {
				// Simulate what the shell prints for the wrapped fragment.
				var b strings.Builder
				b.WriteString("__START__\n")
				if output != "" {
					b.WriteString(output)
					b.WriteString("\n")
				}
				b.WriteString(fmt.Sprintf("__END__:%d", code))

				res := Parse(b.String(), "__START__", "__END__")
				if res.Output != output {
					t.Errorf("output = %q, want %q", res.Output, output)
				}
				if res.ExitCode != code {
					t.Errorf("exit code = %d, want %d", res.ExitCode, code)
				}
			})
		}
	}
}

func TestParseMissingMarkers(t *testing.T) {
	captured := "some output without any markers"
	res := Parse(captured, "__START__", "__END__")
	if res.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", res.ExitCode)
	}
	if res.Output != captured {
		t.Errorf("output = %q, want full capture", res.Output)
	}
}

func TestParseUsesLastEndMarker(t *testing.T) {
	captured := "__START__\nfake __END__:99 inside output\nreal tail\n__END__:0"
	res := Parse(captured, "__START__", "__END__")
	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
	if !strings.Contains(res.Output, "fake __END__:99 inside output") {
		t.Errorf("output %q lost marker-like text", res.Output)
	}
	if !strings.Contains(res.Output, "real tail") {
		t.Errorf("output %q lost tail", res.Output)
	}
}

func TestParseScrolledStartFallback(t *testing.T) {
	// Start marker scrolled out of the capture window: anchor on the end
	// marker and return everything before it.
	captured := "tail of long output\nlast line\n__END__:3"
	res := Parse(captured, "__START__", "__END__")
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
	if res.Output != "tail of long output\nlast line" {
		t.Errorf("output = %q", res.Output)
	}
}

func TestParseMalformedTrailer(t *testing.T) {
	captured := "__START__\noutput\n__END__:notanumber"
	res := Parse(captured, "__START__", "__END__")
	if res.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1 for malformed trailer", res.ExitCode)
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		name               string
		captured           string
		wantStart, wantEnd bool
	}{
		{"both", "__START__\nout\n__END__:0", true, true},
		{"only_end", "scrolled\n__END__:0", false, true},
		{"only_start", "__START__\nstill running...", true, false},
		{"neither", "unrelated", false, false},
		{"end_without_colon", "__START__\nout\n__END__", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hasStart, hasEnd := Find(tt.captured, "__START__", "__END__")
			if hasStart != tt.wantStart || hasEnd != tt.wantEnd {
				t.Errorf("Find = (%v, %v), want (%v, %v)", hasStart, hasEnd, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestFindEndAnyExitCode(t *testing.T) {
	for _, code := range []int{0, 1, 127, 255} {
		_, hasEnd := Find(fmt.Sprintf("__END__:%d", code), "__START__", "__END__")
		if !hasEnd {
			t.Errorf("end marker with code %d not detected", code)
		}
	}
}

func TestStripArtifacts(t *testing.T) {
	output := "echo __START__; { pwd; } 2>&1; echo __END__:$?\n/home/user\n stty echo\n__END__:0"
	got := StripArtifacts(output, "__START__", "__END__")
	if got != "/home/user" {
		t.Errorf("StripArtifacts = %q, want %q", got, "/home/user")
	}
}

func TestStripArtifactsKeepsCleanOutput(t *testing.T) {
	output := "line 1\nline 2"
	if got := StripArtifacts(output, "__START__", "__END__"); got != output {
		t.Errorf("StripArtifacts mangled clean output: %q", got)
	}
}
