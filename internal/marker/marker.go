// Package marker implements the in-band protocol that turns a scrolling
// terminal into a request/response channel.
//
// A command is wrapped between a unique start and end token before it is
// sent to the shell. The end token carries the command's exit status, so a
// later capture of the pane can be parsed back into {output, exit code}
// without any cooperation from the program that ran.
package marker

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	startPrefix = "PP_EXEC_START_"
	endPrefix   = "PP_EXEC_END_"
)

// seq disambiguates calls that land on the same nanosecond timestamp.
var seq atomic.Uint64

// Result is the parsed outcome of one wrapped execution.
// ExitCode is -1 when the protocol could not determine a result
// (markers missing or a malformed trailer).
type Result struct {
	Output   string
	ExitCode int
}

// Generate returns a fresh (start, end) marker pair. Markers are unique
// within the process lifetime (pid + nanosecond timestamp + sequence) and
// contain only alphanumerics and underscores, so they pass through any
// POSIX shell unquoted. Each pair must be used for exactly one execution.
func Generate() (start, end string) {
	id := fmt.Sprintf("%d_%d_%d", os.Getpid(), time.Now().UnixNano(), seq.Add(1))
	return startPrefix + id, endPrefix + id
}

// Wrap builds the shell fragment for one execution:
//
//	echo <start>; { <command>; } 2>&1; echo <end>:$?
//
// The command runs in a group with stderr merged into stdout so failures
// are visible in the capture, and the exit status is printed immediately
// after the group before anything else can reset $?. This is the only
// place in the codebase that assembles marker shell fragments.
func Wrap(command, start, end string) string {
	return fmt.Sprintf("echo %s; { %s; } 2>&1; echo %s:$?", start, command, end)
}

// Parse extracts the command output and exit code from captured pane text.
//
// The start marker is located at its first occurrence; the end marker at
// the last occurrence of end+":" so that command output containing
// marker-like text does not truncate the result. If the start marker has
// scrolled out of the capture window but the end marker is present,
// everything before the end-marker line is returned as output: the caller
// gets at least the surviving tail of the real output rather than a
// spurious failure.
func Parse(captured, start, end string) Result {
	endSearch := end + ":"
	endIdx := strings.LastIndex(captured, endSearch)
	if endIdx < 0 {
		// No end marker: still running or timed out.
		return Result{Output: captured, ExitCode: -1}
	}

	outStart := 0
	if startIdx := strings.Index(captured, start); startIdx >= 0 {
		outStart = startIdx + len(start)
		if outStart < len(captured) && captured[outStart] == '\n' {
			outStart++
		}
	}
	if outStart > endIdx {
		outStart = endIdx
	}
	output := strings.TrimRight(captured[outStart:endIdx], "\n")

	// The trailer is everything after the final ':' on the end-marker line.
	trailer := captured[endIdx:]
	if nl := strings.IndexByte(trailer, '\n'); nl >= 0 {
		trailer = trailer[:nl]
	}
	codeStr := trailer[strings.LastIndexByte(trailer, ':')+1:]
	code, err := strconv.Atoi(strings.TrimSpace(codeStr))
	if err != nil {
		code = -1
	}
	return Result{Output: output, ExitCode: code}
}

// Find reports which markers are present in a capture. It is the cheap
// check run on every poll iteration. hasEnd requires the ":" exit-status
// suffix; hasStart is a plain substring match because a still-running
// command shows only the start marker, which is progress, not failure.
func Find(captured, start, end string) (hasStart, hasEnd bool) {
	return strings.Contains(captured, start), strings.Contains(captured, end+":")
}

// StripArtifacts removes residual protocol text from an already-parsed
// output: echoed wrapper fragments and stray marker lines that survive
// when the terminal re-renders the transmitted command. Used by the clean
// execution mode.
func StripArtifacts(output, start, end string) string {
	lines := strings.Split(output, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, start) || strings.Contains(line, end) {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "stty ") || strings.HasPrefix(trimmed, "stty\t") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}
