package tuitest

import (
	"regexp"
	"strings"
)

// Frame is one full-screen render. Raw keeps the escape sequences and Text
// is what a reader would see, with trailing blanks removed.
type Frame struct {
	Index int
	Raw   string
	Text  string
}

var (
	clearScreen = regexp.MustCompile(`\x1b\[[0-9;]*J`)
	escapeSeq   = regexp.MustCompile(`\x1b\][^\x07]*(?:\x07|\x1b\\)|\x1b\[[0-9;?]*[A-Za-z]|[\x0e\x0f]`)
)

// splitFrames cuts the terminal stream at every screen clear and drops
// renders with no visible text.
func splitFrames(raw []byte) []Frame {
	stream := strings.ReplaceAll(string(raw), "\r", "")
	var frames []Frame
	for _, chunk := range clearScreen.Split(stream, -1) {
		chunk = strings.TrimPrefix(strings.Trim(chunk, "\x00"), "\x1b[H")
		text := visibleText(chunk)
		if text == "" {
			continue
		}
		frames = append(frames, Frame{Index: len(frames), Raw: chunk, Text: text})
	}
	return frames
}

// Last returns the final render.
func (r *Recording) Last() (Frame, bool) {
	if r == nil || len(r.Frames) == 0 {
		return Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

// Find returns the first render showing text.
func (r *Recording) Find(text string) (Frame, bool) {
	if r == nil {
		return Frame{}, false
	}
	for _, frame := range r.Frames {
		if strings.Contains(frame.Text, text) {
			return frame, true
		}
	}
	return Frame{}, false
}

func stripEscapes(s string) string {
	return escapeSeq.ReplaceAllString(s, "")
}

func visibleText(s string) string {
	lines := strings.Split(stripEscapes(s), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
