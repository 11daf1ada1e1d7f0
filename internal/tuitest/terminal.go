package tuitest

import (
	"bytes"
	"io"
)

// terminalReply pairs a query a TUI may send with the answer a real
// terminal would give. Without answers some programs stall at startup.
type terminalReply struct {
	query  []byte
	answer []byte
}

var terminalReplies = []terminalReply{
	{query: []byte("\x1b[6n"), answer: []byte("\x1b[1;1R")},
	{query: []byte("\x1b]10;?\x07"), answer: []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{query: []byte("\x1b]10;?\x1b\\"), answer: []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{query: []byte("\x1b]11;?\x07"), answer: []byte("\x1b]11;rgb:0000/0000/0000\x07")},
	{query: []byte("\x1b]11;?\x1b\\"), answer: []byte("\x1b]11;rgb:0000/0000/0000\x1b\\")},
}

type terminalResponder struct {
	w   io.Writer
	buf []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, buf: make([]byte, 0, 128)}
}

func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for tr.answerNext() {
	}
	// Keep a small tail so we can detect sequences that span reads.
	if len(tr.buf) > 256 {
		tr.buf = tr.buf[len(tr.buf)-64:]
	}
}

// answerNext replies to the earliest pending query in the buffer.
func (tr *terminalResponder) answerNext() bool {
	first, at := -1, -1
	for i, reply := range terminalReplies {
		idx := bytes.Index(tr.buf, reply.query)
		if idx >= 0 && (at < 0 || idx < at) {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	reply := terminalReplies[first]
	tr.buf = tr.buf[at+len(reply.query):]
	_, _ = tr.w.Write(reply.answer)
	return true
}
