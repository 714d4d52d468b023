package sse

import "strings"

// LineFramer turns a stream of arbitrarily sized chunks into complete lines.
// Network reads can split a line, a UTF-8 sequence, or a whole event across
// chunk boundaries; the framer holds back whatever follows the last newline
// until more data arrives. It splits on '\n' only and never strips '\r'.
type LineFramer struct {
	rest string
}

// Feed appends chunk to the retained remainder and returns every complete
// line now available. Bytes after the last newline are kept for the next call.
func (f *LineFramer) Feed(chunk string) []string {
	data := f.rest + chunk
	if !strings.Contains(data, "\n") {
		f.rest = data
		return nil
	}
	parts := strings.Split(data, "\n")
	f.rest = parts[len(parts)-1]
	return parts[:len(parts)-1]
}

// Flush returns the trailing partial line, if any, as a line without a
// terminator. Call it once at end-of-stream.
func (f *LineFramer) Flush() (string, bool) {
	if f.rest == "" {
		return "", false
	}
	line := f.rest
	f.rest = ""
	return line, true
}
