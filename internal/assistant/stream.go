package assistant

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Frame is one decoded event from the answer stream. Exactly one of the three
// shapes is populated: a chunk, a done marker carrying the full answer, or an
// error message.
type Frame struct {
	Chunk      string `json:"chunk"`
	Done       bool   `json:"done"`
	FullAnswer string `json:"full_answer"`
	Error      string `json:"error"`
}

// Terminal reports whether the frame ends the stream.
func (f Frame) Terminal() bool {
	return f.Done || f.Error != ""
}

// FrameDecoder turns a byte stream of newline-delimited protocol lines into
// frames. Reads may end anywhere, including mid-line; the unconsumed tail is
// buffered until its newline arrives, and a final unterminated line is still
// decoded. The frame sequence is finite and cannot be restarted.
//
// Payload lines carry JSON, optionally prefixed with the "data:" marker.
// Event-name lines, comment lines and blank keep-alive lines are skipped;
// dispatch happens on the payload shape, not the advisory event name.
type FrameDecoder struct {
	reader *bufio.Reader
	done   bool
}

func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{reader: bufio.NewReader(r)}
}

// Next returns the next frame in the sequence. io.EOF signals a source that
// ended without a terminal frame; after a terminal frame every further call
// returns io.EOF.
func (d *FrameDecoder) Next() (Frame, error) {
	if d.done {
		return Frame{}, io.EOF
	}

	for {
		line, err := d.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return Frame{}, fmt.Errorf("failed to read stream: %w", err)
		}
		atEOF := err == io.EOF

		trimmed := strings.TrimSpace(line)
		if payload, ok := payloadLine(trimmed); ok {
			var frame Frame
			if err := json.Unmarshal([]byte(payload), &frame); err != nil {
				return Frame{}, fmt.Errorf("malformed stream payload %q: %w", payload, err)
			}
			if frame.Terminal() {
				d.done = true
			}
			return frame, nil
		}

		if atEOF {
			d.done = true
			return Frame{}, io.EOF
		}
	}
}

// payloadLine extracts the JSON payload from a protocol line, reporting false
// for lines that carry no payload.
func payloadLine(line string) (string, bool) {
	switch {
	case line == "":
		return "", false
	case strings.HasPrefix(line, ":"):
		return "", false
	case strings.HasPrefix(line, "event:"):
		return "", false
	case strings.HasPrefix(line, "id:"):
		return "", false
	case strings.HasPrefix(line, "retry:"):
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, "data:")), true
}

// Stream is a live answer stream over an open response body.
type Stream struct {
	body    io.ReadCloser
	decoder *FrameDecoder
}

func NewStream(body io.ReadCloser) *Stream {
	return &Stream{
		body:    body,
		decoder: NewFrameDecoder(body),
	}
}

// Recv returns the next frame; see FrameDecoder.Next for the sequence rules.
func (s *Stream) Recv() (Frame, error) {
	return s.decoder.Next()
}

func (s *Stream) Close() error {
	return s.body.Close()
}
