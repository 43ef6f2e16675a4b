package speech

import (
	"errors"
	"strings"
)

// ErrUnsupportedPlatform is returned when no speech recognition capability
// exists, or when microphone access was denied by the host environment.
var ErrUnsupportedPlatform = errors.New("speech recognition is not supported; please use Chrome or Edge")

// Recognizer abstracts the source of recognized speech segments. The
// production implementation is the browser's recognition engine, relayed
// segment by segment over the practice API.
type Recognizer interface {
	// Available reports whether the recognizer can capture speech
	Available() bool

	// Name returns the recognizer name (for logging)
	Name() string
}

// BrowserRecognizer represents the recognition capability reported by the
// user's browser when it opens the practice screen.
type BrowserRecognizer struct {
	Supported bool
}

func (r *BrowserRecognizer) Available() bool {
	return r.Supported
}

func (r *BrowserRecognizer) Name() string {
	return "browser"
}

// Capture is one start-to-stop speech capture session. Recognized segments
// are concatenated in arrival order into a single running transcript; each
// update replaces the full transcript value. A Capture is owned by exactly
// one practice attempt and is not safe for concurrent use on its own.
type Capture struct {
	recognizer Recognizer
	active     bool
	transcript string
}

// NewCapture creates a capture session backed by the given recognizer
func NewCapture(recognizer Recognizer) *Capture {
	return &Capture{recognizer: recognizer}
}

// Start begins continuous recognition. It fails with ErrUnsupportedPlatform
// when no recognition capability exists. Starting after a stop begins a
// fresh transcript unless one was explicitly seeded with SetTranscript.
func (c *Capture) Start() error {
	if c.recognizer == nil || !c.recognizer.Available() {
		return ErrUnsupportedPlatform
	}
	c.active = true
	c.transcript = ""
	return nil
}

// Stop ends the capture session. Safe to call when not active.
func (c *Capture) Stop() {
	c.active = false
}

// Active reports whether the capture session is recording
func (c *Capture) Active() bool {
	return c.active
}

// AddSegment appends a recognized segment to the transcript and returns the
// full updated transcript. Segments arriving while the session is not active
// are dropped.
func (c *Capture) AddSegment(segment string) string {
	if !c.active {
		return c.transcript
	}
	c.transcript += segment
	return c.transcript
}

// SetTranscript replaces the transcript. Manual text entry and edits are an
// equally valid transcript source and must be preserved.
func (c *Capture) SetTranscript(text string) {
	c.transcript = text
}

// Transcript returns the current transcript value
func (c *Capture) Transcript() string {
	return c.transcript
}

// Empty reports whether the transcript is empty after trimming whitespace
func (c *Capture) Empty() bool {
	return strings.TrimSpace(c.transcript) == ""
}
