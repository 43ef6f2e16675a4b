package practice

import (
	"context"
	"errors"
	"sync"

	"speakcoach/internal/models"
	"speakcoach/internal/speech"
)

// State of a practice attempt
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateReviewing State = "reviewing"
	StateAnalyzing State = "analyzing"
	StateFeedback  State = "feedback"
)

var (
	ErrAlreadyRecording = errors.New("recording is already in progress")
	ErrAnalysisInFlight = errors.New("analysis is already in progress")
	ErrEmptyTranscript  = errors.New("please record or type your answer first")
	ErrAttemptClosed    = errors.New("practice attempt has ended")
)

// Evaluator produces structured feedback for a transcript
type Evaluator interface {
	Evaluate(ctx context.Context, questionText, tipText, transcript string) (*models.EvaluationResult, error)
}

// ResultSaver persists an evaluation outcome
type ResultSaver interface {
	SaveResult(userID, questionID int64, transcript string, result *models.EvaluationResult) (*models.StoredResult, error)
}

// Snapshot is a point-in-time view of an attempt, used for rendering
type Snapshot struct {
	State      State
	Transcript string
	Feedback   *models.EvaluationResult
	Error      string
	SaveError  string
}

// Controller owns the state machine for one question attempt: capture,
// evaluation, persistence and display. At most one evaluation request is in
// flight per controller; persistence is attempted only after evaluation
// succeeds and its failure never hides the feedback already produced.
type Controller struct {
	userID    int64
	question  models.Question
	evaluator Evaluator
	saver     ResultSaver

	mu        sync.Mutex
	state     State
	capture   *speech.Capture
	feedback  *models.EvaluationResult
	errMsg    string
	saveErr   string
	closed    bool
}

// NewController creates a controller for one user's attempt at a question
func NewController(userID int64, question models.Question, evaluator Evaluator, saver ResultSaver) *Controller {
	return &Controller{
		userID:    userID,
		question:  question,
		evaluator: evaluator,
		saver:     saver,
		state:     StateIdle,
		capture:   speech.NewCapture(nil),
	}
}

// StartRecording begins a fresh capture session. When recognition is
// unsupported the state is unchanged and the error is surfaced inline.
func (c *Controller) StartRecording(recognizer speech.Recognizer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAttemptClosed
	}
	switch c.state {
	case StateRecording:
		return ErrAlreadyRecording
	case StateAnalyzing:
		return ErrAnalysisInFlight
	}

	capture := speech.NewCapture(recognizer)
	if err := capture.Start(); err != nil {
		c.errMsg = err.Error()
		return err
	}

	c.capture = capture
	c.state = StateRecording
	c.errMsg = ""
	return nil
}

// AddSegment appends a recognized speech segment and returns the full
// updated transcript
func (c *Controller) AddSegment(segment string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrAttemptClosed
	}
	return c.capture.AddSegment(segment), nil
}

// StopRecording ends capture and moves to reviewing, regardless of how much
// (if anything) was transcribed. Safe to call when not recording.
func (c *Controller) StopRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.capture.Stop()
	if c.state == StateRecording {
		c.state = StateReviewing
	}
}

// EditTranscript replaces the transcript with manually entered text. Allowed
// at any point before analysis; a typed answer is as valid as a spoken one.
func (c *Controller) EditTranscript(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAttemptClosed
	}
	if c.state == StateAnalyzing {
		return ErrAnalysisInFlight
	}

	c.capture.SetTranscript(text)
	if c.state == StateIdle || c.state == StateRecording {
		c.capture.Stop()
		c.state = StateReviewing
	}
	return nil
}

// Analyze runs the evaluation round trip: transcript -> analysis service ->
// result store. On evaluation failure the attempt returns to reviewing with
// the transcript intact so the user can retry. A persistence failure is
// recorded separately and does not block the feedback transition.
func (c *Controller) Analyze(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAttemptClosed
	}
	if c.state == StateAnalyzing {
		c.mu.Unlock()
		return ErrAnalysisInFlight
	}
	if c.capture.Empty() {
		c.errMsg = ErrEmptyTranscript.Error()
		c.mu.Unlock()
		return ErrEmptyTranscript
	}

	transcript := c.capture.Transcript()
	c.capture.Stop()
	c.state = StateAnalyzing
	c.errMsg = ""
	c.mu.Unlock()

	result, err := c.evaluator.Evaluate(ctx, c.question.QuestionText, c.question.Tips, transcript)

	c.mu.Lock()
	if c.closed {
		// User navigated away mid-flight; discard whatever came back
		c.mu.Unlock()
		return ErrAttemptClosed
	}
	if err != nil {
		c.state = StateReviewing
		c.errMsg = err.Error()
		c.mu.Unlock()
		return err
	}

	c.feedback = result
	c.state = StateFeedback
	c.saveErr = ""
	c.mu.Unlock()

	if _, saveErr := c.saver.SaveResult(c.userID, c.question.ID, transcript, result); saveErr != nil {
		c.mu.Lock()
		c.saveErr = saveErr.Error()
		c.mu.Unlock()
	}

	return nil
}

// Clear discards the transcript and feedback for a fresh attempt at the
// same question
func (c *Controller) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAttemptClosed
	}
	if c.state == StateAnalyzing {
		return ErrAnalysisInFlight
	}

	c.capture.Stop()
	c.capture.SetTranscript("")
	c.feedback = nil
	c.errMsg = ""
	c.saveErr = ""
	c.state = StateReviewing
	return nil
}

// Close ends the attempt, stopping any in-flight recording. The result of an
// evaluation still in flight is discarded when it completes.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.capture.Stop()
	c.closed = true
}

// Snapshot returns the current attempt state for rendering
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:      c.state,
		Transcript: c.capture.Transcript(),
		Feedback:   c.feedback,
		Error:      c.errMsg,
		SaveError:  c.saveErr,
	}
}

// Question returns the question this attempt is for
func (c *Controller) Question() models.Question {
	return c.question
}
