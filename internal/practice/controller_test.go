package practice

import (
	"context"
	"errors"
	"testing"
	"time"

	"speakcoach/internal/models"
	"speakcoach/internal/speech"
)

type fakeEvaluator struct {
	result  *models.EvaluationResult
	err     error
	calls   int
	block   chan struct{} // when set, Evaluate waits until it is closed
	started chan struct{} // closed when Evaluate begins
}

func (e *fakeEvaluator) Evaluate(ctx context.Context, questionText, tipText, transcript string) (*models.EvaluationResult, error) {
	e.calls++
	if e.started != nil {
		close(e.started)
		e.started = nil
	}
	if e.block != nil {
		<-e.block
	}
	return e.result, e.err
}

type fakeSaver struct {
	err        error
	calls      int
	userID     int64
	questionID int64
	transcript string
	result     *models.EvaluationResult
}

func (s *fakeSaver) SaveResult(userID, questionID int64, transcript string, result *models.EvaluationResult) (*models.StoredResult, error) {
	s.calls++
	s.userID = userID
	s.questionID = questionID
	s.transcript = transcript
	s.result = result
	if s.err != nil {
		return nil, s.err
	}
	return &models.StoredResult{ID: 1, UserID: userID, QuestionID: questionID}, nil
}

func intPtr(v int) *int { return &v }

var testQuestion = models.Question{
	ID:           3,
	CategoryID:   1,
	Title:        "Morning Routine",
	QuestionText: "Describe your morning routine.",
	Tips:         "Use sequence words like first, then, after that.",
	Difficulty:   "easy",
}

func supported() speech.Recognizer {
	return &speech.BrowserRecognizer{Supported: true}
}

func TestStartRecordingUnsupportedStaysIdle(t *testing.T) {
	c := NewController(7, testQuestion, &fakeEvaluator{}, &fakeSaver{})

	err := c.StartRecording(&speech.BrowserRecognizer{Supported: false})
	if !errors.Is(err, speech.ErrUnsupportedPlatform) {
		t.Fatalf("StartRecording() error = %v, want ErrUnsupportedPlatform", err)
	}

	snap := c.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("state = %v, want idle", snap.State)
	}
	if snap.Error == "" {
		t.Error("expected inline error message, got none")
	}
}

func TestStopAlwaysReachesReviewing(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
	}{
		{
			name:     "with transcript",
			segments: []string{"I wake up at seven."},
		},
		{
			name:     "empty transcript",
			segments: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(7, testQuestion, &fakeEvaluator{}, &fakeSaver{})
			if err := c.StartRecording(supported()); err != nil {
				t.Fatalf("StartRecording() error = %v", err)
			}
			for _, s := range tt.segments {
				if _, err := c.AddSegment(s); err != nil {
					t.Fatalf("AddSegment() error = %v", err)
				}
			}

			c.StopRecording()

			if snap := c.Snapshot(); snap.State != StateReviewing {
				t.Errorf("state = %v, want reviewing", snap.State)
			}
		})
	}
}

func TestStartNotReachableFromRecording(t *testing.T) {
	c := NewController(7, testQuestion, &fakeEvaluator{}, &fakeSaver{})
	if err := c.StartRecording(supported()); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	if err := c.StartRecording(supported()); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second StartRecording() error = %v, want ErrAlreadyRecording", err)
	}
}

func TestAnalyzeEmptyTranscriptIsNoOp(t *testing.T) {
	eval := &fakeEvaluator{}
	c := NewController(7, testQuestion, eval, &fakeSaver{})
	if err := c.StartRecording(supported()); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	c.StopRecording()

	err := c.Analyze(context.Background())
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("Analyze() error = %v, want ErrEmptyTranscript", err)
	}

	snap := c.Snapshot()
	if snap.State != StateReviewing {
		t.Errorf("state = %v, want reviewing (unchanged)", snap.State)
	}
	if eval.calls != 0 {
		t.Errorf("evaluator calls = %d, want 0", eval.calls)
	}
}

func TestAnalyzeSuccessReachesFeedbackAndSaves(t *testing.T) {
	eval := &fakeEvaluator{
		result: &models.EvaluationResult{
			OverallScore:  intPtr(78),
			Encouragement: "Nice work!",
		},
	}
	saver := &fakeSaver{}
	c := NewController(7, testQuestion, eval, saver)

	if err := c.StartRecording(supported()); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}
	if _, err := c.AddSegment("I wake up at seven and make coffee."); err != nil {
		t.Fatalf("AddSegment() error = %v", err)
	}
	c.StopRecording()

	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	snap := c.Snapshot()
	if snap.State != StateFeedback {
		t.Errorf("state = %v, want feedback", snap.State)
	}
	if snap.Feedback == nil || snap.Feedback.OverallScore == nil || *snap.Feedback.OverallScore != 78 {
		t.Errorf("feedback overall score = %v, want 78", snap.Feedback)
	}

	if saver.calls != 1 {
		t.Fatalf("saver calls = %d, want 1", saver.calls)
	}
	if saver.userID != 7 || saver.questionID != 3 {
		t.Errorf("saved with user=%d question=%d, want 7 and 3", saver.userID, saver.questionID)
	}
	if saver.transcript != "I wake up at seven and make coffee." {
		t.Errorf("saved transcript = %q", saver.transcript)
	}
}

func TestAnalyzeFailureReturnsToReviewing(t *testing.T) {
	cause := errors.New("connection refused")
	eval := &fakeEvaluator{err: cause}
	saver := &fakeSaver{}
	c := NewController(7, testQuestion, eval, saver)

	if err := c.EditTranscript("a typed answer"); err != nil {
		t.Fatalf("EditTranscript() error = %v", err)
	}

	if err := c.Analyze(context.Background()); err == nil {
		t.Fatal("Analyze() expected error, got nil")
	}

	snap := c.Snapshot()
	if snap.State != StateReviewing {
		t.Errorf("state = %v, want reviewing", snap.State)
	}
	if snap.Error != cause.Error() {
		t.Errorf("error message = %q, want %q", snap.Error, cause.Error())
	}
	if snap.Transcript != "a typed answer" {
		t.Errorf("transcript = %q, want unchanged", snap.Transcript)
	}
	if saver.calls != 0 {
		t.Errorf("saver calls = %d, want 0 after evaluation failure", saver.calls)
	}
}

func TestPersistenceFailureDoesNotHideFeedback(t *testing.T) {
	eval := &fakeEvaluator{
		result: &models.EvaluationResult{OverallScore: intPtr(85)},
	}
	saver := &fakeSaver{err: errors.New("insert failed: connection reset")}
	c := NewController(7, testQuestion, eval, saver)

	if err := c.EditTranscript("a typed answer"); err != nil {
		t.Fatalf("EditTranscript() error = %v", err)
	}
	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	snap := c.Snapshot()
	if snap.State != StateFeedback {
		t.Errorf("state = %v, want feedback despite save failure", snap.State)
	}
	if snap.Feedback == nil || *snap.Feedback.OverallScore != 85 {
		t.Errorf("feedback = %v, want overall 85", snap.Feedback)
	}
	if snap.SaveError == "" {
		t.Error("expected a separate persistence notice, got none")
	}
	if snap.Error != "" {
		t.Errorf("evaluation error = %q, want empty", snap.Error)
	}
}

func TestAnalyzeDisabledWhileInFlight(t *testing.T) {
	eval := &fakeEvaluator{
		result:  &models.EvaluationResult{OverallScore: intPtr(60)},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	started := eval.started
	c := NewController(7, testQuestion, eval, &fakeSaver{})

	if err := c.EditTranscript("a typed answer"); err != nil {
		t.Fatalf("EditTranscript() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Analyze(context.Background())
	}()

	<-started
	if err := c.Analyze(context.Background()); !errors.Is(err, ErrAnalysisInFlight) {
		t.Errorf("concurrent Analyze() error = %v, want ErrAnalysisInFlight", err)
	}

	close(eval.block)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Analyze() did not complete")
	}

	if eval.calls != 1 {
		t.Errorf("evaluator calls = %d, want 1", eval.calls)
	}
}

func TestCloseDiscardsInFlightResult(t *testing.T) {
	eval := &fakeEvaluator{
		result:  &models.EvaluationResult{OverallScore: intPtr(99)},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	started := eval.started
	saver := &fakeSaver{}
	c := NewController(7, testQuestion, eval, saver)

	if err := c.EditTranscript("a typed answer"); err != nil {
		t.Fatalf("EditTranscript() error = %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- c.Analyze(context.Background())
	}()

	<-started
	c.Close()
	close(eval.block)

	select {
	case err := <-done:
		if !errors.Is(err, ErrAttemptClosed) {
			t.Errorf("Analyze() error = %v, want ErrAttemptClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Analyze() did not complete")
	}

	if saver.calls != 0 {
		t.Errorf("saver calls = %d, want 0 after close", saver.calls)
	}
}

func TestClearResetsTranscriptAndFeedback(t *testing.T) {
	eval := &fakeEvaluator{
		result: &models.EvaluationResult{OverallScore: intPtr(78)},
	}
	c := NewController(7, testQuestion, eval, &fakeSaver{})

	if err := c.EditTranscript("a typed answer"); err != nil {
		t.Fatalf("EditTranscript() error = %v", err)
	}
	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	snap := c.Snapshot()
	if snap.State != StateReviewing {
		t.Errorf("state = %v, want reviewing", snap.State)
	}
	if snap.Transcript != "" {
		t.Errorf("transcript = %q, want empty", snap.Transcript)
	}
	if snap.Feedback != nil {
		t.Errorf("feedback = %v, want nil", snap.Feedback)
	}
}

func TestRetryAfterFailureWithoutReRecording(t *testing.T) {
	eval := &fakeEvaluator{err: errors.New("temporarily overloaded")}
	c := NewController(7, testQuestion, eval, &fakeSaver{})

	if err := c.EditTranscript("a typed answer"); err != nil {
		t.Fatalf("EditTranscript() error = %v", err)
	}
	if err := c.Analyze(context.Background()); err == nil {
		t.Fatal("Analyze() expected error")
	}

	// Service recovers; the preserved transcript is retried as-is
	eval.err = nil
	eval.result = &models.EvaluationResult{OverallScore: intPtr(70)}

	if err := c.Analyze(context.Background()); err != nil {
		t.Fatalf("retry Analyze() error = %v", err)
	}
	if snap := c.Snapshot(); snap.State != StateFeedback {
		t.Errorf("state = %v, want feedback", snap.State)
	}
	if eval.calls != 2 {
		t.Errorf("evaluator calls = %d, want 2", eval.calls)
	}
}
