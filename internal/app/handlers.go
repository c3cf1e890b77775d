package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/logger"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/metrics"
)

// handleSpeech routes voice commands and runs a lesson turn for
// ordinary utterances.
func (s *Service) handleSpeech(ctx context.Context, e model.Event) error {
	if e.Speech == nil {
		return fmt.Errorf("speech event %s has no payload", e.ID)
	}

	switch command(e.Speech.Text) {
	case "stop":
		return s.endSession(ctx, "Okay, we will stop here. Great work today!")
	case "help":
		s.logger.Info(ctx, "help command received")
		return s.notifyWithRetries(ctx, "help", "student asked for help")
	}

	return s.lessonTurn(ctx, e)
}

// command extracts a recognized voice command, or "" for ordinary
// speech.
func command(text string) string {
	switch t := strings.TrimSpace(strings.ToLower(text)); t {
	case "stop", "help":
		return t
	default:
		return ""
	}
}

// lessonTurn is the core teaching cycle: identify the student, score
// the utterance, speak feedback, record the outcome, learn, act.
// A preempted turn leaves no partial outcome record.
func (s *Service) lessonTurn(ctx context.Context, e model.Event) error {
	start := time.Now()

	turnCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.turnCancel = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		s.turnCancel = nil
		s.mu.Unlock()
	}()

	sess, err := s.ensureSession(turnCtx)
	if err != nil {
		return err
	}

	exercise, err := s.curriculum.CurrentExercise(turnCtx, sess.studentID)
	if err != nil {
		return fmt.Errorf("lesson content for %s: %w", sess.studentID, err)
	}

	result, err := s.scorer.Score(turnCtx, exercise.Phonemes, e.Speech.Phonemes)
	if err != nil {
		if model.KindOf(err) == model.FailureInvalidInput {
			// Garbled recognition: count the miss and reprompt, but do
			// not poison the outcome log with a fake score.
			return s.recognitionMiss(turnCtx, sess)
		}
		return fmt.Errorf("score utterance: %w", err)
	}
	sess.misses = 0

	s.speakOrGesture(turnCtx, result.Feedback, gestureForScore(result.Score))

	// Preemption checkpoint: an aborted turn must not persist.
	if turnCtx.Err() != nil {
		metrics.RecordTurnAborted()
		return nil
	}

	action := model.DefaultAction
	if sess.hasAction {
		action = sess.lastAction
	}
	rec := &model.OutcomeRecord{
		StudentID:    sess.studentID,
		SessionID:    sess.sessionID,
		ActionTaken:  action,
		PER:          result.PER,
		OverallScore: result.Score,
		Feedback:     result.Feedback,
	}
	if err := s.outcomes.Enqueue(turnCtx, rec); err != nil {
		metrics.RecordTurnAborted()
		return fmt.Errorf("record outcome: %w", err)
	}

	s.policy.Update(turnCtx, sess.studentID, action, result.Score)
	sess.turns++
	sess.scoreSum += result.Score

	next := s.policy.SelectAction(turnCtx, sess.studentID)
	sess.lastAction = next
	sess.hasAction = true
	s.performAction(turnCtx, next)

	metrics.RecordTurnCompleted()
	metrics.RecordHandlerLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// ensureSession returns the active session, identifying the student
// through the vision engine when none is active.
func (s *Service) ensureSession(ctx context.Context) (*session, error) {
	if s.session != nil && s.session.studentID != "" {
		return s.session, nil
	}

	who, err := s.vision.Identify(ctx)
	if err != nil {
		metrics.RecordHandlerFallback("vision")
		s.speakOrGesture(ctx, "I can't see you. Could you step in front of me?", "look_around")
		return nil, fmt.Errorf("identify student: %w", err)
	}
	if who.StudentID == "" {
		return nil, fmt.Errorf("no student in view")
	}
	return s.beginSession(ctx, who), nil
}

// beginSession starts a fresh session for a newly identified student.
func (s *Service) beginSession(ctx context.Context, who model.VisionPayload) *session {
	sess := &session{
		studentID: who.StudentID,
		sessionID: uuid.NewString(),
		name:      who.Name,
	}
	s.session = sess

	greeting := "Hello! Ready to practice?"
	if who.Name != "" {
		greeting = fmt.Sprintf("Hi %s! Ready to practice?", who.Name)
	}
	s.speakOrGesture(ctx, greeting, "wave")

	s.logger.Info(ctx, "session started",
		logger.String("studentID", sess.studentID),
		logger.String("sessionID", sess.sessionID),
	)
	return sess
}

// endSession closes the active session with a goodbye.
func (s *Service) endSession(ctx context.Context, farewell string) error {
	if s.session == nil {
		return nil
	}
	s.speakOrGesture(ctx, farewell, "wave")
	s.logger.Info(ctx, "session ended",
		logger.String("studentID", s.session.studentID),
		logger.String("sessionID", s.session.sessionID),
		logger.Int("turns", s.session.turns),
	)
	s.session = nil
	return nil
}

// recognitionMiss reprompts the student, escalating to the fallback
// prompt after repeated misses.
func (s *Service) recognitionMiss(ctx context.Context, sess *session) error {
	sess.misses++
	if sess.misses >= s.missLimit {
		sess.misses = 0
		metrics.RecordHandlerFallback("speech")
		s.speakOrGesture(ctx, s.fallbackPrompt, "lean_in")
		return nil
	}
	s.speakOrGesture(ctx, "I didn't catch that. One more time?", "lean_in")
	return nil
}

// handleVision keeps the active session in step with who the camera
// sees. A new face starts a session; losing the student keeps the
// session, children wander.
func (s *Service) handleVision(ctx context.Context, e model.Event) error {
	if e.Vision == nil {
		return fmt.Errorf("vision event %s has no payload", e.ID)
	}
	if e.Vision.StudentID == "" {
		return nil
	}
	if s.session != nil && s.session.studentID == e.Vision.StudentID {
		return nil
	}
	if s.session != nil {
		if err := s.endSession(ctx, "See you next time!"); err != nil {
			return err
		}
	}
	s.beginSession(ctx, *e.Vision)
	return nil
}

// handleSensor reacts to proximity and motion. Anything within the
// obstacle distance halts movement.
func (s *Service) handleSensor(ctx context.Context, e model.Event) error {
	if e.Sensor == nil {
		return fmt.Errorf("sensor event %s has no payload", e.ID)
	}
	if e.Sensor.DistanceCM > 0 && e.Sensor.DistanceCM < obstacleDistanceCM {
		s.logger.Warn(ctx, "obstacle detected, halting motion",
			logger.Float64("distanceCM", e.Sensor.DistanceCM),
		)
		if err := s.actuation.Stop(ctx); err != nil {
			return fmt.Errorf("halt on obstacle: %w", err)
		}
	}
	return nil
}

// handleTimer pushes a progress status for the active session.
func (s *Service) handleTimer(ctx context.Context, e model.Event) error {
	if s.status == nil || s.session == nil || s.session.turns == 0 {
		return nil
	}
	avg := s.session.scoreSum / float64(s.session.turns)
	if err := s.status.UpdateStatus(ctx, s.session.studentID, avg); err != nil {
		// Best effort: status pushes are never queued or retried.
		s.logger.Debug(ctx, "status push failed",
			logger.String("studentID", s.session.studentID),
			logger.Error(err),
		)
	}
	return nil
}

// handleEmergency is the response to a preemption: motion stops,
// the student hears a calming line, humans are notified. The watcher
// already cancelled any in-flight turn and resolved racing
// emergencies to the earliest timestamp.
func (s *Service) handleEmergency(ctx context.Context, e model.Event) {
	reason := "unspecified emergency"
	if e.Emergency != nil && e.Emergency.Reason != "" {
		reason = e.Emergency.Reason
	}
	s.logger.Error(ctx, "emergency raised", logger.String("reason", reason))

	if err := s.actuation.Stop(ctx); err != nil {
		s.logger.Error(ctx, "emergency halt failed", logger.Error(err))
	}
	s.speakOrGesture(ctx, "Please stay calm. I am calling for help.", "freeze")

	if err := s.notifyWithRetries(ctx, "emergency", reason); err != nil {
		s.logger.Error(ctx, "emergency notification undelivered",
			logger.String("reason", reason),
			logger.Error(err),
		)
	}

	s.session = nil
}

// notifyWithRetries attempts delivery a bounded number of times. An
// undelivered notification is surfaced in metrics, never silently
// dropped.
func (s *Service) notifyWithRetries(ctx context.Context, severity, message string) error {
	var lastErr error
	for attempt := 0; attempt < s.notifyAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(s.notifyRetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				lastErr = ctx.Err()
			case <-timer.C:
			}
			if ctx.Err() != nil {
				break
			}
		}
		if lastErr = s.notifier.Notify(ctx, severity, message, s.recipients); lastErr == nil {
			metrics.RecordNotificationSent()
			return nil
		}
	}
	metrics.RecordNotificationUnresolved()
	return lastErr
}

// performAction turns a policy decision into robot behavior.
func (s *Service) performAction(ctx context.Context, a model.Action) {
	switch a {
	case model.ActionRepeatEasier:
		s.speakOrGesture(ctx, "Let's try an easier one together.", "nod")
	case model.ActionAdvanceHarder:
		s.speakOrGesture(ctx, "You're doing great, let's try something harder!", "thumbs_up")
	case model.ActionSwitchTopic:
		s.speakOrGesture(ctx, "Let's practice something different for a bit.", "point")
	case model.ActionEncourage:
		s.speakOrGesture(ctx, "Wonderful effort! Keep it up!", "clap")
	case model.ActionEndSession:
		_ = s.endSession(ctx, "That was a great session. See you soon!")
	}
}

// speakOrGesture speaks the line, falling back to a silent gesture
// when synthesis fails so the student always gets a response.
func (s *Service) speakOrGesture(ctx context.Context, line, gesture string) {
	err := s.speech.Synthesize(ctx, line)
	if err == nil || ctx.Err() != nil {
		return
	}
	metrics.RecordHandlerFallback("speech")
	s.logger.Warn(ctx, "speech synthesis failed, falling back to gesture",
		logger.String("gesture", gesture),
		logger.Error(err),
	)
	if err := s.actuation.Perform(ctx, gesture); err != nil && ctx.Err() == nil {
		metrics.RecordHandlerFallback("actuation")
		s.logger.Error(ctx, "gesture fallback failed", logger.Error(err))
	}
}

// gestureForScore picks the celebration matching the score tier.
func gestureForScore(score float64) string {
	switch {
	case score >= 90:
		return "clap"
	case score >= 75:
		return "thumbs_up"
	case score >= 60:
		return "nod"
	default:
		return "lean_in"
	}
}
