// Package robot provides loopback implementations of the hardware
// collaborators. They log what the physical robot would do and
// simulate realistic latency, so the coordination core runs end to end
// on a development machine without motors or microphones attached.
package robot

import (
	"context"
	"time"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/logger"
)

// Simulated latency constants, roughly matching on-device timing.
const (
	synthesisLatencyPerChar = 30 * time.Millisecond
	identifyLatency         = 120 * time.Millisecond
	gestureLatency          = 200 * time.Millisecond
)

// Speech is a loopback text-to-speech engine.
type Speech struct {
	logger logger.Logger
}

// NewSpeech creates a loopback speech engine.
func NewSpeech() *Speech {
	return &Speech{logger: logger.Get().Named("robot.speech")}
}

// Synthesize "speaks" the line by logging it, taking time proportional
// to its length the way real synthesis does.
func (s *Speech) Synthesize(ctx context.Context, text string) error {
	delay := time.Duration(len(text)) * synthesisLatencyPerChar
	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
	}
	s.logger.Info(ctx, "speaking", logger.String("text", text))
	return nil
}

// Vision is a loopback camera that always sees a configured student.
type Vision struct {
	student model.VisionPayload
	logger  logger.Logger
}

// NewVision creates a loopback vision engine reporting the given
// student.
func NewVision(studentID, name string) *Vision {
	return &Vision{
		student: model.VisionPayload{StudentID: studentID, Name: name, Attentive: true},
		logger:  logger.Get().Named("robot.vision"),
	}
}

// Identify returns the configured student after a camera-like delay.
func (v *Vision) Identify(ctx context.Context) (model.VisionPayload, error) {
	timer := time.NewTimer(identifyLatency)
	select {
	case <-ctx.Done():
		timer.Stop()
		return model.VisionPayload{}, ctx.Err()
	case <-timer.C:
	}
	return v.student, nil
}

// Actuator is a loopback gesture and motion driver.
type Actuator struct {
	logger logger.Logger
}

// NewActuator creates a loopback actuator.
func NewActuator() *Actuator {
	return &Actuator{logger: logger.Get().Named("robot.actuation")}
}

// Perform logs the gesture after a servo-like delay.
func (a *Actuator) Perform(ctx context.Context, gesture string) error {
	timer := time.NewTimer(gestureLatency)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
	}
	a.logger.Info(ctx, "performing gesture", logger.String("gesture", gesture))
	return nil
}

// Stop halts all motion immediately. Never delayed: safety path.
func (a *Actuator) Stop(ctx context.Context) error {
	a.logger.Warn(ctx, "all motion halted")
	return nil
}
