// Package model contains domain models passed between layers.
package model

import "time"

// Kind identifies the sensory source of an event. The set is closed:
// the scheduler dispatches through a handler table keyed by Kind.
type Kind int

const (
	KindSpeech Kind = iota
	KindVision
	KindSensor
	KindEmergency
	KindTimer
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSpeech:
		return "speech"
	case KindVision:
		return "vision"
	case KindSensor:
		return "sensor"
	case KindEmergency:
		return "emergency"
	case KindTimer:
		return "timer"
	default:
		return "unknown"
	}
}

// Priority orders events in the bus. Higher runs first.
//
// DefaultPriority gives the per-kind baseline. PriorityCommand is
// assigned by the producer: a speech frontend that recognizes an
// explicit stop/help command tags the event itself so the utterance
// overtakes queued lesson turns.
type Priority int

const (
	PriorityBackground Priority = 10 // sync, telemetry
	PriorityAmbient    Priority = 20 // patrol, companionship chatter
	PriorityLesson     Priority = 30 // current lesson turn
	PriorityCommand    Priority = 40 // explicit stop/help voice command
	PriorityEmergency  Priority = 50 // bypasses the queue entirely
)

// DefaultPriority maps an event kind to its baseline priority.
func DefaultPriority(k Kind) Priority {
	switch k {
	case KindEmergency:
		return PriorityEmergency
	case KindSpeech:
		return PriorityLesson
	case KindVision, KindSensor:
		return PriorityAmbient
	case KindTimer:
		return PriorityBackground
	default:
		return PriorityAmbient
	}
}

// SpeechPayload carries a recognized utterance from the speech engine.
type SpeechPayload struct {
	Text       string
	Phonemes   []string
	Confidence float64
}

// VisionPayload carries the result of a face/object pass.
type VisionPayload struct {
	StudentID string // empty when nobody was recognized
	Name      string
	Attentive bool
}

// SensorPayload carries ambient sensor readings.
type SensorPayload struct {
	DistanceCM     float64
	TemperatureC   float64
	MotionDetected bool
}

// EmergencyPayload describes why an emergency was raised.
type EmergencyPayload struct {
	Reason string
}

// Event is a single timestamped message from a sensory lane.
// Events are immutable once created and consumed exactly once.
// Exactly one payload pointer is set, matching Kind.
type Event struct {
	ID       string
	Kind     Kind
	Priority Priority
	TS       time.Time

	Speech    *SpeechPayload
	Vision    *VisionPayload
	Sensor    *SensorPayload
	Emergency *EmergencyPayload
}
