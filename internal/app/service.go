// Package app hosts the interaction scheduler: the single decision
// loop that consumes sensory events, runs lesson turns, and arbitrates
// between ordinary work and emergencies.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/adapters/mq/bus"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/scoring"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/logger"
	"github.com/Sadhu2005/ANU-Humanoid-AI/pkg/metrics"
)

// Default scheduler configuration constants.
const (
	defaultNotifyAttempts   = 3
	defaultNotifyRetryDelay = 2 * time.Second
	defaultFallbackPrompt   = "Let's try that again. Repeat after me, nice and slow."
	defaultMissLimit        = 2
	obstacleDistanceCM      = 10.0
)

// Exercise is the unit of lesson content: the prompt the robot speaks
// and the phoneme sequence the student is expected to produce.
type Exercise struct {
	Prompt   string
	Phonemes []string
	Topic    string
}

// SpeechEngine produces audible output. Recognition results arrive as
// bus events, so only synthesis lives here.
type SpeechEngine interface {
	Synthesize(ctx context.Context, text string) error
}

// VisionEngine identifies who is in front of the robot.
type VisionEngine interface {
	Identify(ctx context.Context) (model.VisionPayload, error)
}

// ActuationService drives gestures and movement.
type ActuationService interface {
	Perform(ctx context.Context, gesture string) error
	Stop(ctx context.Context) error
}

// Notifier reaches humans when the robot cannot handle a situation
// alone.
type Notifier interface {
	Notify(ctx context.Context, severity, message string, recipients []string) error
}

// Curriculum serves lesson content for a student.
type Curriculum interface {
	CurrentExercise(ctx context.Context, studentID string) (Exercise, error)
}

// OutcomeSink durably records completed turns. Satisfied by the sync
// queue.
type OutcomeSink interface {
	Enqueue(ctx context.Context, rec *model.OutcomeRecord) error
}

// Policy selects and learns teaching actions. Satisfied by the policy
// learner.
type Policy interface {
	SelectAction(ctx context.Context, studentID string) model.Action
	Update(ctx context.Context, studentID string, action model.Action, overallScore float64)
}

// StatusPusher publishes compact progress updates. Best effort.
type StatusPusher interface {
	UpdateStatus(ctx context.Context, studentID string, avgScore float64) error
}

// session tracks the active student across turns.
type session struct {
	studentID  string
	sessionID  string
	name       string
	lastAction model.Action
	hasAction  bool
	misses     int
	turns      int
	scoreSum   float64
}

// Service is the interaction scheduler.
type Service struct {
	bus        bus.Bus
	scorer     scoring.Scorer
	policy     Policy
	outcomes   OutcomeSink
	speech     SpeechEngine
	vision     VisionEngine
	actuation  ActuationService
	notifier   Notifier
	curriculum Curriculum
	status     StatusPusher

	recipients       []string
	fallbackPrompt   string
	notifyAttempts   int
	notifyRetryDelay time.Duration
	missLimit        int

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	// Mutated only from the decision loop goroutine.
	session *session

	// turnCancel aborts the in-flight lesson turn on preemption.
	// Guarded by mu: the emergency watcher fires it from its own
	// goroutine.
	turnCancel context.CancelFunc

	// pendingEmergency holds the emergency the decision loop must
	// handle next. When several race, the earliest timestamp wins and
	// the rest are counted as conflicts.
	emgMu            sync.Mutex
	pendingEmergency *model.Event
	emgNotify        chan struct{}

	// handlers dispatches ordinary events by kind. The set is closed;
	// emergencies never go through this table.
	handlers map[model.Kind]handlerFunc

	logger logger.Logger
}

type handlerFunc func(ctx context.Context, e model.Event) error

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRecipients sets who receives emergency notifications.
func WithRecipients(recipients []string) Option {
	return func(s *Service) {
		s.recipients = recipients
	}
}

// WithFallbackPrompt sets the prompt spoken after repeated
// recognition misses.
func WithFallbackPrompt(prompt string) Option {
	return func(s *Service) {
		if prompt != "" {
			s.fallbackPrompt = prompt
		}
	}
}

// WithNotifyRetries bounds emergency notification delivery attempts.
func WithNotifyRetries(attempts int, delay time.Duration) Option {
	return func(s *Service) {
		if attempts > 0 {
			s.notifyAttempts = attempts
		}
		if delay > 0 {
			s.notifyRetryDelay = delay
		}
	}
}

// WithStatusPusher enables periodic progress pushes on timer events.
func WithStatusPusher(p StatusPusher) Option {
	return func(s *Service) {
		s.status = p
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over its collaborators.
func New(
	b bus.Bus,
	scorer scoring.Scorer,
	policy Policy,
	outcomes OutcomeSink,
	speech SpeechEngine,
	vision VisionEngine,
	actuation ActuationService,
	notifier Notifier,
	curriculum Curriculum,
	opts ...Option,
) *Service {
	s := &Service{
		bus:              b,
		scorer:           scorer,
		policy:           policy,
		outcomes:         outcomes,
		speech:           speech,
		vision:           vision,
		actuation:        actuation,
		notifier:         notifier,
		curriculum:       curriculum,
		fallbackPrompt:   defaultFallbackPrompt,
		notifyAttempts:   defaultNotifyAttempts,
		notifyRetryDelay: defaultNotifyRetryDelay,
		missLimit:        defaultMissLimit,
		emgNotify:        make(chan struct{}, 1),
		logger:           logger.Get().Named("scheduler"),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.handlers = map[model.Kind]handlerFunc{
		model.KindSpeech: s.handleSpeech,
		model.KindVision: s.handleVision,
		model.KindSensor: s.handleSensor,
		model.KindTimer:  s.handleTimer,
	}

	return s
}

// Start launches the decision loop. Idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	s.logger.Info(ctx, "interaction scheduler started")
	go s.watchEmergencies(runCtx)
	go s.run(runCtx)
	return nil
}

// Stop cancels the decision loop and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info(context.Background(), "interaction scheduler stopped")
}

// watchEmergencies owns the emergency lane. It runs beside the
// decision loop so an emergency can cancel a turn the loop is in the
// middle of executing. The winning event is parked for the loop to
// handle as soon as the aborted turn unwinds.
func (s *Service) watchEmergencies(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-s.bus.Emergencies():
			if !ok {
				return
			}

			s.mu.Lock()
			if s.turnCancel != nil {
				s.turnCancel()
				metrics.RecordPreemption()
			}
			s.mu.Unlock()

			s.emgMu.Lock()
			switch {
			case s.pendingEmergency == nil:
				s.pendingEmergency = &e
			case e.TS.Before(s.pendingEmergency.TS):
				metrics.RecordEmergencyConflict()
				s.pendingEmergency = &e
			default:
				metrics.RecordEmergencyConflict()
			}
			s.emgMu.Unlock()

			select {
			case s.emgNotify <- struct{}{}:
			default:
			}
		}
	}
}

// takeEmergency claims the parked emergency, if any.
func (s *Service) takeEmergency() *model.Event {
	s.emgMu.Lock()
	defer s.emgMu.Unlock()
	e := s.pendingEmergency
	s.pendingEmergency = nil
	return e
}

// run is the single decision loop. Emergencies are always handled
// before ordinary events; a handler error never exits the loop.
func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	events := s.bus.Events()

	for {
		// Emergencies first, even when ordinary events are ready.
		if e := s.takeEmergency(); e != nil {
			s.handleEmergency(ctx, *e)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-s.emgNotify:
			if e := s.takeEmergency(); e != nil {
				s.handleEmergency(ctx, *e)
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			s.dispatch(ctx, e)
		}
	}
}

// dispatch routes one ordinary event through the handler table.
func (s *Service) dispatch(ctx context.Context, e model.Event) {
	handler, ok := s.handlers[e.Kind]
	if !ok {
		s.logger.Warn(ctx, "event with unknown kind dropped",
			logger.String("kind", e.Kind.String()),
		)
		return
	}
	if err := handler(ctx, e); err != nil && ctx.Err() == nil {
		s.logger.Error(ctx, "event handler failed",
			logger.String("kind", e.Kind.String()),
			logger.String("eventID", e.ID),
			logger.Error(err),
		)
	}
}
