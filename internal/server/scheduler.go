package server

import (
	"context"
	"time"

	"robots/internal/protocol"
	"robots/internal/shared/logger"
)

// Scheduler is the only goroutine that touches the Engine. Sessions talk to
// it through channels; every tick it folds the staged intents into a turn and
// hands the encoded result to every registered session.
type Scheduler struct {
	engine        *Engine
	tickerCreator PeriodicTickerChannelCreator
	turnDuration  time.Duration
	sessions      map[string]Session
	inbox         chan Intent
	registrations chan Session
	removals      chan string
	statusReqs    chan chan Status
	done          chan struct{}
}

func NewScheduler(engine *Engine, tickerCreator PeriodicTickerChannelCreator, turnDuration time.Duration) *Scheduler {
	return &Scheduler{
		engine:        engine,
		tickerCreator: tickerCreator,
		turnDuration:  turnDuration,
		sessions:      make(map[string]Session),
		inbox:         make(chan Intent, 1024),
		registrations: make(chan Session, 64),
		removals:      make(chan string, 64),
		statusReqs:    make(chan chan Status, 16),
		done:          make(chan struct{}),
	}
}

func (s *Scheduler) Submit(ctx context.Context, in Intent) {
	select {
	case s.inbox <- in:
	case <-ctx.Done():
	case <-s.done:
	}
}

// Register hands a new session to the scheduler, which sends it Hello and
// the catch-up before it joins the broadcast set.
func (s *Scheduler) Register(ctx context.Context, sess Session) error {
	if s.stopped() {
		return ErrSchedulerStopped
	}
	select {
	case s.registrations <- sess:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSchedulerStopped
	}
}

func (s *Scheduler) Remove(id string) {
	select {
	case s.removals <- id:
	case <-s.done:
	}
}

func (s *Scheduler) Status(ctx context.Context) (Status, error) {
	if s.stopped() {
		return Status{}, ErrSchedulerStopped
	}
	respChan := make(chan Status, 1)
	select {
	case s.statusReqs <- respChan:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-s.done:
		return Status{}, ErrSchedulerStopped
	}
	select {
	case st := <-respChan:
		return st, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

func (s *Scheduler) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Run blocks until ctx is cancelled. started is closed once the ticker is
// in place.
func (s *Scheduler) Run(ctx context.Context, started chan struct{}) error {
	ticker, stopTicker := s.tickerCreator.Create(s.turnDuration)
	close(started)
	defer s.shutdown()
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker:
			s.drainInbox()
			s.handleTick()

		case in := <-s.inbox:
			s.engine.Submit(in)

		case sess := <-s.registrations:
			s.handleRegister(sess)

		case id := <-s.removals:
			s.handleRemove(id)

		case req := <-s.statusReqs:
			st := s.engine.Status()
			st.Sessions = len(s.sessions)
			req <- st
		}
	}
}

// drainInbox stages every intent that arrived before the tick fired.
func (s *Scheduler) drainInbox() {
	for {
		select {
		case in := <-s.inbox:
			s.engine.Submit(in)
		default:
			return
		}
	}
}

func (s *Scheduler) handleTick() {
	msgs := s.engine.Tick()
	if len(msgs) == 0 {
		return
	}
	data, err := protocol.MarshalServer(msgs...)
	if err != nil {
		logger.Criticalf("encoding turn: %v", err)
		return
	}
	for id, sess := range s.sessions {
		if err := sess.Send(data); err != nil {
			logger.Warningf("dropping session %s: %v", id, err)
			s.drop(sess, err)
		}
	}
}

func (s *Scheduler) handleRegister(sess Session) {
	data, err := protocol.MarshalServer(s.engine.CatchUp()...)
	if err != nil {
		logger.Criticalf("encoding catch-up: %v", err)
		sess.Close("internal-error")
		return
	}
	if err := sess.Send(data); err != nil {
		logger.Warningf("catch-up for %s: %v", sess.ID(), err)
		sess.Close(err.Error())
		return
	}
	s.sessions[sess.ID()] = sess
	logger.Debugf("session %s registered, %d connected", sess.ID(), len(s.sessions))
}

func (s *Scheduler) handleRemove(id string) {
	delete(s.sessions, id)
	s.engine.Leave(id)
}

func (s *Scheduler) drop(sess Session, err error) {
	delete(s.sessions, sess.ID())
	s.engine.Leave(sess.ID())
	sess.Close(err.Error())
}

func (s *Scheduler) shutdown() {
	close(s.done)
	for _, sess := range s.sessions {
		sess.Close("server-shutdown")
	}
	s.sessions = nil
}
