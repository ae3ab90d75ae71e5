// Package live coordinates the classroom: it validates inbound commands
// against the session registry, drives the poll state machine, and tells the
// dispatcher who hears about each transition.
package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/poll"
	"github.com/classpulse/backend/internal/session"
)

const recordTimeout = 5 * time.Second

// errUnauthorized rejects a command issued under the wrong role.
var errUnauthorized = errors.New("Unauthorized")

// Dispatcher delivers events to connected clients. Delivery is
// fire-and-forget: a slow or dead connection must never block the caller
// or the remaining recipients.
type Dispatcher interface {
	ToAll(event string, data interface{})
	ToRole(role models.Role, event string, data interface{})
	ToConnection(connID, event string, data interface{})
	// Drop disconnects a single connection after any pending sends.
	Drop(connID string)
}

// Recorder durably appends finished polls.
type Recorder interface {
	Append(ctx context.Context, rec models.PollRecord) error
}

// EndReason says what triggered a poll-ended transition.
type EndReason string

const (
	EndManual   EndReason = "manual"
	EndTimedOut EndReason = "timed_out"
)

// Service serializes every command through one mutex: validate, mutate and
// broadcast run to completion before the next command is processed, so a
// tally read-modify-broadcast is atomic with respect to other commands.
// The auto-end countdown re-enters through the same mutex.
type Service struct {
	mu         sync.Mutex
	registry   *session.Registry
	machine    *poll.Machine
	dispatcher Dispatcher
	recorder   Recorder
	logger     *zap.Logger

	// countdown for the active poll; the timeout callback carries the poll
	// id it was armed for, so a stale timer cannot end a later poll.
	timer     *time.Timer
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewService creates the live service with an empty classroom.
func NewService(dispatcher Dispatcher, recorder Recorder, logger *zap.Logger) *Service {
	return &Service{
		registry:   session.NewRegistry(),
		machine:    poll.NewMachine(),
		dispatcher: dispatcher,
		recorder:   recorder,
		logger:     logger,
		afterFunc:  time.AfterFunc,
	}
}

// Connected replays the active poll, if any, to a freshly opened connection
// so it need not have been present at creation time.
func (s *Service) Connected(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replayActivePoll(connID)
}

// Disconnected removes a connection from the registry. A departing student
// is announced to everyone; a departing teacher changes nothing. Recorded
// answers are kept.
func (s *Service) Disconnected(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.registry.Lookup(connID)
	if !ok {
		return
	}
	s.registry.Unregister(connID)
	if p.Role == models.RoleStudent {
		s.dispatcher.ToAll(EventStudentLeft, connID)
	}
	s.logger.Info("participant left",
		zap.String("conn_id", connID),
		zap.String("role", string(p.Role)))
}

// TeacherJoin registers a teacher connection and replays current state to
// it: the roster of connected students and the active poll, if any.
func (s *Service) TeacherJoin(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.registry.RegisterTeacher(connID)
	s.dispatcher.ToConnection(connID, EventJoinedSuccess, JoinedPayload{ID: p.ID, Role: p.Role})

	for _, student := range s.registry.ListByRole(models.RoleStudent) {
		s.dispatcher.ToConnection(connID, EventStudentJoined, student)
	}
	s.replayActivePoll(connID)
	s.logger.Info("teacher joined", zap.String("conn_id", connID))
}

// StudentJoin validates the display name, registers the student, announces
// them to teachers and replays the active poll to them.
func (s *Service) StudentJoin(connID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.registry.RegisterStudent(connID, name)
	if err != nil {
		s.rejected(connID, err)
		return
	}
	s.dispatcher.ToConnection(connID, EventJoinedSuccess, JoinedPayload{ID: p.ID, Name: p.Name})
	s.dispatcher.ToRole(models.RoleTeacher, EventStudentJoined, p)
	s.replayActivePoll(connID)
	s.logger.Info("student joined",
		zap.String("conn_id", connID),
		zap.String("name", p.Name))
}

// CreatePoll opens a new poll on behalf of a teacher and broadcasts its
// definition to everyone. A still-active previous poll is replaced without
// an end transition: its countdown is cancelled and it never reaches
// history. The client layer gates creation on "all students answered", but
// that is not enforced here.
func (s *Service) CreatePoll(connID, question string, options []string, timeLimit int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.registry.Lookup(connID); !ok || p.Role != models.RoleTeacher {
		s.rejected(connID, errUnauthorized)
		return
	}

	created, err := s.machine.Create(question, options, timeLimit)
	if err != nil {
		s.rejected(connID, err)
		return
	}
	s.stopTimer()

	s.dispatcher.ToAll(EventPollCreated, created)

	s.timer = s.afterFunc(time.Duration(created.TimeLimit)*time.Second, func() {
		s.pollTimedOut(created.ID)
	})
	s.logger.Info("poll created",
		zap.String("poll_id", created.ID),
		zap.String("question", created.Question),
		zap.Int("time_limit_sec", created.TimeLimit))
}

// SubmitAnswer records a student's answer for the active poll and
// broadcasts the updated tally snapshot to everyone. A repeat submission
// from the same connection overwrites the earlier one.
func (s *Service) SubmitAnswer(connID, pollID, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.Active() {
		s.rejected(connID, poll.ErrNoActivePoll)
		return
	}
	p, ok := s.registry.Lookup(connID)
	if !ok || p.Role != models.RoleStudent {
		s.rejected(connID, errUnauthorized)
		return
	}
	if err := s.machine.Submit(connID, pollID, answer, p); err != nil {
		s.rejected(connID, err)
		return
	}

	_, results, _ := s.machine.Snapshot()
	s.dispatcher.ToAll(EventPollUpdated, ResultsPayload{PollID: pollID, Results: results})
	s.logger.Debug("answer recorded",
		zap.String("poll_id", pollID),
		zap.String("conn_id", connID),
		zap.String("answer", answer))
}

// EndPoll closes the active poll on a teacher's request. Commands from
// non-teachers are silently ignored, and ending an already-empty slot is a
// no-op, so a manual end racing the countdown is harmless.
func (s *Service) EndPoll(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.registry.Lookup(connID); !ok || p.Role != models.RoleTeacher {
		return
	}
	s.endActive(EndManual)
}

// KickStudent forcibly removes the target connection on a teacher's
// request: the target is told to clear its session, everyone is told the
// student left, and the connection is dropped. Any answer the student
// already gave stays counted. Commands from non-teachers are silently
// ignored.
func (s *Service) KickStudent(connID, targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.registry.Lookup(connID); !ok || p.Role != models.RoleTeacher {
		return
	}
	s.dispatcher.ToConnection(targetID, EventKicked, nil)
	s.registry.Unregister(targetID)
	s.dispatcher.ToAll(EventStudentLeft, targetID)
	s.dispatcher.Drop(targetID)
	s.logger.Info("student kicked",
		zap.String("conn_id", targetID),
		zap.String("by", connID))
}

// pollTimedOut is the countdown callback. The poll id check makes a timer
// armed for a since-replaced or since-ended poll a no-op.
func (s *Service) pollTimedOut(pollID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if active, _, ok := s.machine.Snapshot(); !ok || active.ID != pollID {
		return
	}
	s.endActive(EndTimedOut)
}

// endActive closes the active poll: cancel the countdown, broadcast the
// final results once, and append the finished record to history. Callers
// hold s.mu.
func (s *Service) endActive(reason EndReason) {
	rec, ok := s.machine.End()
	if !ok {
		return
	}
	s.stopTimer()

	s.dispatcher.ToAll(EventPollEnded, EndedPayload{PollID: rec.PollID, FinalResults: rec.Results})

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := s.recorder.Append(ctx, rec); err != nil {
		s.logger.Error("record finished poll",
			zap.String("poll_id", rec.PollID),
			zap.Error(err))
	}
	s.logger.Info("poll ended",
		zap.String("poll_id", rec.PollID),
		zap.String("reason", string(reason)),
		zap.Int("answers", len(rec.Results)))
}

// replayActivePoll sends catch-up state to one connection: the poll
// definition followed by the current tally snapshot. Callers hold s.mu.
func (s *Service) replayActivePoll(connID string) {
	active, results, ok := s.machine.Snapshot()
	if !ok {
		return
	}
	s.dispatcher.ToConnection(connID, EventPollCreated, active)
	s.dispatcher.ToConnection(connID, EventPollUpdated, ResultsPayload{PollID: active.ID, Results: results})
}

func (s *Service) rejected(connID string, err error) {
	s.dispatcher.ToConnection(connID, EventError, ErrorPayload{Message: err.Error()})
}

func (s *Service) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
