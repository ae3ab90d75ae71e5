// Package poll owns the single active poll slot: its lifecycle, its
// per-connection answers, and the derived tally.
package poll

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/models"
)

// Command failures, delivered to the offending connection as error events.
var (
	ErrInvalidQuestion     = errors.New("Invalid question")
	ErrInsufficientOptions = errors.New("At least 2 valid options are required")
	ErrNoActivePoll        = errors.New("No active poll or invalid poll ID")
	ErrInvalidOption       = errors.New("Answer is not one of the poll options")
)

type activePoll struct {
	poll    models.Poll
	results map[string]models.AnswerEntry
}

// Machine holds the active poll slot. At most one poll is active at a time:
// Create fills the slot, End empties it. The zero slot accepts no answers.
// Not safe for concurrent use; the live service serializes all access.
type Machine struct {
	active *activePoll
}

// NewMachine creates a machine with an empty active slot.
func NewMachine() *Machine {
	return &Machine{}
}

// Create validates and opens a new poll, returning its definition.
// The question must trim non-empty; options are filtered to trimmed non-empty
// strings, of which at least 2 must remain. The time limit is clamped to
// [MinTimeLimitSeconds, MaxTimeLimitSeconds], with non-positive values
// falling back to the default.
//
// If a poll is already active it is replaced without an end transition and
// without reaching history. The caller cancels the old countdown.
func (m *Machine) Create(question string, options []string, timeLimit int) (models.Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.Poll{}, ErrInvalidQuestion
	}

	valid := make([]string, 0, len(options))
	for _, opt := range options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			valid = append(valid, trimmed)
		}
	}
	if len(valid) < 2 {
		return models.Poll{}, ErrInsufficientOptions
	}

	if timeLimit <= 0 {
		timeLimit = models.DefaultTimeLimitSeconds
	}
	if timeLimit < models.MinTimeLimitSeconds {
		timeLimit = models.MinTimeLimitSeconds
	}
	if timeLimit > models.MaxTimeLimitSeconds {
		timeLimit = models.MaxTimeLimitSeconds
	}

	p := models.Poll{
		ID:        uuid.New().String(),
		Question:  question,
		Options:   valid,
		TimeLimit: timeLimit,
		StartTime: time.Now(),
		IsActive:  true,
	}
	m.active = &activePoll{poll: p, results: make(map[string]models.AnswerEntry)}
	return p, nil
}

// Submit records an answer for the active poll. Answers are keyed by
// connection id, so a repeat submission from the same connection replaces
// the earlier one rather than adding a second record.
func (m *Machine) Submit(connID, pollID, answer string, by models.Participant) error {
	if m.active == nil || m.active.poll.ID != pollID {
		return ErrNoActivePoll
	}
	found := false
	for _, opt := range m.active.poll.Options {
		if opt == answer {
			found = true
			break
		}
	}
	if !found {
		return ErrInvalidOption
	}
	m.active.results[connID] = models.AnswerEntry{Answer: answer, User: by}
	return nil
}

// End closes the active poll and empties the slot, returning the finished
// record for history. It reports false when the slot is already empty, so
// a racing timer and manual end are both safe to call.
func (m *Machine) End() (models.PollRecord, bool) {
	if m.active == nil {
		return models.PollRecord{}, false
	}
	a := m.active
	m.active = nil
	return models.PollRecord{
		PollID:    a.poll.ID,
		Question:  a.poll.Question,
		Options:   a.poll.Options,
		Results:   a.results,
		TimeLimit: a.poll.TimeLimit,
		StartTime: a.poll.StartTime,
		EndTime:   time.Now(),
		IsActive:  false,
	}, true
}

// Snapshot returns the active poll definition and its current results for
// catch-up replay. It reports false when the slot is empty.
func (m *Machine) Snapshot() (models.Poll, map[string]models.AnswerEntry, bool) {
	if m.active == nil {
		return models.Poll{}, nil, false
	}
	return m.active.poll, m.active.results, true
}

// Active reports whether a poll is currently accepting answers.
func (m *Machine) Active() bool {
	return m.active != nil
}

// Tally derives per-option vote counts from the current answers. Every poll
// option appears in the result, zero-count options included.
func (m *Machine) Tally() map[string]int {
	if m.active == nil {
		return nil
	}
	counts := make(map[string]int, len(m.active.poll.Options))
	for _, opt := range m.active.poll.Options {
		counts[opt] = 0
	}
	for _, entry := range m.active.results {
		counts[entry.Answer]++
	}
	return counts
}
