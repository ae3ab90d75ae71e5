package models

import "time"

// Time limit bounds in seconds for a poll. Values outside the range are
// clamped at creation; an absent or non-positive limit falls back to the default.
const (
	MinTimeLimitSeconds     = 10
	MaxTimeLimitSeconds     = 300
	DefaultTimeLimitSeconds = 60
)

// Poll is the definition broadcast to clients when a poll opens.
// Field names match the wire payload consumed by the dashboards.
type Poll struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	TimeLimit int       `json:"timeLimit"`
	StartTime time.Time `json:"startTime"`
	IsActive  bool      `json:"isActive"`
}

// AnswerEntry is one student's recorded answer, keyed by connection id in
// the results map. At most one entry exists per connection per poll.
type AnswerEntry struct {
	Answer string      `json:"answer"`
	User   Participant `json:"user"`
}

// PollRecord is a finished poll as appended to history and returned by the
// history endpoint.
type PollRecord struct {
	PollID    string                 `json:"pollId"`
	Question  string                 `json:"question"`
	Options   []string               `json:"options"`
	Results   map[string]AnswerEntry `json:"results"`
	TimeLimit int                    `json:"timeLimit"`
	StartTime time.Time              `json:"startTime"`
	EndTime   time.Time              `json:"endTime"`
	IsActive  bool                   `json:"isActive"`
}
