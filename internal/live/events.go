package live

import "github.com/classpulse/backend/internal/models"

// Outbound event names pushed to clients over the realtime channel.
const (
	EventJoinedSuccess = "joined_success"
	EventPollCreated   = "poll_created"
	EventPollUpdated   = "poll_updated"
	EventPollEnded     = "poll_ended"
	EventStudentJoined = "student_joined"
	EventStudentLeft   = "student_left"
	EventKicked        = "kicked"
	EventError         = "error"
)

// JoinedPayload echoes the caller's identity after a successful join.
type JoinedPayload struct {
	ID   string      `json:"id"`
	Name string      `json:"name,omitempty"`
	Role models.Role `json:"role,omitempty"`
}

// ResultsPayload is a full tally snapshot, broadcast on every recorded
// answer and replayed on catch-up. Never a delta.
type ResultsPayload struct {
	PollID  string                        `json:"pollId"`
	Results map[string]models.AnswerEntry `json:"results"`
}

// EndedPayload carries the frozen results of a finished poll.
type EndedPayload struct {
	PollID       string                        `json:"pollId"`
	FinalResults map[string]models.AnswerEntry `json:"finalResults"`
}

// ErrorPayload reports a rejected command to the connection that sent it.
type ErrorPayload struct {
	Message string `json:"message"`
}
