package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
)

func newTestClient(id string, buffer int) *Client {
	return &Client{ID: id, send: make(chan Envelope, buffer)}
}

func drain(c *Client) []Envelope {
	var out []Envelope
	for {
		select {
		case env, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestHub_ToAll(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient("a", 4)
	b := newTestClient("b", 4)
	h.Register(a)
	h.Register(b)

	h.ToAll("poll_created", map[string]string{"id": "p1"})

	for _, c := range []*Client{a, b} {
		got := drain(c)
		assert.Len(t, got, 1)
		assert.Equal(t, "poll_created", got[0].Event)

		var data map[string]string
		assert.NoError(t, json.Unmarshal(got[0].Data, &data))
		assert.Equal(t, "p1", data["id"])
	}
}

func TestHub_ToRole(t *testing.T) {
	h := NewHub(zap.NewNop())
	teacher := newTestClient("t", 4)
	student := newTestClient("s", 4)
	pending := newTestClient("p", 4) // connected, never joined
	h.Register(teacher)
	h.Register(student)
	h.Register(pending)
	h.SetRole("t", models.RoleTeacher)
	h.SetRole("s", models.RoleStudent)

	h.ToRole(models.RoleTeacher, "student_joined", models.Participant{ID: "s", Name: "Alice", Role: models.RoleStudent})

	assert.Len(t, drain(teacher), 1)
	assert.Empty(t, drain(student))
	assert.Empty(t, drain(pending))
}

func TestHub_ToConnection(t *testing.T) {
	h := NewHub(zap.NewNop())
	a := newTestClient("a", 4)
	b := newTestClient("b", 4)
	h.Register(a)
	h.Register(b)

	h.ToConnection("a", "kicked", nil)
	h.ToConnection("missing", "kicked", nil) // ignored

	got := drain(a)
	assert.Len(t, got, 1)
	assert.Equal(t, "kicked", got[0].Event)
	assert.Empty(t, got[0].Data)
	assert.Empty(t, drain(b))
}

func TestHub_FullBufferSkipsClient(t *testing.T) {
	h := NewHub(zap.NewNop())
	slow := newTestClient("slow", 1)
	fast := newTestClient("fast", 4)
	h.Register(slow)
	h.Register(fast)

	h.ToAll("poll_updated", map[string]int{"n": 1})
	h.ToAll("poll_updated", map[string]int{"n": 2})

	// The slow client misses the second event; the fast one gets both.
	assert.Len(t, drain(slow), 1)
	assert.Len(t, drain(fast), 2)
}

func TestHub_DropFlushesQueuedEvents(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := newTestClient("a", 4)
	h.Register(c)

	h.ToConnection("a", "kicked", nil)
	h.Drop("a")

	env, ok := <-c.send
	assert.True(t, ok)
	assert.Equal(t, "kicked", env.Event)

	_, ok = <-c.send
	assert.False(t, ok, "send channel should be closed after drop")

	assert.Equal(t, 0, h.Count())
	// A second unregister for the same client must not panic.
	h.Unregister(c)
}
