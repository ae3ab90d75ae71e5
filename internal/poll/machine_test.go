package poll

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classpulse/backend/internal/models"
)

func student(id, name string) models.Participant {
	return models.Participant{ID: id, Name: name, Role: models.RoleStudent}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name     string
		question string
		options  []string
		wantErr  error
	}{
		{"valid", "Color?", []string{"Red", "Blue"}, nil},
		{"question empty", "", []string{"Red", "Blue"}, ErrInvalidQuestion},
		{"question whitespace", "   ", []string{"Red", "Blue"}, ErrInvalidQuestion},
		{"no options", "Color?", nil, ErrInsufficientOptions},
		{"one option", "Color?", []string{"Red"}, ErrInsufficientOptions},
		{"blank options filtered out", "Color?", []string{"Red", "  ", ""}, ErrInsufficientOptions},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine()
			p, err := m.Create(tc.question, tc.options, 60)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.False(t, m.Active())
				return
			}
			assert.NoError(t, err)
			assert.True(t, m.Active())
			assert.True(t, p.IsActive)
			assert.NotEmpty(t, p.ID)
			assert.False(t, p.StartTime.IsZero())
		})
	}
}

func TestCreate_FiltersAndTrimsOptions(t *testing.T) {
	m := NewMachine()
	p, err := m.Create("  Color?  ", []string{" Red ", "", "Blue", "   "}, 30)
	assert.NoError(t, err)
	assert.Equal(t, "Color?", p.Question)
	assert.Equal(t, []string{"Red", "Blue"}, p.Options)
	assert.Equal(t, 30, p.TimeLimit)
}

func TestCreate_TimeLimitClamping(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"absent defaults", 0, models.DefaultTimeLimitSeconds},
		{"negative defaults", -5, models.DefaultTimeLimitSeconds},
		{"below minimum clamped up", 5, models.MinTimeLimitSeconds},
		{"minimum kept", 10, 10},
		{"in range kept", 30, 30},
		{"maximum kept", 300, 300},
		{"above maximum clamped down", 999, models.MaxTimeLimitSeconds},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine()
			p, err := m.Create("Q?", []string{"A", "B"}, tc.limit)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, p.TimeLimit)
		})
	}
}

func TestCreate_ReplacesActivePoll(t *testing.T) {
	m := NewMachine()
	first, err := m.Create("First?", []string{"A", "B"}, 60)
	assert.NoError(t, err)
	assert.NoError(t, m.Submit("conn-1", first.ID, "A", student("conn-1", "Alice")))

	second, err := m.Create("Second?", []string{"C", "D"}, 60)
	assert.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// Old poll and its answers are gone; the new slot starts clean.
	active, results, ok := m.Snapshot()
	assert.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
	assert.Empty(t, results)
	assert.ErrorIs(t, m.Submit("conn-1", first.ID, "A", student("conn-1", "Alice")), ErrNoActivePoll)
}

func TestSubmit_Validation(t *testing.T) {
	m := NewMachine()
	assert.ErrorIs(t, m.Submit("conn-1", "some-id", "Red", student("conn-1", "Alice")), ErrNoActivePoll)

	p, err := m.Create("Color?", []string{"Red", "Blue"}, 60)
	assert.NoError(t, err)

	assert.ErrorIs(t, m.Submit("conn-1", "wrong-id", "Red", student("conn-1", "Alice")), ErrNoActivePoll)
	assert.ErrorIs(t, m.Submit("conn-1", p.ID, "Green", student("conn-1", "Alice")), ErrInvalidOption)
	assert.NoError(t, m.Submit("conn-1", p.ID, "Red", student("conn-1", "Alice")))
}

func TestSubmit_LastSubmissionWins(t *testing.T) {
	m := NewMachine()
	p, err := m.Create("Color?", []string{"Red", "Blue"}, 60)
	assert.NoError(t, err)

	alice := student("conn-1", "Alice")
	assert.NoError(t, m.Submit("conn-1", p.ID, "Red", alice))
	assert.NoError(t, m.Submit("conn-1", p.ID, "Blue", alice))

	_, results, ok := m.Snapshot()
	assert.True(t, ok)
	assert.Len(t, results, 1)
	assert.Equal(t, "Blue", results["conn-1"].Answer)
	assert.Equal(t, "Alice", results["conn-1"].User.Name)
}

func TestTally_CountsPerOption(t *testing.T) {
	m := NewMachine()
	p, err := m.Create("Color?", []string{"Red", "Blue", "Green"}, 60)
	assert.NoError(t, err)

	assert.NoError(t, m.Submit("conn-1", p.ID, "Red", student("conn-1", "Alice")))
	assert.NoError(t, m.Submit("conn-2", p.ID, "Blue", student("conn-2", "Bob")))
	assert.NoError(t, m.Submit("conn-3", p.ID, "Red", student("conn-3", "Carol")))

	assert.Equal(t, map[string]int{"Red": 2, "Blue": 1, "Green": 0}, m.Tally())
}

func TestEnd_ReturnsRecordAndEmptiesSlot(t *testing.T) {
	m := NewMachine()
	p, err := m.Create("Color?", []string{"A", "B", "C"}, 30)
	assert.NoError(t, err)
	assert.NoError(t, m.Submit("conn-1", p.ID, "A", student("conn-1", "Alice")))

	rec, ok := m.End()
	assert.True(t, ok)
	assert.Equal(t, p.ID, rec.PollID)
	assert.Equal(t, "Color?", rec.Question)
	assert.Equal(t, []string{"A", "B", "C"}, rec.Options)
	assert.Equal(t, 30, rec.TimeLimit)
	assert.False(t, rec.IsActive)
	assert.False(t, rec.EndTime.Before(rec.StartTime))
	assert.Len(t, rec.Results, 1)

	assert.False(t, m.Active())
	assert.Nil(t, m.Tally())
}

func TestEnd_EmptySlotIsNoOp(t *testing.T) {
	m := NewMachine()
	_, ok := m.End()
	assert.False(t, ok)

	_, err := m.Create("Q?", []string{"A", "B"}, 60)
	assert.NoError(t, err)
	_, ok = m.End()
	assert.True(t, ok)
	_, ok = m.End()
	assert.False(t, ok)
}

func TestSnapshot_EmptySlot(t *testing.T) {
	m := NewMachine()
	_, _, ok := m.Snapshot()
	assert.False(t, ok)
}
