package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classpulse/backend/internal/models"
)

func TestRegisterStudent_NameValidation(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		wantErr     error
	}{
		{"valid", "Alice", nil},
		{"valid with spaces and digits", "Alice Smith 2", nil},
		{"trimmed before validation", "  Bob  ", nil},
		{"empty", "", ErrInvalidName},
		{"whitespace only", "   ", ErrInvalidName},
		{"single character", "A", ErrNameLength},
		{"over 30 characters", "abcdefghijklmnopqrstuvwxyz12345", ErrNameLength},
		{"exactly 30 characters", "abcdefghijklmnopqrstuvwxyz1234", nil},
		{"punctuation", "Alice!", ErrNameChars},
		{"unicode letters", "Zoé", ErrNameChars},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			p, err := r.RegisterStudent("conn-1", tc.displayName)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, 0, r.Count())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "conn-1", p.ID)
			assert.Equal(t, models.RoleStudent, p.Role)
			assert.NotEmpty(t, p.Name)
		})
	}
}

func TestRegisterStudent_NameTaken(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterStudent("conn-1", "Alice")
	assert.NoError(t, err)

	_, err = r.RegisterStudent("conn-2", "Alice")
	assert.ErrorIs(t, err, ErrNameTaken)

	// Same trimmed form collides too.
	_, err = r.RegisterStudent("conn-3", "  Alice ")
	assert.ErrorIs(t, err, ErrNameTaken)

	// Case differs, so it is a different name.
	_, err = r.RegisterStudent("conn-4", "alice")
	assert.NoError(t, err)
}

func TestRegisterStudent_NameFreedOnUnregister(t *testing.T) {
	r := NewRegistry()
	_, err := r.RegisterStudent("conn-1", "Alice")
	assert.NoError(t, err)

	r.Unregister("conn-1")

	_, err = r.RegisterStudent("conn-2", "Alice")
	assert.NoError(t, err)
}

func TestRegisterTeacher_NoNameAndMultiple(t *testing.T) {
	r := NewRegistry()
	t1 := r.RegisterTeacher("conn-t1")
	t2 := r.RegisterTeacher("conn-t2")

	assert.Equal(t, models.RoleTeacher, t1.Role)
	assert.Empty(t, t1.Name)
	assert.Equal(t, models.RoleTeacher, t2.Role)
	assert.Equal(t, 2, r.Count())
}

func TestUnregister_Idempotent(t *testing.T) {
	r := NewRegistry()
	r.RegisterTeacher("conn-1")

	r.Unregister("conn-1")
	r.Unregister("conn-1")
	r.Unregister("never-registered")

	assert.Equal(t, 0, r.Count())
	_, ok := r.Lookup("conn-1")
	assert.False(t, ok)
}

func TestListByRole_InsertionOrder(t *testing.T) {
	r := NewRegistry()
	r.RegisterTeacher("conn-t")
	_, _ = r.RegisterStudent("conn-1", "Alice")
	_, _ = r.RegisterStudent("conn-2", "Bob")
	_, _ = r.RegisterStudent("conn-3", "Carol")
	r.Unregister("conn-2")

	students := r.ListByRole(models.RoleStudent)
	names := make([]string, 0, len(students))
	for _, s := range students {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Alice", "Carol"}, names)

	teachers := r.ListByRole(models.RoleTeacher)
	assert.Len(t, teachers, 1)
	assert.Equal(t, "conn-t", teachers[0].ID)
}
