// Package session tracks the participants currently connected to the
// classroom: who they are, their role, and the order they joined in.
package session

import (
	"errors"
	"regexp"
	"strings"

	"github.com/classpulse/backend/internal/models"
)

// Join failures, delivered to the offending connection as error events.
var (
	ErrInvalidName = errors.New("Invalid name format")
	ErrNameLength  = errors.New("Name must be between 2 and 30 characters")
	ErrNameChars   = errors.New("Name can only contain letters, numbers, and spaces")
	ErrNameTaken   = errors.New("Name already taken")
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9\s]+$`)

// Registry owns the set of connected participants, keyed by connection id.
// It is not safe for concurrent use; the live service serializes all access.
type Registry struct {
	participants map[string]models.Participant
	order        []string // connection ids in registration order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{participants: make(map[string]models.Participant)}
}

// RegisterTeacher adds a teacher connection. Teachers carry no display name
// and any number of them may be registered at once.
func (r *Registry) RegisterTeacher(connID string) models.Participant {
	p := models.Participant{ID: connID, Role: models.RoleTeacher}
	r.put(p)
	return p
}

// RegisterStudent validates the display name and adds a student connection.
// The name must trim to 2-30 characters of letters, digits and whitespace,
// and must not collide with another connected student's name.
func (r *Registry) RegisterStudent(connID, name string) (models.Participant, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return models.Participant{}, ErrInvalidName
	}
	if len(trimmed) < 2 || len(trimmed) > 30 {
		return models.Participant{}, ErrNameLength
	}
	if !namePattern.MatchString(trimmed) {
		return models.Participant{}, ErrNameChars
	}
	for _, p := range r.participants {
		if p.Role == models.RoleStudent && p.Name == trimmed {
			return models.Participant{}, ErrNameTaken
		}
	}
	p := models.Participant{ID: connID, Name: trimmed, Role: models.RoleStudent}
	r.put(p)
	return p, nil
}

// Unregister removes a connection. Unknown ids are ignored.
func (r *Registry) Unregister(connID string) {
	if _, ok := r.participants[connID]; !ok {
		return
	}
	delete(r.participants, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the participant for a connection id, if registered.
func (r *Registry) Lookup(connID string) (models.Participant, bool) {
	p, ok := r.participants[connID]
	return p, ok
}

// ListByRole returns participants with the given role in registration order.
func (r *Registry) ListByRole(role models.Role) []models.Participant {
	var out []models.Participant
	for _, id := range r.order {
		if p, ok := r.participants[id]; ok && p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the number of registered participants.
func (r *Registry) Count() int {
	return len(r.participants)
}

func (r *Registry) put(p models.Participant) {
	if _, ok := r.participants[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.participants[p.ID] = p
}
