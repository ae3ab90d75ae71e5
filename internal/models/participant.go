package models

// Role identifies what a connected participant may do.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Participant is one live connection with an assigned role.
// ID is the transport connection id, unique per connection and opaque here.
// Name is set for students only.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role Role   `json:"role"`
}
