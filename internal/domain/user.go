package domain

import "time"

// User is a directory entry owned by the identity collaborator; the service only reads it.
type User struct {
	ID        string
	Name      string
	Email     string
	Roles     RoleSet
	CreatedAt time.Time
}
