package service

import (
	"github.com/google/uuid"
)

// AuthContext identifies the caller of a service operation. Every read and
// write is scoped to OrganizationID; there is no ambient tenant state.
type AuthContext struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Role           string
}

func (a AuthContext) validate() error {
	if a.OrganizationID == uuid.Nil {
		return unauthorized("missing organization")
	}
	return nil
}
