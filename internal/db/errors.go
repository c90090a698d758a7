package db

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrLeadNotFound indicates an operation referenced an unknown lead.
type ErrLeadNotFound struct {
	LeadID uuid.UUID
}

func (e *ErrLeadNotFound) Error() string {
	return fmt.Sprintf("lead not found: %s", e.LeadID)
}

// ErrDomainExists indicates a lead with the same normalized domain already
// exists. Domains are unique and immutable after creation.
type ErrDomainExists struct {
	Domain string
}

func (e *ErrDomainExists) Error() string {
	return fmt.Sprintf("lead domain already exists: %s", e.Domain)
}
