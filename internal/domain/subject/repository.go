package subject

import (
	"context"
)

// Repository defines the read operations on subject profiles.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Subject, error)
	ListWithBirthDate(ctx context.Context) ([]*Subject, error) // For the batch run
}
