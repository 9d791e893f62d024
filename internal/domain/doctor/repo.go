package doctor

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the doctor persistence boundary.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
