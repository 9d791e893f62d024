package patient

import "context"

// Repository is the patient persistence boundary.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByPhone(ctx context.Context, phone string) (*Patient, error)
	Exists(ctx context.Context, phone string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
