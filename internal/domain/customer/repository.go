package customer

import (
	"context"
)

// Repository persists whole customer documents, sub-documents included.
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	Get(ctx context.Context, id string) (*Customer, error)
	Update(ctx context.Context, customer *Customer) error
}
