package domain

import "context"

type CustomerRepo interface {
	List(ctx context.Context, search string) (ListResult, error)
	Create(ctx context.Context, c NewCustomer) (Customer, error)
	Update(ctx context.Context, id int64, f UpdateFields) (Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Session es el colaborador de autenticación; acá solo se consulta.
type Session interface {
	IsAuthenticated() bool
	UserID() (int64, bool)
}
