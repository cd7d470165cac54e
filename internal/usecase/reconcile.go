package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/phenrril/customerdesk/internal/domain"
)

// Reconciler es lo que una estrategia puede hacer sobre la lista del store.
type Reconciler interface {
	Refresh(ctx context.Context, term string) error
	ActiveSearch() string
	// Replace cambia el registro con el mismo ID; false si no se puede aplicar localmente.
	Replace(c domain.Customer) bool
	// Remove quita el registro; false si no se puede aplicar localmente.
	Remove(id int64) bool
}

// Strategy refleja una mutación exitosa en la lista.
type Strategy interface {
	Created(ctx context.Context, r Reconciler, c domain.Customer) error
	Updated(ctx context.Context, r Reconciler, c domain.Customer) error
	Deleted(ctx context.Context, r Reconciler, id int64) error
}

// RefetchStrategy vuelve a pedir el listado con la búsqueda activa. Es la
// opción por defecto: filtro y orden quedan siempre como los define el servidor.
type RefetchStrategy struct{}

func (RefetchStrategy) Created(ctx context.Context, r Reconciler, _ domain.Customer) error {
	return r.Refresh(ctx, r.ActiveSearch())
}

func (RefetchStrategy) Updated(ctx context.Context, r Reconciler, _ domain.Customer) error {
	return r.Refresh(ctx, r.ActiveSearch())
}

func (RefetchStrategy) Deleted(ctx context.Context, r Reconciler, _ int64) error {
	return r.Refresh(ctx, r.ActiveSearch())
}

// PatchStrategy aplica el cambio localmente cuando es seguro y si no cae a
// refetch. Un alta siempre refresca: solo el servidor sabe dónde ordena el
// registro nuevo y si entra en la búsqueda activa. Lo mismo vale para una
// edición con búsqueda activa.
type PatchStrategy struct{}

func (PatchStrategy) Created(ctx context.Context, r Reconciler, _ domain.Customer) error {
	return r.Refresh(ctx, r.ActiveSearch())
}

func (PatchStrategy) Updated(ctx context.Context, r Reconciler, c domain.Customer) error {
	if r.ActiveSearch() == "" && r.Replace(c) {
		return nil
	}
	return r.Refresh(ctx, r.ActiveSearch())
}

func (PatchStrategy) Deleted(ctx context.Context, r Reconciler, id int64) error {
	if r.Remove(id) {
		return nil
	}
	return r.Refresh(ctx, r.ActiveSearch())
}

// ParseStrategy interpreta RECONCILE_STRATEGY.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "refetch":
		return RefetchStrategy{}, nil
	case "patch":
		return PatchStrategy{}, nil
	}
	return nil, fmt.Errorf("estrategia desconocida %q (refetch|patch)", name)
}

func (s *Store) reconciler() Reconciler { return storeReconciler{s} }

// storeReconciler expone las operaciones locales sin sumarlas a la API pública del Store.
type storeReconciler struct{ s *Store }

func (r storeReconciler) Refresh(ctx context.Context, term string) error {
	return r.s.Refresh(ctx, term)
}

func (r storeReconciler) ActiveSearch() string { return r.s.ActiveSearch() }

func (r storeReconciler) Replace(c domain.Customer) bool {
	if !c.Complete() {
		return false
	}
	return r.s.patch(func(items []domain.Customer, total int) ([]domain.Customer, int, bool) {
		for i := range items {
			if items[i].ID == c.ID {
				out := append([]domain.Customer(nil), items...)
				out[i] = c
				return out, total, true
			}
		}
		return nil, 0, false
	})
}

func (r storeReconciler) Remove(id int64) bool {
	return r.s.patch(func(items []domain.Customer, total int) ([]domain.Customer, int, bool) {
		for i := range items {
			if items[i].ID == id {
				out := make([]domain.Customer, 0, len(items)-1)
				out = append(out, items[:i]...)
				out = append(out, items[i+1:]...)
				if total > 0 {
					total--
				}
				return out, total, true
			}
		}
		return nil, 0, false
	})
}

// patch reemplaza Items/Total juntos. No aplica si hay un listado en vuelo:
// su respuesta podría ser anterior a la mutación.
func (s *Store) patch(fn func(items []domain.Customer, total int) ([]domain.Customer, int, bool)) bool {
	s.mu.Lock()
	if s.inflight != nil || s.st.IsLoading {
		s.mu.Unlock()
		return false
	}
	items, total, ok := fn(s.st.Items, s.st.Total)
	if !ok {
		s.mu.Unlock()
		return false
	}
	// invalida cualquier respuesta anterior que todavía pudiera llegar
	s.seq++
	s.st.Items = items
	s.st.Total = total
	snap, subs := s.changedLocked()
	s.mu.Unlock()
	publish(snap, subs)
	return true
}
