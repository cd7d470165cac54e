package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phenrril/customerdesk/internal/domain"
)

// memRepo es un repo en memoria con búsqueda por subcadena.
type memRepo struct {
	mu        sync.Mutex
	nextID    int64
	customers []domain.Customer
	lists     []string
	creates   []domain.NewCustomer
	updates   []int64
	deletes   []int64

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	// gate, si no es nil, bloquea cada llamada a List hasta que el test la libere.
	gate chan *pendingList
	// mutGate bloquea Create/Update/Delete hasta recibir un valor.
	mutGate chan struct{}
}

type pendingList struct {
	term    string
	ctx     context.Context
	release chan listReply
}

type listReply struct {
	res domain.ListResult
	err error
}

func newMemRepo(cs ...domain.Customer) *memRepo {
	r := &memRepo{nextID: 1}
	for _, c := range cs {
		if c.ID == 0 {
			c.ID = r.nextID
		}
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
		r.customers = append(r.customers, c)
	}
	return r
}

func (r *memRepo) List(ctx context.Context, term string) (domain.ListResult, error) {
	r.mu.Lock()
	r.lists = append(r.lists, term)
	gate := r.gate
	r.mu.Unlock()

	if gate != nil {
		p := &pendingList{term: term, ctx: ctx, release: make(chan listReply, 1)}
		gate <- p
		select {
		case rep := <-p.release:
			return rep.res, rep.err
		case <-ctx.Done():
			return domain.ListResult{}, &domain.TransportError{Op: "list", Err: ctx.Err()}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return domain.ListResult{}, r.listErr
	}
	out := []domain.Customer{}
	t := strings.ToLower(term)
	for _, c := range r.customers {
		if t == "" || strings.Contains(strings.ToLower(c.CompanyName), t) || strings.Contains(strings.ToLower(c.CustomerID), t) {
			out = append(out, c)
		}
	}
	return domain.ListResult{Customers: out, Total: len(out)}, nil
}

func (r *memRepo) waitMut(ctx context.Context) error {
	r.mu.Lock()
	g := r.mutGate
	r.mu.Unlock()
	if g == nil {
		return nil
	}
	select {
	case <-g:
		return nil
	case <-ctx.Done():
		return &domain.TransportError{Op: "mutation", Err: ctx.Err()}
	}
}

func (r *memRepo) Create(ctx context.Context, nc domain.NewCustomer) (domain.Customer, error) {
	if err := r.waitMut(ctx); err != nil {
		return domain.Customer{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates = append(r.creates, nc)
	if r.createErr != nil {
		return domain.Customer{}, r.createErr
	}
	c := domain.Customer{
		ID:          r.nextID,
		CustomerID:  nc.CustomerID,
		CompanyName: nc.CompanyName,
		Address:     nc.Address,
		ContactNo:   nc.ContactNo,
		UserID:      nc.UserID,
		Username:    "bob",
	}
	r.nextID++
	r.customers = append(r.customers, c)
	return c, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, f domain.UpdateFields) (domain.Customer, error) {
	if err := r.waitMut(ctx); err != nil {
		return domain.Customer{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, id)
	if r.updateErr != nil {
		return domain.Customer{}, r.updateErr
	}
	for i, c := range r.customers {
		if c.ID == id {
			r.customers[i] = f.Apply(c)
			return r.customers[i], nil
		}
	}
	return domain.Customer{}, &domain.RequestError{Op: "update", Status: 404, Message: "not found"}
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	if err := r.waitMut(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, id)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, c := range r.customers {
		if c.ID == id {
			r.customers = append(r.customers[:i], r.customers[i+1:]...)
			return nil
		}
	}
	return &domain.RequestError{Op: "delete", Status: 404, Message: "not found"}
}

func (r *memRepo) listCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lists...)
}

func (r *memRepo) createCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.creates)
}

type fakeSession struct {
	authenticated bool
	userID        int64
}

func (s fakeSession) IsAuthenticated() bool { return s.authenticated }

func (s fakeSession) UserID() (int64, bool) { return s.userID, s.userID > 0 }

func loggedIn() fakeSession { return fakeSession{authenticated: true, userID: 1} }

func nextPending(t *testing.T, gate chan *pendingList) *pendingList {
	t.Helper()
	select {
	case p := <-gate:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no llegó el listado esperado")
		return nil
	}
}

func customer(id int64, cid, name string) domain.Customer {
	return domain.Customer{ID: id, CustomerID: cid, CompanyName: name, Address: "1 Rd", ContactNo: "555", UserID: 1, Username: "bob"}
}
