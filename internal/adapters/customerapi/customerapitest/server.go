// Package customerapitest levanta una API de clientes en memoria para tests.
package customerapitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/phenrril/customerdesk/internal/domain"
)

type Server struct {
	*httptest.Server

	mu        sync.Mutex
	nextID    int64
	customers map[int64]domain.Customer
	users     map[int64]string
	requests  []*http.Request
	bodies    [][]byte
	fail      map[string]Failure
}

// Failure fuerza una respuesta de error para una ruta ("GET /customers").
type Failure struct {
	Status int
	Body   string
}

func NewServer() *Server {
	s := &Server{
		nextID:    1,
		customers: map[int64]domain.Customer{},
		users:     map[int64]string{1: "bob"},
		fail:      map[string]Failure{},
	}
	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/customers", s.list)
	r.Post("/customers", s.create)
	r.Put("/customers/{id}", s.update)
	r.Delete("/customers/{id}", s.delete)
	s.Server = httptest.NewServer(r)
	return s
}

func (s *Server) AddUser(id int64, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = username
}

// Seed carga un cliente tal cual y devuelve el registro guardado.
func (s *Server) Seed(c domain.Customer) domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextID
	}
	if c.ID >= s.nextID {
		s.nextID = c.ID + 1
	}
	s.customers[c.ID] = c
	return c
}

func (s *Server) Fail(route string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[route] = f
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = map[string]Failure{}
}

// Requests devuelve una copia de los requests recibidos.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

func (s *Server) Bodies() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.bodies...)
}

func (s *Server) Customer(id int64) (domain.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	return c, ok
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}
		s.mu.Lock()
		s.requests = append(s.requests, r.Clone(r.Context()))
		s.bodies = append(s.bodies, body)
		route := r.Method + " " + r.URL.Path
		if strings.HasPrefix(r.URL.Path, "/customers/") {
			route = r.Method + " /customers/{id}"
		}
		f, failing := s.fail[route]
		s.mu.Unlock()
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.Status)
			_, _ = w.Write([]byte(f.Body))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	term := strings.ToLower(r.URL.Query().Get("search"))
	s.mu.Lock()
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if term == "" ||
			strings.Contains(strings.ToLower(c.CompanyName), term) ||
			strings.Contains(strings.ToLower(c.CustomerID), term) ||
			strings.Contains(strings.ToLower(c.Address), term) ||
			strings.Contains(strings.ToLower(c.ContactNo), term) {
			out = append(out, c)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	writeJSON(w, http.StatusOK, domain.ListResult{Customers: out, Total: len(out)})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var nc domain.NewCustomer
	if err := json.NewDecoder(r.Body).Decode(&nc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid body"})
		return
	}
	var missing []string
	if nc.CustomerID == "" {
		missing = append(missing, "customerId should not be empty")
	}
	if nc.CompanyName == "" {
		missing = append(missing, "companyName should not be empty")
	}
	if nc.Address == "" {
		missing = append(missing, "address should not be empty")
	}
	if nc.ContactNo == "" {
		missing = append(missing, "contactNo should not be empty")
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": missing})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.CustomerID == nc.CustomerID {
			writeJSON(w, http.StatusConflict, map[string]any{"message": "Customer ID already exists"})
			return
		}
	}
	username, ok := s.users[nc.UserID]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "User not found"})
		return
	}
	c := domain.Customer{
		ID:          s.nextID,
		CustomerID:  nc.CustomerID,
		CompanyName: nc.CompanyName,
		Address:     nc.Address,
		ContactNo:   nc.ContactNo,
		UserID:      nc.UserID,
		Username:    username,
	}
	s.nextID++
	s.customers[c.ID] = c
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid id"})
		return
	}
	var f domain.UpdateFields
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Customer with ID " + strconv.FormatInt(id, 10) + " not found"})
		return
	}
	c = f.Apply(c)
	s.customers[id] = c
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid id"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Customer with ID " + strconv.FormatInt(id, 10) + " not found"})
		return
	}
	delete(s.customers, id)
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
