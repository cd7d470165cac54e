package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/customerdesk/internal/domain"
)

var (
	// ErrSuperseded: la respuesta llegó pero ya había un listado más nuevo.
	ErrSuperseded = errors.New("listado reemplazado por uno más reciente")
	ErrBusy       = errors.New("hay otra operación en curso")
	ErrNoChanges  = errors.New("no hay cambios para guardar")
)

// State es una foto del store; se entrega por copia.
type State struct {
	Items      []domain.Customer
	Total      int
	IsLoading  bool
	Err        error
	Search     string
	IsCreating bool
	IsUpdating bool
	IsDeleting bool
	Dialog     Dialog
	// Version crece con cada cambio, para descartar fotos viejas.
	Version uint64
}

func (s State) Busy() bool { return s.IsCreating || s.IsUpdating || s.IsDeleting }

type Options struct {
	// Strategy decide cómo se refleja una mutación en la lista (por defecto refetch).
	Strategy Strategy
	// KeepSuperseded deja terminar los listados reemplazados en lugar de cancelarlos.
	KeepSuperseded bool
}

// Store es el dueño de la lista canónica de clientes y de los diálogos.
// Todas las escrituras de Items/Total pasan por Refresh o por la estrategia
// de reconciliación, siempre reemplazando el par completo.
type Store struct {
	repo           domain.CustomerRepo
	session        domain.Session
	strategy       Strategy
	keepSuperseded bool

	mu       sync.Mutex
	st       State
	seq      uint64
	inflight context.CancelFunc
	subs     []func(State)
}

func NewStore(repo domain.CustomerRepo, session domain.Session, opts Options) *Store {
	st := opts.Strategy
	if st == nil {
		st = RefetchStrategy{}
	}
	return &Store{
		repo:           repo,
		session:        session,
		strategy:       st,
		keepSuperseded: opts.KeepSuperseded,
		st:             State{Items: []domain.Customer{}},
	}
}

// Snapshot devuelve el estado actual.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registra fn para recibir cada estado nuevo. fn no debe llamar al store de forma bloqueante.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) snapshotLocked() State {
	out := s.st
	out.Items = append([]domain.Customer(nil), s.st.Items...)
	if s.st.Dialog.Target != nil {
		t := *s.st.Dialog.Target
		out.Dialog.Target = &t
	}
	return out
}

// changedLocked marca un cambio y devuelve lo que hay que publicar.
func (s *Store) changedLocked() (State, []func(State)) {
	s.st.Version++
	return s.snapshotLocked(), append([]func(State){}, s.subs...)
}

func publish(st State, subs []func(State)) {
	for _, fn := range subs {
		fn(st)
	}
}

// update aplica fn bajo lock y publica el resultado.
func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.st)
	snap, subs := s.changedLocked()
	s.mu.Unlock()
	publish(snap, subs)
}

// Refresh pide el listado para term. Solo se aplica la respuesta del último
// listado emitido; las anteriores devuelven ErrSuperseded sin tocar el estado.
func (s *Store) Refresh(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.inflight != nil && !s.keepSuperseded {
		s.inflight()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.inflight = cancel
	s.st.IsLoading = true
	s.st.Err = nil
	s.st.Search = term
	snap, subs := s.changedLocked()
	s.mu.Unlock()
	publish(snap, subs)

	start := time.Now()
	res, err := s.repo.List(reqCtx, term)

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		cancel()
		log.Debug().Uint64("seq", seq).Str("search", term).Msg("respuesta de listado descartada")
		return ErrSuperseded
	}
	cancel()
	s.inflight = nil
	s.st.IsLoading = false
	if err != nil {
		// se conserva la lista anterior
		s.st.Err = err
	} else {
		s.st.Items = res.Customers
		s.st.Total = res.Total
	}
	snap, subs = s.changedLocked()
	s.mu.Unlock()
	publish(snap, subs)

	if err != nil {
		log.Error().Err(err).Str("search", term).Msg("listado de clientes")
		return err
	}
	log.Debug().Str("search", term).Int("total", res.Total).Dur("duration", time.Since(start)).Msg("clientes cargados")
	return nil
}

// Retry repite el listado con la búsqueda activa.
func (s *Store) Retry(ctx context.Context) error {
	return s.Refresh(ctx, s.ActiveSearch())
}

func (s *Store) ActiveSearch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Search
}

// CanExport replica el botón de exportar: hay datos y no se está cargando.
func (s *Store) CanExport() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.Items) > 0 && !s.st.IsLoading
}

// Export corre exp sobre la lista actual.
func (s *Store) Export(exp domain.Exporter, now time.Time) (domain.Artifact, error) {
	items := s.Snapshot().Items
	if len(items) == 0 {
		log.Warn().Msg("no hay clientes para exportar")
		return domain.Artifact{}, domain.ErrNothingToExport
	}
	a, err := exp(items, now)
	if err != nil {
		return domain.Artifact{}, err
	}
	log.Info().Str("file", a.Filename).Int("clientes", len(items)).Msg("exportación lista")
	return a, nil
}

type mutation int

const (
	opCreate mutation = iota
	opUpdate
	opDelete
)

func (m mutation) String() string {
	switch m {
	case opCreate:
		return "create"
	case opUpdate:
		return "update"
	}
	return "delete"
}

func (m mutation) dialog() DialogKind {
	switch m {
	case opCreate:
		return DialogAdd
	case opUpdate:
		return DialogEdit
	}
	return DialogDelete
}

func setFlag(st *State, m mutation, v bool) {
	switch m {
	case opCreate:
		st.IsCreating = v
	case opUpdate:
		st.IsUpdating = v
	case opDelete:
		st.IsDeleting = v
	}
}

// begin toma el turno de mutación; de a una por vez.
func (s *Store) begin(m mutation) error {
	s.mu.Lock()
	if s.st.Busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	setFlag(&s.st, m, true)
	if s.st.Dialog.Kind == m.dialog() {
		s.st.Dialog.Err = nil
	}
	snap, subs := s.changedLocked()
	s.mu.Unlock()
	publish(snap, subs)
	return nil
}

// fail deja el diálogo abierto con el error y libera el turno.
func (s *Store) fail(m mutation, id int64, err error) {
	s.update(func(st *State) {
		setFlag(st, m, false)
		if dialogMatches(st.Dialog, m.dialog(), id) {
			st.Dialog.Err = err
		}
	})
	log.Warn().Err(err).Str("op", m.String()).Int64("id", id).Msg("mutación fallida")
}

// succeed cierra el diálogo de la operación; el turno se libera después de reconciliar.
func (s *Store) succeed(m mutation, id int64) {
	s.update(func(st *State) {
		if dialogMatches(st.Dialog, m.dialog(), id) {
			st.Dialog = Dialog{}
		}
	})
}

func (s *Store) release(m mutation) {
	s.update(func(st *State) { setFlag(st, m, false) })
}

// reject registra un error de validación en el diálogo sin tomar el turno.
func (s *Store) reject(m mutation, id int64, err error) {
	s.update(func(st *State) {
		if dialogMatches(st.Dialog, m.dialog(), id) {
			st.Dialog.Err = err
		}
	})
}

func dialogMatches(d Dialog, kind DialogKind, id int64) bool {
	if d.Kind != kind {
		return false
	}
	if kind == DialogAdd {
		return true
	}
	return d.Target != nil && d.Target.ID == id
}

// Create da de alta el cliente a nombre del usuario de la sesión.
func (s *Store) Create(ctx context.Context, d domain.Draft) (domain.Customer, error) {
	if err := d.Validate(); err != nil {
		s.reject(opCreate, 0, err)
		return domain.Customer{}, err
	}
	if s.session == nil || !s.session.IsAuthenticated() {
		s.reject(opCreate, 0, domain.ErrUnauthenticated)
		return domain.Customer{}, domain.ErrUnauthenticated
	}
	uid, ok := s.session.UserID()
	if !ok {
		s.reject(opCreate, 0, domain.ErrNoUser)
		return domain.Customer{}, domain.ErrNoUser
	}
	if err := s.begin(opCreate); err != nil {
		return domain.Customer{}, err
	}
	defer s.release(opCreate)

	c, err := s.repo.Create(ctx, d.ForUser(uid))
	if err != nil {
		s.fail(opCreate, 0, err)
		return domain.Customer{}, err
	}
	log.Info().Int64("id", c.ID).Str("customer_id", c.CustomerID).Msg("cliente creado")
	s.succeed(opCreate, 0)
	s.reconcile(s.strategy.Created(ctx, s.reconciler(), c))
	return c, nil
}

func (s *Store) Update(ctx context.Context, id int64, f domain.UpdateFields) (domain.Customer, error) {
	if f.Empty() {
		s.reject(opUpdate, id, ErrNoChanges)
		return domain.Customer{}, ErrNoChanges
	}
	if err := f.Validate(); err != nil {
		s.reject(opUpdate, id, err)
		return domain.Customer{}, err
	}
	if err := s.begin(opUpdate); err != nil {
		return domain.Customer{}, err
	}
	defer s.release(opUpdate)

	c, err := s.repo.Update(ctx, id, f)
	if err != nil {
		s.fail(opUpdate, id, err)
		return domain.Customer{}, err
	}
	log.Info().Int64("id", id).Msg("cliente actualizado")
	s.succeed(opUpdate, id)
	s.reconcile(s.strategy.Updated(ctx, s.reconciler(), c))
	return c, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.begin(opDelete); err != nil {
		return err
	}
	defer s.release(opDelete)

	if err := s.repo.Delete(ctx, id); err != nil {
		s.fail(opDelete, id, err)
		return err
	}
	log.Info().Int64("id", id).Msg("cliente eliminado")
	s.succeed(opDelete, id)
	s.reconcile(s.strategy.Deleted(ctx, s.reconciler(), id))
	return nil
}

// reconcile: la mutación ya se hizo; un error del listado queda en State.Err.
func (s *Store) reconcile(err error) {
	if err != nil && !errors.Is(err, ErrSuperseded) {
		log.Warn().Err(err).Msg("no se pudo refrescar después de la mutación")
	}
}
