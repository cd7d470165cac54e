package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/phenrril/customerdesk/internal/domain"
)

var ErrNoDialog = errors.New("no hay diálogo abierto")

type DialogKind int

const (
	DialogNone DialogKind = iota
	DialogAdd
	DialogEdit
	DialogDelete
)

func (k DialogKind) String() string {
	switch k {
	case DialogAdd:
		return "add"
	case DialogEdit:
		return "edit"
	case DialogDelete:
		return "delete"
	}
	return "none"
}

// Dialog es el único diálogo abierto (o ninguno). Target es la foto en
// memoria del cliente a editar o borrar: puede estar desactualizada respecto
// del servidor.
type Dialog struct {
	Kind   DialogKind
	Target *domain.Customer
	Draft  domain.Draft
	Err    error
}

func (d Dialog) Open() bool { return d.Kind != DialogNone }

// OpenAdd abre el alta con el formulario vacío. Abrir un diálogo reemplaza
// al que hubiera y descarta su borrador; con una mutación en curso devuelve ErrBusy.
func (s *Store) OpenAdd() error {
	return s.openDialog(Dialog{Kind: DialogAdd})
}

// OpenEdit abre la edición con el formulario precargado desde c.
func (s *Store) OpenEdit(c domain.Customer) error {
	return s.openDialog(Dialog{Kind: DialogEdit, Target: &c, Draft: domain.DraftFrom(c)})
}

func (s *Store) OpenDelete(c domain.Customer) error {
	return s.openDialog(Dialog{Kind: DialogDelete, Target: &c})
}

func (s *Store) openDialog(d Dialog) error {
	s.mu.Lock()
	if s.st.Busy() {
		s.mu.Unlock()
		return ErrBusy
	}
	s.st.Dialog = d
	snap, subs := s.changedLocked()
	s.mu.Unlock()
	publish(snap, subs)
	return nil
}

// Cancel cierra el diálogo y vacía el borrador.
func (s *Store) Cancel() error {
	return s.openDialog(Dialog{})
}

func (s *Store) Dialog() Dialog {
	return s.Snapshot().Dialog
}

// SetField edita el borrador del diálogo de alta o edición.
func (s *Store) SetField(f domain.Field, v string) error {
	s.mu.Lock()
	if s.st.Dialog.Kind != DialogAdd && s.st.Dialog.Kind != DialogEdit {
		s.mu.Unlock()
		return ErrNoDialog
	}
	if !s.st.Dialog.Draft.Set(f, v) {
		s.mu.Unlock()
		return fmt.Errorf("campo desconocido %q", f)
	}
	snap, subs := s.changedLocked()
	s.mu.Unlock()
	publish(snap, subs)
	return nil
}

// CanSubmit habilita el botón de guardar/confirmar. Es orientativo: el
// servidor valida de nuevo.
func (s *Store) CanSubmit() bool {
	st := s.Snapshot()
	if st.Busy() {
		return false
	}
	switch st.Dialog.Kind {
	case DialogAdd, DialogEdit:
		return st.Dialog.Draft.Validate() == nil
	case DialogDelete:
		return st.Dialog.Target != nil
	}
	return false
}

// Submit envía el diálogo abierto. Si falla, el diálogo sigue abierto con el error.
func (s *Store) Submit(ctx context.Context) error {
	d := s.Dialog()
	switch d.Kind {
	case DialogAdd:
		_, err := s.Create(ctx, d.Draft)
		return err
	case DialogEdit:
		if err := d.Draft.Validate(); err != nil {
			s.reject(opUpdate, d.Target.ID, err)
			return err
		}
		_, err := s.Update(ctx, d.Target.ID, d.Draft.Fields())
		return err
	case DialogDelete:
		return s.Delete(ctx, d.Target.ID)
	}
	return ErrNoDialog
}
