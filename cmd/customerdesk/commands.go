package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/gnuflag"

	"github.com/phenrril/customerdesk/internal/adapters/session"
	"github.com/phenrril/customerdesk/internal/app"
	"github.com/phenrril/customerdesk/internal/domain"
	"github.com/phenrril/customerdesk/internal/usecase"
)

type command struct {
	name    string
	args    string
	purpose string
	// protegido: exige sesión iniciada
	protected bool
	run       func(ctx context.Context, a *app.App, args []string, out io.Writer) error
}

var commands []command

func init() {
	commands = []command{
		{name: "login", args: "--token T --user-id N --username U", purpose: "guarda la sesión", run: cmdLogin},
		{name: "logout", purpose: "borra la sesión", run: cmdLogout},
		{name: "whoami", purpose: "muestra el usuario de la sesión", run: cmdWhoami},
		{name: "list", args: "[--search S]", purpose: "lista clientes", protected: true, run: cmdList},
		{name: "add", args: "--customer-id X --company X --address X --contact X", purpose: "crea un cliente", protected: true, run: cmdAdd},
		{name: "edit", args: "--id N [--customer-id X] [--company X] [--address X] [--contact X]", purpose: "edita un cliente", protected: true, run: cmdEdit},
		{name: "delete", args: "--id N [--yes]", purpose: "elimina un cliente", protected: true, run: cmdDelete},
		{name: "export", args: "[--search S] [--format csv|xlsx]", purpose: "exporta la lista actual", protected: true, run: cmdExport},
		{name: "browse", purpose: "búsqueda interactiva", protected: true, run: cmdBrowse},
	}
}

var errUsage = errors.New("uso incorrecto")

func run(ctx context.Context, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		usage(out)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(errOut, "comando desconocido %q\n", args[0])
		usage(errOut)
		return 2
	}

	if cmd.protected {
		if err := a.RequireSession(); err != nil {
			fmt.Fprintln(errOut, "Iniciá sesión primero: customerdesk login --token T --user-id N --username U")
			return 1
		}
	}

	if err := cmd.run(ctx, a, args[1:], out); err != nil {
		if errors.Is(err, gnuflag.ErrHelp) {
			return 0
		}
		if errors.Is(err, errUsage) {
			fmt.Fprintf(errOut, "uso: customerdesk %s %s\n", cmd.name, cmd.args)
			return 2
		}
		fmt.Fprintf(errOut, "Error: %s\n", domain.Message(err))
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "uso: customerdesk <comando> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.purpose)
		if c.args != "" {
			fmt.Fprintf(w, "           %s\n", c.args)
		}
	}
}

func newFlags(name string, out io.Writer) *gnuflag.FlagSet {
	f := gnuflag.NewFlagSet(name, gnuflag.ContinueOnError)
	f.SetOutput(out)
	return f
}

func parse(f *gnuflag.FlagSet, args []string) error {
	if err := f.Parse(true, args); err != nil {
		if errors.Is(err, gnuflag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if len(f.Args()) > 0 {
		return fmt.Errorf("%w: argumentos de más %q", errUsage, f.Args())
	}
	return nil
}

func cmdLogin(_ context.Context, a *app.App, args []string, out io.Writer) error {
	var (
		token string
		u     session.User
	)
	f := newFlags("login", out)
	f.StringVar(&token, "token", "", "token de acceso")
	f.Int64Var(&u.ID, "user-id", 0, "id del usuario")
	f.StringVar(&u.Username, "username", "", "nombre del usuario")
	if err := parse(f, args); err != nil {
		return err
	}
	if token == "" || u.ID <= 0 || u.Username == "" {
		return errUsage
	}
	ok, err := a.Login(token, u)
	if err != nil {
		return err
	}
	if !ok {
		cur, _ := a.Session.User()
		fmt.Fprintf(out, "Ya hay una sesión iniciada como %s\n", cur.Username)
		return nil
	}
	fmt.Fprintf(out, "Sesión iniciada como %s\n", u.Username)
	return nil
}

func cmdLogout(_ context.Context, a *app.App, args []string, out io.Writer) error {
	if err := parse(newFlags("logout", out), args); err != nil {
		return err
	}
	if err := a.Session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Sesión cerrada")
	return nil
}

func cmdWhoami(_ context.Context, a *app.App, args []string, out io.Writer) error {
	if err := parse(newFlags("whoami", out), args); err != nil {
		return err
	}
	u, ok := a.Session.User()
	if !ok || !a.Session.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}
	fmt.Fprintf(out, "%s (id %d)\n", u.Username, u.ID)
	return nil
}

func cmdList(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	var search string
	f := newFlags("list", out)
	f.StringVar(&search, "search", "", "filtra por texto")
	if err := parse(f, args); err != nil {
		return err
	}
	err := a.Store.Refresh(ctx, search)
	renderCustomers(out, a.Store.Snapshot())
	if err != nil {
		return err
	}
	return nil
}

type draftFlags struct {
	values map[domain.Field]*string
}

func addDraftFlags(f *gnuflag.FlagSet) draftFlags {
	d := draftFlags{values: map[domain.Field]*string{}}
	for _, def := range []struct {
		field domain.Field
		name  string
		help  string
	}{
		{domain.FieldCustomerID, "customer-id", "código del cliente"},
		{domain.FieldCompanyName, "company", "razón social"},
		{domain.FieldAddress, "address", "dirección"},
		{domain.FieldContactNo, "contact", "teléfono de contacto"},
	} {
		v := new(string)
		f.StringVar(v, def.name, "", def.help)
		d.values[def.field] = v
	}
	return d
}

// apply carga en el diálogo abierto los flags que vinieron con valor.
func (d draftFlags) apply(s *usecase.Store) (int, error) {
	n := 0
	for field, v := range d.values {
		if *v == "" {
			continue
		}
		if err := s.SetField(field, *v); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func cmdAdd(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	f := newFlags("add", out)
	fields := addDraftFlags(f)
	if err := parse(f, args); err != nil {
		return err
	}
	if err := a.Store.OpenAdd(); err != nil {
		return err
	}
	if _, err := fields.apply(a.Store); err != nil {
		return err
	}
	if err := a.Store.Submit(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Cliente creado")
	renderCustomers(out, a.Store.Snapshot())
	return nil
}

func findCustomer(ctx context.Context, a *app.App, id int64) (domain.Customer, error) {
	if err := a.Store.Refresh(ctx, ""); err != nil {
		return domain.Customer{}, err
	}
	for _, c := range a.Store.Snapshot().Items {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Customer{}, fmt.Errorf("cliente %d: %w", id, domain.ErrNotFound)
}

func cmdEdit(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	var id int64
	f := newFlags("edit", out)
	f.Int64Var(&id, "id", 0, "id del cliente")
	fields := addDraftFlags(f)
	if err := parse(f, args); err != nil {
		return err
	}
	if id <= 0 {
		return errUsage
	}
	c, err := findCustomer(ctx, a, id)
	if err != nil {
		return err
	}
	if err := a.Store.OpenEdit(c); err != nil {
		return err
	}
	n, err := fields.apply(a.Store)
	if err != nil {
		return err
	}
	if n == 0 {
		_ = a.Store.Cancel()
		return usecase.ErrNoChanges
	}
	if err := a.Store.Submit(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Cliente actualizado")
	for _, updated := range a.Store.Snapshot().Items {
		if updated.ID == id {
			renderCustomer(out, updated)
		}
	}
	return nil
}

func cmdDelete(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	var (
		id  int64
		yes bool
	)
	f := newFlags("delete", out)
	f.Int64Var(&id, "id", 0, "id del cliente")
	f.BoolVar(&yes, "yes", false, "confirma sin preguntar")
	if err := parse(f, args); err != nil {
		return err
	}
	if id <= 0 {
		return errUsage
	}
	c, err := findCustomer(ctx, a, id)
	if err != nil {
		return err
	}
	if err := a.Store.OpenDelete(c); err != nil {
		return err
	}
	if !yes {
		_ = a.Store.Cancel()
		fmt.Fprintf(out, "¿Eliminar %s (%s)? Repetí el comando con --yes para confirmar\n", c.CompanyName, c.CustomerID)
		return nil
	}
	if err := a.Store.Submit(ctx); err != nil {
		return err
	}
	fmt.Fprintf(out, "Cliente %s eliminado\n", c.CustomerID)
	return nil
}

func cmdExport(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	var search, format string
	f := newFlags("export", out)
	f.StringVar(&search, "search", "", "filtra por texto antes de exportar")
	f.StringVar(&format, "format", "csv", "csv o xlsx")
	if err := parse(f, args); err != nil {
		return err
	}
	if _, err := app.Exporter(format); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if err := a.Store.Refresh(ctx, search); err != nil {
		return err
	}
	if !a.Store.CanExport() {
		fmt.Fprintln(out, "No hay clientes para exportar")
		return nil
	}
	path, size, err := a.Export(strings.ToLower(format), time.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Exportado %s (%s)\n", path, humanize.Bytes(uint64(size)))
	return nil
}
