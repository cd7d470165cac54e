package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/customerdesk/internal/adapters/customerapi/customerapitest"
	"github.com/phenrril/customerdesk/internal/app"
	"github.com/phenrril/customerdesk/internal/domain"
)

type harness struct {
	t   *testing.T
	srv *customerapitest.Server
	app *app.App
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := customerapitest.NewServer()
	t.Cleanup(srv.Close)
	dir := t.TempDir()
	a, err := app.NewApp(context.Background(), app.Config{
		APIURL:      srv.URL,
		HTTPTimeout: 2 * time.Second,
		SearchDelay: 500 * time.Millisecond,
		SessionFile: filepath.Join(dir, "session.json"),
		ExportDir:   dir,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return &harness{t: t, srv: srv, app: a, dir: dir}
}

func (h *harness) run(args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), h.app, args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func (h *harness) login() {
	code, _, errOut := h.run("login", "--token", "tok", "--user-id", "1", "--username", "bob")
	require.Equal(h.t, 0, code, errOut)
}

func (h *harness) seed(cid, name string) domain.Customer {
	return h.srv.Seed(domain.Customer{CustomerID: cid, CompanyName: name, Address: "1 Rd", ContactNo: "555", UserID: 1, Username: "bob"})
}

func TestRun_Usage(t *testing.T) {
	h := newHarness(t)
	code, out, _ := h.run()
	assert.Equal(t, 2, code)
	assert.Contains(t, out, "browse")

	code, _, errOut := h.run("nada")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `comando desconocido "nada"`)
}

func TestRun_ProtectedCommandsNeedSession(t *testing.T) {
	h := newHarness(t)
	for _, cmd := range []string{"list", "add", "edit", "delete", "export", "browse"} {
		code, _, errOut := h.run(cmd)
		assert.Equal(t, 1, code, cmd)
		assert.Contains(t, errOut, "Iniciá sesión", cmd)
	}
	assert.Empty(t, h.srv.Requests())
}

func TestRun_LoginLogout(t *testing.T) {
	h := newHarness(t)

	code, _, _ := h.run("login", "--token", "tok")
	assert.Equal(t, 2, code)

	h.login()
	code, out, _ := h.run("whoami")
	assert.Equal(t, 0, code)
	assert.Equal(t, "bob (id 1)\n", out)

	code, out, _ = h.run("login", "--token", "otro", "--user-id", "2", "--username", "ann")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Ya hay una sesión iniciada como bob")

	code, _, _ = h.run("logout")
	assert.Equal(t, 0, code)
	code, _, _ = h.run("whoami")
	assert.Equal(t, 1, code)
}

func TestRun_List(t *testing.T) {
	h := newHarness(t)
	h.seed("CUST-001", "Acme")
	h.seed("CUST-002", "Globex")
	h.login()

	code, out, _ := h.run("list")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Globex")
	assert.Contains(t, out, "2 clientes")

	code, out, _ = h.run("list", "--search", "glob")
	assert.Equal(t, 0, code)
	assert.NotContains(t, out, "Acme")
	assert.Contains(t, out, `1 clientes para "glob"`)

	code, out, _ = h.run("list", "--search", "zzz")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, `Sin resultados para "zzz"`)
}

func TestRun_ListFailure(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.srv.Fail("GET /customers", customerapitest.Failure{Status: 500})

	code, out, errOut := h.run("list")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "HTTP error, status 500")
	assert.Contains(t, errOut, "HTTP error, status 500")
}

func TestRun_Add(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, out, errOut := h.run("add", "--customer-id", "CUST-009", "--company", "Initech", "--address", "9 St", "--contact", "999")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Cliente creado")
	assert.Contains(t, out, "Initech")

	code, _, errOut = h.run("add", "--customer-id", "CUST-010", "--company", "Hooli")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "campo requerido: address")
}

func TestRun_Edit(t *testing.T) {
	h := newHarness(t)
	c := h.seed("CUST-001", "Acme")
	h.login()
	id := strconv.FormatInt(c.ID, 10)

	code, _, errOut := h.run("edit", "--id", id)
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)

	code, out, errOut := h.run("edit", "--id", id, "--company", "Acme Corp")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Acme Corp")

	got, ok := h.srv.Customer(c.ID)
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", got.CompanyName)
	assert.Equal(t, "CUST-001", got.CustomerID)

	code, _, errOut = h.run("edit", "--id", "404", "--company", "X")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not found")
}

func TestRun_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	c := h.seed("CUST-001", "Acme")
	h.login()

	code, out, _ := h.run("delete", "--id", strconv.FormatInt(c.ID, 10))
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "--yes")
	_, ok := h.srv.Customer(c.ID)
	assert.True(t, ok)
	assert.False(t, h.app.Store.Dialog().Open())

	code, out, _ = h.run("delete", "--id", strconv.FormatInt(c.ID, 10), "--yes")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "CUST-001 eliminado")
	_, ok = h.srv.Customer(c.ID)
	assert.False(t, ok)
}

func TestRun_Export(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, out, _ := h.run("export")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "No hay clientes para exportar")

	h.seed("CUST-001", "Acme")
	code, out, errOut := h.run("export", "--format", "xlsx")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Exportado")

	matches, err := filepath.Glob(filepath.Join(h.dir, "customers_*.xlsx"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	info, err := os.Stat(matches[0])
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	code, _, _ = h.run("export", "--format", "pdf")
	assert.Equal(t, 2, code)
}

// usageArgv arma una invocación concreta a partir de la línea de uso.
func usageArgv(c command) []string {
	argv := []string{c.name}
	for _, tok := range strings.Fields(c.args) {
		tok = strings.Trim(tok, "[]")
		switch tok {
		case "T":
			tok = "tok"
		case "N":
			tok = "1"
		case "U":
			tok = "bob"
		case "S":
			tok = "a"
		case "X":
			tok = c.name + "-val"
		case "csv|xlsx":
			tok = "csv"
		}
		argv = append(argv, tok)
	}
	return argv
}

func TestRun_DocumentedUsageRuns(t *testing.T) {
	h := newHarness(t)
	h.seed("CUST-001", "Acme")

	for _, c := range commands {
		if c.args == "" {
			continue
		}
		argv := usageArgv(c)
		code, _, errOut := h.run(argv...)
		assert.Equal(t, 0, code, "%v: %s", argv, errOut)
	}
	assert.Equal(t, []string{"customerdesk", "login", "--token", "tok", "--user-id", "1", "--username", "bob"},
		append([]string{"customerdesk"}, usageArgv(commands[0])...))
}

func TestParse_SingleDashIsShortFlags(t *testing.T) {
	var token string
	f := newFlags("login", &bytes.Buffer{})
	f.StringVar(&token, "token", "", "")
	assert.ErrorIs(t, parse(f, []string{"-token", "tok"}), errUsage)

	f = newFlags("login", &bytes.Buffer{})
	f.StringVar(&token, "token", "", "")
	require.NoError(t, parse(f, []string{"--token", "tok"}))
	assert.Equal(t, "tok", token)
}
