package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"

	"github.com/phenrril/customerdesk/internal/app"
	"github.com/phenrril/customerdesk/internal/usecase"
)

const browseHelp = `Escribí para buscar (se busca 500ms después de la última tecla).
  Enter      busca ya
  :r         reintenta la última búsqueda
  :csv :xlsx exporta la lista actual
  :q         sale`

// cmdBrowse conecta cada tecla con el Searcher y redibuja la tabla cuando
// llega una respuesta.
func cmdBrowse(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if err := parse(newFlags("browse", out), args); err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "buscar> ",
		InterruptPrompt: "^C",
		EOFPrompt:       ":q",
		Stdout:          out,
		Listener: readline.FuncListener(func(line []rune, pos int, key rune) ([]rune, int, bool) {
			text := string(line)
			if !strings.HasPrefix(text, ":") {
				a.Searcher.Type(text)
			}
			return nil, 0, false
		}),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	v := &browseView{w: rl.Stdout()}
	a.Store.Subscribe(v.render)

	fmt.Fprintln(rl.Stdout(), browseHelp)
	// los errores de listado ya quedan en el estado y se dibujan
	_ = a.Searcher.Flush()

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch cmd := strings.TrimSpace(line); cmd {
		case ":q":
			return nil
		case ":r":
			_ = a.Store.Retry(ctx)
		case ":csv", ":xlsx":
			path, size, err := a.Export(cmd[1:], time.Now())
			if err != nil {
				fmt.Fprintf(rl.Stdout(), "No se pudo exportar: %v\n", err)
				continue
			}
			fmt.Fprintf(rl.Stdout(), "Exportado %s (%s)\n", path, humanize.Bytes(uint64(size)))
		case ":h", ":help":
			fmt.Fprintln(rl.Stdout(), browseHelp)
		default:
			a.Searcher.Type(line)
			_ = a.Searcher.Flush()
		}
	}
}

type browseView struct {
	mu      sync.Mutex
	w       io.Writer
	version uint64
}

// render dibuja cada snapshot terminado una sola vez.
func (v *browseView) render(st usecase.State) {
	if st.IsLoading {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if st.Version <= v.version {
		return
	}
	v.version = st.Version
	renderCustomers(v.w, st)
}
