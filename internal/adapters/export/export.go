// Package export arma los archivos descargables con el listado de clientes.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phenrril/customerdesk/internal/domain"
)

var ErrNothingToExport = domain.ErrNothingToExport

// Columns es el encabezado fijo; las planillas que lo consumen dependen del orden.
var Columns = []string{
	"Customer ID",
	"Company Name",
	"Address",
	"Contact Number",
	"Added By (Username)",
	"User ID",
}

type Artifact = domain.Artifact

var (
	_ domain.Exporter = CSV
	_ domain.Exporter = XLSX
)

func filename(now time.Time, ext string) string {
	return fmt.Sprintf("customers_%s.%s", now.UTC().Format("2006-01-02"), ext)
}

// Save escribe el artefacto en dir y devuelve la ruta final.
func Save(dir string, a Artifact) (string, error) {
	if a.Filename == "" {
		return "", errors.New("artefacto sin nombre")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creando directorio de exportación: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(a.Filename))
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("guardando %s: %w", a.Filename, err)
	}
	return path, nil
}
