package domain

import (
	"errors"
	"time"
)

var ErrNothingToExport = errors.New("no hay clientes para exportar")

// Artifact es un archivo listo para descargar.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Exporter func(items []Customer, now time.Time) (Artifact, error)
