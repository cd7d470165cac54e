package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("sesión no iniciada")
	ErrNoUser          = errors.New("la sesión no tiene usuario")
)

// ValidationError: falta un campo requerido, se corta antes de ir a la red.
type ValidationError struct {
	Field Field
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("campo requerido: %s", e.Field)
}

// RequestError: el servidor respondió con un status no 2xx (o un cuerpo ilegible).
type RequestError struct {
	Op      string
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Is permite errors.Is(err, ErrNotFound) ante un 404.
func (e *RequestError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// HTTPStatusMessage es el mensaje genérico cuando el servidor no manda uno.
func HTTPStatusMessage(status int) string {
	return fmt.Sprintf("HTTP error, status %d", status)
}

// TransportError: no hubo respuesta (conexión, timeout, cancelación).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: sin respuesta del servidor: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message devuelve el texto que se le muestra al usuario.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var re *RequestError
	if errors.As(err, &re) {
		return re.Message
	}
	return err.Error()
}
