// Package session guarda la sesión del usuario en un archivo JSON local,
// con las mismas dos claves que usaba el front: authToken y user.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/phenrril/customerdesk/internal/domain"
)

var ErrNoToken = errors.New("sesión sin token")

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type payload struct {
	AuthToken string `json:"authToken,omitempty"`
	User      *User  `json:"user,omitempty"`
}

type File struct {
	path string
	cc   *clientcredentials.Config

	mu sync.RWMutex
	p  payload
}

var _ domain.Session = (*File)(nil)

type Option func(*File)

// WithClientCredentials pide el token al servidor OAuth en lugar de usar el
// authToken guardado.
func WithClientCredentials(cfg *clientcredentials.Config) Option {
	return func(f *File) { f.cc = cfg }
}

// Open lee la sesión; si el archivo no existe la sesión queda vacía.
func Open(path string, opts ...Option) (*File, error) {
	f := &File{path: path}
	for _, o := range opts {
		o(f)
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leyendo sesión: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f.p); err != nil {
		// sesión corrupta: se trata como no iniciada
		log.Warn().Err(err).Str("path", path).Msg("sesión ilegible, se ignora")
		f.p = payload{}
	}
	return f, nil
}

func (f *File) IsAuthenticated() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.p.AuthToken != "" && f.p.User != nil
}

func (f *File) UserID() (int64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.p.User == nil || f.p.User.ID <= 0 {
		return 0, false
	}
	return f.p.User.ID, true
}

func (f *File) User() (User, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.p.User == nil {
		return User{}, false
	}
	return *f.p.User, true
}

func (f *File) Login(token string, u User) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	if u.ID <= 0 {
		return domain.ErrNoUser
	}
	p := payload{AuthToken: token, User: &u}
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creando directorio de sesión: %w", err)
	}
	if err := os.WriteFile(f.path, raw, 0o600); err != nil {
		return fmt.Errorf("guardando sesión: %w", err)
	}
	f.mu.Lock()
	f.p = p
	f.mu.Unlock()
	return nil
}

func (f *File) Logout() error {
	f.mu.Lock()
	f.p = payload{}
	f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("borrando sesión: %w", err)
	}
	return nil
}

// TokenSource devuelve de dónde sale el bearer de cada request.
func (f *File) TokenSource(ctx context.Context) oauth2.TokenSource {
	if f.cc != nil {
		return f.cc.TokenSource(ctx)
	}
	return fileTokenSource{f}
}

type fileTokenSource struct{ f *File }

func (s fileTokenSource) Token() (*oauth2.Token, error) {
	s.f.mu.RLock()
	defer s.f.mu.RUnlock()
	if s.f.p.AuthToken == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: s.f.p.AuthToken, TokenType: "Bearer"}, nil
}
