package customerapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/customerdesk/internal/domain"
)

const maxErrorBody = 1 << 20

// Client implementa domain.CustomerRepo contra la API remota de clientes.
// No reintenta: eso lo decide quien llama.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient reemplaza el cliente HTTP (tests, proxies).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTokenSource agrega Authorization: Bearer a cada request.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		if ts == nil {
			return
		}
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.httpClient = &http.Client{
			Timeout:   c.httpClient.Timeout,
			Transport: &oauth2.Transport{Source: tokenSource{ts}, Base: base},
		}
	}
}

// tokenError marca una falla al obtener el token: el request nunca salió.
type tokenError struct{ err error }

func (e *tokenError) Error() string { return e.err.Error() }

func (e *tokenError) Unwrap() error { return e.err }

type tokenSource struct{ ts oauth2.TokenSource }

func (s tokenSource) Token() (*oauth2.Token, error) {
	t, err := s.ts.Token()
	if err != nil {
		return nil, &tokenError{err}
	}
	return t, nil
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

var _ domain.CustomerRepo = (*Client)(nil)

func (c *Client) List(ctx context.Context, search string) (domain.ListResult, error) {
	path := "/customers"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var res domain.ListResult
	status, err := c.do(ctx, "list", http.MethodGet, path, nil, &res)
	if err != nil {
		return domain.ListResult{}, err
	}
	for _, cu := range res.Customers {
		if !cu.Complete() {
			return domain.ListResult{}, &domain.RequestError{
				Op:      "list",
				Status:  status,
				Message: fmt.Sprintf("respuesta con cliente incompleto (id %d)", cu.ID),
			}
		}
	}
	if res.Customers == nil {
		res.Customers = []domain.Customer{}
	}
	return res, nil
}

func (c *Client) Create(ctx context.Context, nc domain.NewCustomer) (domain.Customer, error) {
	var out domain.Customer
	if _, err := c.do(ctx, "create", http.MethodPost, "/customers", nc, &out); err != nil {
		return domain.Customer{}, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, id int64, f domain.UpdateFields) (domain.Customer, error) {
	var out domain.Customer
	if _, err := c.do(ctx, "update", http.MethodPut, customerPath(id), f, &out); err != nil {
		return domain.Customer{}, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, customerPath(id), nil, nil)
	return err
}

func customerPath(id int64) string {
	return "/customers/" + strconv.FormatInt(id, 10)
}

// do ejecuta el request y traduce la respuesta a la taxonomía de errores de
// domain. Devuelve el status HTTP cuando hubo respuesta.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("serializando %s: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("armando request %s: %w", op, err)
	}
	reqID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		var te *tokenError
		if errors.As(err, &te) {
			log.Warn().Err(te.err).Str("op", op).Str("request_id", reqID).Msg("sin token para la API")
			return 0, fmt.Errorf("%s: %w: %v", op, domain.ErrUnauthenticated, te.err)
		}
		cause := err
		if ctxErr := ctx.Err(); ctxErr != nil {
			cause = ctxErr
		}
		if errors.Is(cause, context.Canceled) {
			log.Debug().Str("op", op).Str("request_id", reqID).Msg("request cancelado")
		} else {
			log.Warn().Err(err).Str("op", op).Str("request_id", reqID).Dur("duration", time.Since(start)).Msg("sin respuesta de la API")
		}
		return 0, &domain.TransportError{Op: op, Err: cause}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		msg := errorMessage(raw, res.StatusCode)
		log.Warn().Str("op", op).Str("request_id", reqID).Int("status", res.StatusCode).Str("message", msg).Msg("api error")
		return res.StatusCode, &domain.RequestError{Op: op, Status: res.StatusCode, Message: msg}
	}

	log.Debug().Str("op", op).Str("request_id", reqID).Int("status", res.StatusCode).Dur("duration", time.Since(start)).Msg("api ok")
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return res.StatusCode, nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res.StatusCode, &domain.TransportError{Op: op, Err: ctxErr}
		}
		return res.StatusCode, &domain.RequestError{
			Op:      op,
			Status:  res.StatusCode,
			Message: fmt.Sprintf("respuesta inválida de la API: %v", err),
		}
	}
	return res.StatusCode, nil
}

// errorMessage toma "message" del cuerpo (string o lista, como responde
// NestJS) y si no hay cae al mensaje genérico por status.
func errorMessage(raw []byte, status int) string {
	var apiErr struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &apiErr); err != nil || len(apiErr.Message) == 0 {
		return domain.HTTPStatusMessage(status)
	}
	var s string
	if err := json.Unmarshal(apiErr.Message, &s); err == nil {
		if strings.TrimSpace(s) != "" {
			return s
		}
		return domain.HTTPStatusMessage(status)
	}
	var list []string
	if err := json.Unmarshal(apiErr.Message, &list); err == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}
	return domain.HTTPStatusMessage(status)
}
