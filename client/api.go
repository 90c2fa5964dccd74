package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DefaultTimeout = 10 * time.Second

var ErrUnauthorized = errors.New("not logged in")

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("api: %d %s", e.Code, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	se, ok := errors.Cause(err).(*StatusError)
	return ok && se.Code == code
}

type (
	Option func(*API)

	// API talks to the Eco Masomo REST API, attaching the stored credential to authenticated calls.
	API struct {
		baseURL string
		http    *http.Client
		tokens  TokenStore
	}
)

func WithHTTPClient(c *http.Client) Option {
	return func(api *API) { api.http = c }
}

func WithTimeout(d time.Duration) Option {
	return func(api *API) {
		if d > 0 {
			api.http.Timeout = d
		}
	}
}

// NewAPI returns an API rooted at baseURL (e.g. http://localhost:8000/v1).
func NewAPI(baseURL string, tokens TokenStore, opts ...Option) *API {
	api := &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(api)
	}
	return api
}

type (
	loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	tokenResponse struct {
		Token string `json:"token"`
	}

	pointsRequest struct {
		Points int64 `json:"points"`
	}
)

// Login authenticates against the API and stores the issued credential.
func (api *API) Login(ctx context.Context, uname, pwd string) error {
	var resp tokenResponse
	if err := api.do(ctx, http.MethodPost, "/users/login", false, loginRequest{Username: uname, Password: pwd}, &resp); err != nil {
		return errors.Wrap(err, "logging in")
	}
	if resp.Token == "" {
		return errors.New("logging in: empty token")
	}
	return api.tokens.SetToken(resp.Token)
}

// Logout forgets the stored credential.
func (api *API) Logout() error {
	return api.tokens.Clear()
}

// Profile fetches the profile of the logged in user.
// The response is decoded over a zero Profile, so missing fields keep their zero value.
func (api *API) Profile(ctx context.Context) (Profile, error) {
	prof := defaultProfile()
	if err := api.do(ctx, http.MethodGet, "/profile", true, nil, &prof); err != nil {
		return Profile{}, errors.Wrap(err, "fetching profile")
	}
	return prof, nil
}

// AwardPoints adds points to the total of the logged in student and returns the new total.
func (api *API) AwardPoints(ctx context.Context, points int64) (Points, error) {
	var pts Points
	if err := api.do(ctx, http.MethodPatch, "/profile/points", true, pointsRequest{Points: points}, &pts); err != nil {
		return Points{}, errors.Wrap(err, "awarding points")
	}
	return pts, nil
}

func (api *API) do(ctx context.Context, method, path string, auth bool, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, api.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token, err := api.tokens.Token()
		if err != nil {
			return errors.Wrap(err, "reading credential")
		}
		if token == "" {
			return ErrUnauthorized
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := api.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Message: readMessage(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// readMessage extracts {"error": "..."} bodies, falling back to the raw body.
func readMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil {
		return ""
	}
	var msg struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &msg) == nil && msg.Error != "" {
		return msg.Error
	}
	return strings.TrimSpace(string(raw))
}
