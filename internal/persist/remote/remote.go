// Package remote persists progress through the cadence HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/colonyops/cadence/internal/core/logging"
	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/rs/zerolog"
)

// Envelope is the request and response body of /user.
type Envelope struct {
	Data progress.Data `json:"data"`
}

// ErrorBody is the JSON error shape returned by the API.
type ErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Config configures the client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Adapter talks to GET/POST <base>/user with bearer auth.
type Adapter struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

var _ persist.Adapter = (*Adapter)(nil)

// New returns a remote adapter. A nil client uses a client with cfg.Timeout.
func New(cfg Config, client *http.Client, log zerolog.Logger) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Adapter{
		cfg:  cfg,
		http: client,
		log:  logging.ComponentOf(log, "remote"),
	}
}

func (a *Adapter) Name() string { return "remote(" + a.cfg.BaseURL + ")" }

// Load fetches the user's document. A 404 is treated as a new user with no
// progress.
func (a *Adapter) Load(ctx context.Context) (progress.Data, error) {
	var env Envelope
	status, err := a.doJSON(ctx, http.MethodGet, "/user", nil, &env)
	if err != nil {
		var pe *persist.Error
		if status == http.StatusNotFound && errors.As(err, &pe) {
			return progress.EmptyData(), nil
		}
		return progress.Data{}, err
	}

	data := env.Data
	if data.Problems == nil {
		data.Problems = map[string]progress.Item{}
	}
	if data.DeletedIDs == nil {
		data.DeletedIDs = []string{}
	}
	return data, nil
}

func (a *Adapter) Save(ctx context.Context, data progress.Data) error {
	if data.DeletedIDs == nil {
		data.DeletedIDs = []string{}
	}
	_, err := a.doJSON(ctx, http.MethodPost, "/user", Envelope{Data: data}, nil)
	return err
}

// doJSON sends body as JSON and decodes a 2xx response into out. Transport
// failures are network errors; non-2xx statuses are classified by
// persist.FromStatus.
func (a *Adapter) doJSON(ctx context.Context, method, path string, body, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.cfg.BaseURL+path, &buf)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.Token)
	}

	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		a.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return 0, persist.Network(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, persist.Network(fmt.Errorf("read response: %w", err))
	}

	a.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, persist.FromStatus(resp.StatusCode, parseErrorMessage(raw))
	}

	if out == nil || len(raw) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, &persist.Error{Kind: persist.KindServer, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return resp.StatusCode, nil
}

func parseErrorMessage(raw []byte) string {
	var body ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return ""
}
