package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/colonyops/cadence/internal/core/persist"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/gin-gonic/gin"
	"github.com/hay-kot/criterio"
)

// ProgressStore keeps one progress document per user. Load returns an error
// wrapping persist.ErrNoData for unknown users.
type ProgressStore interface {
	Load(ctx context.Context, userID string) (progress.Data, error)
	Save(ctx context.Context, userID string, data progress.Data) error
}

// APIError is the body of a failed request.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ErrorEnvelope wraps APIError as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type progressEnvelope struct {
	Data *progress.Data `json:"data"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: code}})
}

func abortError(c *gin.Context, status int, code string, err error) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: code}})
}

type handlers struct {
	store ProgressStore
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) getUser(c *gin.Context) {
	data, err := h.store.Load(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, persist.ErrNoData) {
			respondError(c, http.StatusNotFound, "not_found", errors.New("no progress saved"))
			return
		}
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal", errors.New("failed to load progress"))
		return
	}

	c.JSON(http.StatusOK, progressEnvelope{Data: &data})
}

func (h *handlers) postUser(c *gin.Context) {
	var body progressEnvelope
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("malformed body: %w", err))
		return
	}
	if body.Data == nil {
		respondError(c, http.StatusBadRequest, "bad_request", errors.New("missing data"))
		return
	}

	data, err := sanitize(*body.Data)
	if err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.store.Save(c.Request.Context(), userID(c), data); err != nil {
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal", errors.New("failed to save progress"))
		return
	}

	c.JSON(http.StatusOK, progressEnvelope{Data: &data})
}

// sanitize validates an uploaded document and returns the form that is
// stored: keys become item ids, tombstones are de-duplicated and any problem
// that is also tombstoned is dropped.
func sanitize(in progress.Data) (progress.Data, error) {
	var errs criterio.FieldErrorsBuilder

	out := progress.Data{
		Problems:   make(map[string]progress.Item, len(in.Problems)),
		DeletedIDs: make([]string, 0, len(in.DeletedIDs)),
	}

	for i, id := range in.DeletedIDs {
		if strings.TrimSpace(id) == "" {
			errs = errs.Append(fmt.Sprintf("deletedIds[%d]", i), errors.New("empty id"))
			continue
		}
		out.DeletedIDs = append(out.DeletedIDs, id)
	}
	slices.Sort(out.DeletedIDs)
	out.DeletedIDs = slices.Compact(out.DeletedIDs)

	for key, it := range in.Problems {
		field := "problems." + key
		if strings.TrimSpace(key) == "" {
			errs = errs.Append("problems", errors.New("empty id"))
			continue
		}
		switch it.Status {
		case progress.StatusSolved, progress.StatusUnsolved:
		default:
			errs = errs.Append(field+".status", fmt.Errorf("invalid status %q", it.Status))
			continue
		}
		if it.ReviewInterval < 0 {
			errs = errs.Append(field+".reviewInterval", errors.New("must not be negative"))
			continue
		}
		if _, gone := slices.BinarySearch(out.DeletedIDs, key); gone {
			continue
		}
		it.ID = key
		out.Problems[key] = it
	}

	if err := errs.ToError(); err != nil {
		return progress.Data{}, err
	}
	return out, nil
}
