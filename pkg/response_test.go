package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dict map[string]string

func (u dict) T(key string) string {
	if v, ok := u[key]; ok {
		return v
	}
	return key
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("post 1: %w", ErrNotFound), http.StatusNotFound},
		{"bad request notice", NewNotice(ErrBadRequest, "recommend.selectCrop"), http.StatusBadRequest},
		{"conflict", NewNotice(ErrConflict, "recommend.inProgress"), http.StatusConflict},
		{"canceled", WrapNotice(ErrCanceled, "recommend.canceled", errors.New("ctx")), http.StatusConflict},
		{"too many", ErrTooManyRequests, http.StatusTooManyRequests},
		{"outer notice wins", WrapNotice(ErrUnauthorized, "session.invalid", fmt.Errorf("%w: session x", ErrNotFound)), http.StatusUnauthorized},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestNoticeKey(t *testing.T) {
	err := fmt.Errorf("recommend: %w", WrapNotice(ErrInternal, "recommend.failed", errors.New("model down")))

	key, ok := NoticeKey(err)
	require.True(t, ok)
	assert.Equal(t, "recommend.failed", key)
	assert.ErrorIs(t, err, ErrInternal)

	_, ok = NoticeKey(errors.New("plain"))
	assert.False(t, ok)
}

func TestLocalizedError(t *testing.T) {
	tr := dict{"recommend.selectCrop": "Please select a crop first", "error.internal": "Something went wrong"}

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"notice", NewNotice(ErrBadRequest, "recommend.selectCrop"), http.StatusBadRequest, "Please select a crop first"},
		{"internal hidden", errors.New("disk on fire"), http.StatusInternalServerError, "Something went wrong"},
		{"sentinel text", fmt.Errorf("post 1: %w", ErrNotFound), http.StatusNotFound, "post 1: not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			LocalizedError(rec, tr, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp APIResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.msg, resp.Error)
		})
	}
}

func TestJSONWithNotice(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONWithNotice(rec, http.StatusCreated, map[string]int{"n": 1}, "Reply posted")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"n":1},"notice":"Reply posted"}`, rec.Body.String())
}
