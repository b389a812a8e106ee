package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarkpack/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkpack/internal/logger"
)

type fakeBackend struct {
	err     error
	entries int
}

func (f fakeBackend) Ping(context.Context) error { return f.err }

func (f fakeBackend) Count(context.Context) (int, error) { return f.entries, f.err }

func infra(t *testing.T, d deps.Deps) infraResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	Infra(d)(rec, httptest.NewRequest(http.MethodGet, "/infra", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out infraResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestInfraModes(t *testing.T) {
	down := errors.New("down")

	t.Run("optimal with cache entries", func(t *testing.T) {
		out := infra(t, deps.Deps{Logger: logger.NewNop(), Store: fakeBackend{}, Cache: fakeBackend{entries: 7}})
		assert.Equal(t, "optimal", out.Mode)
		require.NotNil(t, out.Components["redis"].Entries)
		assert.Equal(t, 7, *out.Components["redis"].Entries)
	})

	t.Run("cache disabled", func(t *testing.T) {
		out := infra(t, deps.Deps{Logger: logger.NewNop(), Store: fakeBackend{}})
		assert.Equal(t, "optimal", out.Mode)
		assert.Equal(t, "disabled", out.Components["redis"].Mode)
	})

	t.Run("cache down", func(t *testing.T) {
		out := infra(t, deps.Deps{Logger: logger.NewNop(), Store: fakeBackend{}, Cache: fakeBackend{err: down}})
		assert.Equal(t, "degraded", out.Mode)
	})

	t.Run("store down", func(t *testing.T) {
		out := infra(t, deps.Deps{Logger: logger.NewNop(), Store: fakeBackend{err: down}, Cache: fakeBackend{}})
		assert.Equal(t, "critical", out.Mode)
	})
}

func TestReadyz(t *testing.T) {
	rec := httptest.NewRecorder()
	Readyz(deps.Deps{Logger: logger.NewNop(), Store: fakeBackend{err: errors.New("down")}})(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"ready":false,"error":"mongo unreachable"}`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d := deps.Deps{
		Logger:    logger.NewNop(),
		StartTime: start,
		Version:   "v1.2.3",
		TimeNow:   func() time.Time { return start.Add(90 * time.Second) },
	}

	rec := httptest.NewRecorder()
	Healthz(d)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out healthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, int64(90), out.UptimeSeconds)
	assert.Equal(t, "v1.2.3", out.Build.Version)
}
