package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memberdir/admin_api/internal/utils"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }
func (p stubPinger) Ping(context.Context) error        { return p.err }

func TestGetHealth(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name       string
		db         Pinger
		cache      CachePinger
		wantStatus int
		wantState  string
		wantCache  string
	}{
		{name: "healthy", db: stubPinger{}, cache: stubPinger{}, wantStatus: 200, wantState: "healthy", wantCache: "connected"},
		{name: "no cache configured", db: stubPinger{}, wantStatus: 200, wantState: "healthy", wantCache: "disabled"},
		{name: "cache down", db: stubPinger{}, cache: stubPinger{err: down}, wantStatus: 200, wantState: "degraded", wantCache: "disconnected"},
		{name: "database down", db: stubPinger{err: down}, cache: stubPinger{}, wantStatus: 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/v1/health", NewHealthHandler(tt.db, tt.cache).GetHealth)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
			require.Equal(t, tt.wantStatus, w.Code)

			var resp utils.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.wantStatus != 200 {
				assert.False(t, resp.Success)
				assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
				return
			}
			data := resp.Data.(map[string]any)
			assert.Equal(t, tt.wantState, data["status"])
			assert.Equal(t, tt.wantCache, data["cache"])
			assert.Equal(t, "connected", data["database"])
		})
	}
}
