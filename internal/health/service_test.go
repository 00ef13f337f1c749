package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	types []string
}

func (r *recordingBroadcaster) Broadcast(msgType string, _ any) error {
	r.types = append(r.types, msgType)
	return nil
}

func TestService_StatusTransitions(t *testing.T) {
	svc := NewService(zerolog.Nop())
	b := &recordingBroadcaster{}
	svc.SetBroadcaster(b)

	svc.RegisterItem(CategoryBackend, "catalog", "Catalog API")
	svc.SetError(CategoryBackend, "catalog", "connection refused")
	svc.SetError(CategoryBackend, "catalog", "connection refused")

	item, ok := svc.Get(CategoryBackend, "catalog")
	require.True(t, ok)
	assert.Equal(t, StatusError, item.Status)
	assert.NotNil(t, item.Timestamp)
	assert.Equal(t, []string{EventHealthUpdated}, b.types, "unchanged status is not rebroadcast")

	svc.ClearStatus(CategoryBackend, "catalog")
	item, _ = svc.Get(CategoryBackend, "catalog")
	assert.Equal(t, StatusOK, item.Status)
	assert.Nil(t, item.Timestamp)
}

func TestService_UnregisteredItemIgnored(t *testing.T) {
	svc := NewService(zerolog.Nop())
	svc.SetError(CategoryBackend, "ghost", "boom")

	_, ok := svc.Get(CategoryBackend, "ghost")
	assert.False(t, ok)
}

func TestService_Summary(t *testing.T) {
	svc := NewService(zerolog.Nop())
	svc.RegisterItem(CategoryBackend, "catalog", "Catalog API")
	svc.RegisterItem(CategoryRealtime, "websocket", "WebSocket hub")
	svc.SetWarning(CategoryRealtime, "websocket", "no clients")

	s := svc.Summary()
	assert.Equal(t, StatusWarning, s.Status)
	assert.True(t, s.HasIssues)
	require.Len(t, s.Categories, 2)
	assert.Equal(t, 1, s.Categories[0].OK)
	assert.Equal(t, 1, s.Categories[1].Warning)
	assert.Len(t, s.Items, 2)
}

func TestHandlers_GetSummary(t *testing.T) {
	svc := NewService(zerolog.Nop())
	svc.RegisterItem(CategoryBackend, "catalog", "Catalog API")
	svc.SetError(CategoryBackend, "catalog", "timeout")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, NewHandlers(svc).GetSummary(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusError, body.Status)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "timeout", body.Items[0].Message)
}
