package statushandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRooms map[string]int

func (f fixedRooms) Rooms() map[string]int { return f }

func newEngine(rooms RoomLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New("chat-test", rooms).Register(r)
	return r
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(fixedRooms{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, HealthResponse{Status: "ok", App: "chat-test"}, got)
}

func TestListRooms(t *testing.T) {
	tests := []struct {
		name  string
		rooms fixedRooms
		want  []RoomResponse
	}{
		{"empty", fixedRooms{}, []RoomResponse{}},
		{
			"sorted by name",
			fixedRooms{"lobby": 3, "dev": 1, "ops": 2},
			[]RoomResponse{{"dev", 1}, {"lobby", 3}, {"ops", 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newEngine(tt.rooms).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rooms", nil))

			require.Equal(t, http.StatusOK, w.Code)
			var got []RoomResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}
