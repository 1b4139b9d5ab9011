package statushandler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// RoomLister is the read side of the room registry.
type RoomLister interface {
	Rooms() map[string]int
}

type Handler struct {
	app   string
	rooms RoomLister
}

func New(app string, rooms RoomLister) *Handler { return &Handler{app: app, rooms: rooms} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/health", h.health)
	r.GET("/rooms", h.list)
}

// @Summary		Health check
// @Description	Reports that the process is up.
// @Tags			Status
// @Success		200	{object}	HealthResponse
// @Router			/health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", App: h.app})
}

// @Summary		List rooms
// @Description	Rooms that currently have members, with their member counts, ordered by name.
// @Tags			Rooms
// @Success		200	{array}	RoomResponse
// @Router			/rooms [get]
func (h *Handler) list(c *gin.Context) {
	counts := h.rooms.Rooms()
	out := make([]RoomResponse, 0, len(counts))
	for name, n := range counts {
		out = append(out, RoomResponse{Name: name, Members: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	c.JSON(http.StatusOK, out)
}
