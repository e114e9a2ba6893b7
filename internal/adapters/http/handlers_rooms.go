package http

import (
	"net/http"

	"github.com/dkeye/Talk/internal/core"
	"github.com/dkeye/Talk/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Orch.Calls.Rooms().List()})
}

func (h *handlers) getRoom(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	table := h.Orch.Calls.Rooms()
	members := table.MembersOf(id, "")
	if len(members) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           id,
		"participants": len(members),
		"members": lo.Map(members, func(m core.ConnID, _ int) core.MemberDTO {
			user, _ := h.Orch.Registry.UserOf(m)
			return core.MemberDTO{ID: m, User: user}
		}),
	})
}

func (h *handlers) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.ICE.ClientServers()})
}
