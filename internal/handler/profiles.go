package handler

import (
	"net/http"

	"github.com/prajal/Multi-strategy-trading/internal/config"

	"github.com/gin-gonic/gin"
)

// GetProfiles godoc
// @Summary      List strategy profiles
// @Description  Returns all available strategy profiles with their parameter sets
// @Tags         profiles
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/profiles [get]
func (h *Handler) GetProfiles(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-profiles")
	defer span.End()

	profiles := make(map[string]config.Profile)
	for _, name := range config.ProfileNames() {
		p, err := config.LoadProfile(name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		profiles[name] = p
	}

	c.JSON(http.StatusOK, gin.H{
		"active":   h.cfg.ProfileName,
		"profiles": profiles,
	})
}
