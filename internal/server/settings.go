package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDocumentSettings exposes the numbering and defaults currently in
// effect. The values come from the hot-reloaded settings file, so a config
// edit shows up here without a restart.
func (s *Server) GetDocumentSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.settings.Get()})
}
