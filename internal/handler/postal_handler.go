package handler

import (
	"net/http"

	"Kampung_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type PostalHandler struct {
	svc *service.PostalService
}

func NewPostalHandler(svc *service.PostalService) *PostalHandler {
	return &PostalHandler{svc: svc}
}

// Lookup 邮编查询并归属社区
func (h *PostalHandler) Lookup(c *gin.Context) {
	res, err := h.svc.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PostalHandler) ListSectors(c *gin.Context) {
	list, err := h.svc.ListSectors(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *PostalHandler) GetSector(c *gin.Context) {
	sector, err := h.svc.GetSector(c.Request.Context(), c.Param("sector"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sector)
}
