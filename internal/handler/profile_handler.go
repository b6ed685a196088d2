package handler

import (
	"net/http"

	"Kampung_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	svc *service.ProfileService
}

type HomeCommunityReq struct {
	// 0 表示清除
	CommunityID uint64 `json:"community_id"`
}

func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Me 当前用户资料
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	me, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, me)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	profile, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Update 修改资料，未传的字段保持不变
func (h *ProfileHandler) Update(c *gin.Context) {
	var req service.UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.svc.Update(c.Request.Context(), userID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) SetHomeCommunity(c *gin.Context) {
	var req HomeCommunityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.svc.SetHomeCommunity(c.Request.Context(), userID, req.CommunityID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
