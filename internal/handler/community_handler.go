package handler

import (
	"net/http"

	"Kampung_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	svc *service.CommunityService
}

func NewCommunityHandler(svc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

func (h *CommunityHandler) Get(c *gin.Context) {
	community, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

// List 社区列表，可按 region 过滤
func (h *CommunityHandler) List(c *gin.Context) {
	page, size := pageQuery(c)
	list, err := h.svc.ListCommunities(c.Request.Context(), c.Query("region"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "page": page, "size": size})
}

// Join 加入社区，重复加入不报错
func (h *CommunityHandler) Join(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	community, err := h.svc.JoinCommunity(c.Request.Context(), userID, c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "joined", "member_count": community.MemberCount})
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	community, err := h.svc.LeaveCommunity(c.Request.Context(), userID, c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "left", "member_count": community.MemberCount})
}

func (h *CommunityHandler) Membership(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	m, err := h.svc.Membership(c.Request.Context(), userID, c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *CommunityHandler) Members(c *gin.Context) {
	page, size := pageQuery(c)
	list, err := h.svc.ListMembers(c.Request.Context(), c.Param("slug"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "page": page, "size": size})
}

// Mine 我加入的社区
func (h *CommunityHandler) Mine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.svc.MyCommunities(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}
