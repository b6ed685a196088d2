package handler

import (
	"net/http"

	"Kampung_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type GroupBuyHandler struct {
	svc *service.GroupBuyService
}

type JoinGroupBuyReq struct {
	Quantity int64  `json:"quantity" binding:"required"`
	Note     string `json:"note"`
}

func NewGroupBuyHandler(svc *service.GroupBuyService) *GroupBuyHandler {
	return &GroupBuyHandler{svc: svc}
}

// Create 发起团购，deadline 为 RFC3339
func (h *GroupBuyHandler) Create(c *gin.Context) {
	var req service.CreateGroupBuyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	detail, err := h.svc.Create(c.Request.Context(), userID, c.Param("slug"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// ListByCommunity ?status=open|closed|expired
func (h *GroupBuyHandler) ListByCommunity(c *gin.Context) {
	page, size := pageQuery(c)
	list, err := h.svc.ListByCommunity(c.Request.Context(), c.Param("slug"), c.Query("status"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "page": page, "size": size})
}

func (h *GroupBuyHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Join 参团，重复参团视为修改数量
func (h *GroupBuyHandler) Join(c *gin.Context) {
	var req JoinGroupBuyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.svc.Join(c.Request.Context(), userID, id, req.Quantity, req.Note)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GroupBuyHandler) Leave(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	detail, err := h.svc.Leave(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Close 仅发起人可关闭
func (h *GroupBuyHandler) Close(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	detail, err := h.svc.Close(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Mine 我在该团购中的参与记录
func (h *GroupBuyHandler) Mine(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	p, err := h.svc.MyParticipation(c.Request.Context(), userID, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *GroupBuyHandler) Participants(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Participants(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list})
}

func (h *GroupBuyHandler) CreateComment(c *gin.Context) {
	var req CreateCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	comment, err := h.svc.CreateComment(c.Request.Context(), userID, id, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *GroupBuyHandler) ListComments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, size := pageQuery(c)
	list, err := h.svc.ListComments(c.Request.Context(), id, page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "page": page, "size": size})
}

func (h *GroupBuyHandler) DeleteComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), userID, id, commentID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}

// Share 生成 WhatsApp / Telegram 分享链接
func (h *GroupBuyHandler) Share(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	links, err := h.svc.Share(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}
