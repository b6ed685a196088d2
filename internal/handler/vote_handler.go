package handler

import (
	"net/http"
	"strconv"
	"strings"

	"Kampung_Community/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type VoteHandler struct {
	svc *service.VoteService
}

// VoteReq value 只能是 1 或 -1，重复同向投票即取消
type VoteReq struct {
	TargetType string `json:"target_type" binding:"required"`
	TargetID   uint64 `json:"target_id" binding:"required"`
	Value      int    `json:"value" binding:"required"`
}

func NewVoteHandler(svc *service.VoteService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

func (h *VoteHandler) Vote(c *gin.Context) {
	var req VoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	res, err := h.svc.Vote(c.Request.Context(), userID, req.TargetType, req.TargetID, req.Value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// MyVotes ?type=post&ids=1,2,3
func (h *VoteHandler) MyVotes(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var ids []uint64
	for _, raw := range lo.Compact(strings.Split(c.Query("ids"), ",")) {
		id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			badRequest(c, "invalid ids")
			return
		}
		ids = append(ids, id)
	}
	votes, err := h.svc.MyVotes(c.Request.Context(), userID, c.Query("type"), ids)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"votes": votes})
}

// Score 读缓存，未命中时加锁回源
func (h *VoteHandler) Score(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	score, err := h.svc.GetScoreWithLock(c.Request.Context(), c.Param("type"), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score})
}
