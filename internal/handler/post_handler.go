package handler

import (
	"net/http"
	"strconv"

	"Kampung_Community/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc      *service.PostService
	comments *service.CommentService
}

type CreatePostReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type CreateCommentReq struct {
	Content string `json:"content"`
}

func NewPostHandler(svc *service.PostService, comments *service.CommentService) *PostHandler {
	return &PostHandler{svc: svc, comments: comments}
}

// CreatePost 创建帖子接口
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	post, err := h.svc.CreatePost(c.Request.Context(), userID, c.Param("slug"), req.Title, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": post.ID})
}

// ListByCommunity 获取帖子列表接口（优先游标分页，兼容页码）
func (h *PostHandler) ListByCommunity(c *gin.Context) {
	slug := c.Param("slug")
	lastIDStr := c.Query("last_id")
	lastTSStr := c.Query("last_created_at")

	if lastIDStr != "" || lastTSStr != "" {
		var lastID uint64
		var lastTS int64
		var err error
		if lastIDStr != "" {
			if lastID, err = strconv.ParseUint(lastIDStr, 10, 64); err != nil {
				badRequest(c, "invalid last_id")
				return
			}
		}
		if lastTSStr != "" {
			if lastTS, err = strconv.ParseInt(lastTSStr, 10, 64); err != nil {
				badRequest(c, "invalid last_created_at")
				return
			}
		}
		_, size := pageQuery(c)
		list, nextID, nextTS, err := h.svc.ListByCommunityCursor(c.Request.Context(), slug, lastID, lastTS, size)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"list":            list,
			"next_id":         nextID,
			"next_created_at": nextTS,
			"has_more":        nextID != 0,
		})
		return
	}

	page, size := pageQuery(c)
	list, err := h.svc.ListByCommunity(c.Request.Context(), slug, page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "page": page, "size": size})
}

func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.svc.GetPost(c.Request.Context(), postID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// UpdatePost 只有作者可以修改
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	post, err := h.svc.UpdatePost(c.Request.Context(), userID, postID, req.Title, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost 删除帖子接口（作者或社区管理员）
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), userID, postID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}

func (h *PostHandler) CreateComment(c *gin.Context) {
	var req CreateCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	comment, err := h.comments.CreateComment(c.Request.Context(), userID, postID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments 评论按时间正序
func (h *PostHandler) ListComments(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	page, size := pageQuery(c)
	list, err := h.comments.ListByPost(c.Request.Context(), postID, page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "page": page, "size": size})
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	postID, ok := paramID(c, "id")
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
	if err := h.comments.DeleteComment(c.Request.Context(), userID, postID, commentID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "deleted"})
}
