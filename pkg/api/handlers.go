// Package api exposes the post authoring and lookup endpoints plus the
// session payment-status probe used by interactive pages.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Post402/post402-starter-kit/pkg/posts"
	"github.com/Post402/post402-starter-kit/pkg/session"
)

// Handlers serves the post API.
type Handlers struct {
	store        posts.Store
	sessions     *session.Validator
	cookiePrefix string
	logger       *slog.Logger
}

// New creates the API handlers.
func New(store posts.Store, sessions *session.Validator, cookiePrefix string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:        store,
		sessions:     sessions,
		cookiePrefix: cookiePrefix,
		logger:       logger,
	}
}

// Register mounts the API routes.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/posts", h.handleGetPosts)
	r.POST("/posts", h.handleCreatePost)
	r.GET("/posts/:uuid/payment-status", h.handlePaymentStatus)
}

// handleGetPosts returns all posts, or a single post when ?uuid= is
// given. Full content is returned here; the gate decides who may reach
// this data for protected posts.
func (h *Handlers) handleGetPosts(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("uuid"); id != "" {
		post, err := h.store.GetPost(ctx, id)
		if errors.Is(err, posts.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		if err != nil {
			h.logger.Error("post lookup failed", "postId", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read posts"})
			return
		}
		c.JSON(http.StatusOK, post)
		return
	}

	list, err := h.store.ListPosts(ctx)
	if err != nil {
		h.logger.Error("post listing failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read posts"})
		return
	}
	if list == nil {
		list = []*posts.Post{}
	}
	c.JSON(http.StatusOK, list)
}

type createPostRequest struct {
	Title           string `json:"title" binding:"required"`
	Content         string `json:"content" binding:"required"`
	WalletAddress   string `json:"walletAddress"`
	Signature       string `json:"signature"`
	Message         string `json:"message"`
	PaymentAmount   string `json:"paymentAmount"`
	PaymentCurrency string `json:"paymentCurrency"`
}

// handleCreatePost stores a new post after verifying the author's
// wallet signature over the supplied message.
func (h *Handlers) handleCreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post body"})
		return
	}
	if req.WalletAddress == "" || req.Signature == "" || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing signature data"})
		return
	}

	if err := posts.VerifyAuthorSignature(req.WalletAddress, req.Message, req.Signature); err != nil {
		h.logger.Info("rejected post with bad signature",
			"wallet", req.WalletAddress, "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	post := &posts.Post{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Content:         req.Content,
		WalletAddress:   req.WalletAddress,
		Signature:       req.Signature,
		Message:         req.Message,
		PaymentAmount:   req.PaymentAmount,
		PaymentCurrency: req.PaymentCurrency,
		CreatedAt:       time.Now().UTC(),
	}
	if err := h.store.CreatePost(c.Request.Context(), post); err != nil {
		h.logger.Error("post creation failed", "postId", post.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": post.ID})
}

// handlePaymentStatus reports whether the caller already holds a valid
// session for the post. Used by pages to decide whether to render paid
// content or the payment prompt.
func (h *Handlers) handlePaymentStatus(c *gin.Context) {
	postID := c.Param("uuid")
	cookieName := session.CookieName(h.cookiePrefix, postID)

	token, err := c.Cookie(cookieName)
	hasPaid := err == nil && token != "" &&
		h.sessions.Valid(c.Request.Context(), token, postID)

	c.JSON(http.StatusOK, gin.H{"hasPaid": hasPaid})
}
