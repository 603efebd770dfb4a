package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Post402/post402-starter-kit/pkg/posts"
	"github.com/Post402/post402-starter-kit/pkg/session"
)

// PostPage serves a post behind the payment gate. Even when the gate
// forwards a document-style request unpaid, paid fields stay withheld
// here until the caller presents a valid session.
func (h *Handlers) PostPage(c *gin.Context) {
	postID := c.Param("uuid")

	post, err := h.store.GetPost(c.Request.Context(), postID)
	if errors.Is(err, posts.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		h.logger.Error("post lookup failed", "postId", postID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read post"})
		return
	}

	if !post.Protected() {
		c.JSON(http.StatusOK, post)
		return
	}

	cookieName := session.CookieName(h.cookiePrefix, postID)
	if token, err := c.Cookie(cookieName); err == nil && token != "" &&
		h.sessions.Valid(c.Request.Context(), token, postID) {
		c.JSON(http.StatusOK, post)
		return
	}

	c.JSON(http.StatusOK, post.Preview())
}
