// Package gin provides the payment gate middleware for the resource
// server: per request it either forwards, challenges with payment
// terms, or verifies a payment claim and grants a session.
package gin

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Post402/post402-starter-kit/pkg/config"
	"github.com/Post402/post402-starter-kit/pkg/posts"
	"github.com/Post402/post402-starter-kit/pkg/session"
	"github.com/Post402/post402-starter-kit/pkg/types"
	"github.com/Post402/post402-starter-kit/pkg/verifier"
)

// PaymentHeader carries the client's payment claim.
const PaymentHeader = "X-PAYMENT"

// PaymentMiddlewareOptions is the options for the PaymentMiddleware.
type PaymentMiddlewareOptions struct {
	Network      string
	Asset        string
	CookieName   string
	CookieMaxAge time.Duration
	CookieSecure bool
	// Param is the route parameter carrying the post id.
	Param  string
	Logger *slog.Logger
}

// Option mutates PaymentMiddlewareOptions.
type Option func(*PaymentMiddlewareOptions)

// WithNetwork sets the single supported network.
func WithNetwork(network string) Option {
	return func(o *PaymentMiddlewareOptions) {
		o.Network = network
	}
}

// WithAsset sets the single supported asset mint.
func WithAsset(asset string) Option {
	return func(o *PaymentMiddlewareOptions) {
		o.Asset = asset
	}
}

// WithCookie configures the session cookie issued on grant.
func WithCookie(name string, maxAge time.Duration, secure bool) Option {
	return func(o *PaymentMiddlewareOptions) {
		o.CookieName = name
		o.CookieMaxAge = maxAge
		o.CookieSecure = secure
	}
}

// WithParam sets the route parameter holding the post id.
func WithParam(param string) Option {
	return func(o *PaymentMiddlewareOptions) {
		o.Param = param
	}
}

// WithLogger sets the middleware logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *PaymentMiddlewareOptions) {
		o.Logger = logger
	}
}

// PaymentMiddleware gates access to protected posts.
//
// Failure semantics: anything that goes wrong while resolving the post
// or its requirements fails open, so an unrelated lookup problem never
// blocks unprotected traffic; anything that goes wrong while verifying
// a payment fails closed.
func PaymentMiddleware(store posts.Store, v *verifier.Verifier, sessions *session.Validator, opts ...Option) gin.HandlerFunc {
	options := &PaymentMiddlewareOptions{
		Network:      config.DefaultNetwork,
		Asset:        config.USDCDevnetMint,
		CookieName:   config.DefaultCookieName,
		CookieMaxAge: config.DefaultCookieMaxAge,
		CookieSecure: true,
		Param:        "uuid",
		Logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	m := &gate{
		store:    store,
		verifier: v,
		sessions: sessions,
		opts:     options,
	}
	return m.handle
}

type gate struct {
	store    posts.Store
	verifier *verifier.Verifier
	sessions *session.Validator
	opts     *PaymentMiddlewareOptions
}

func (m *gate) handle(c *gin.Context) {
	ctx := c.Request.Context()
	log := m.opts.Logger

	postID := c.Param(m.opts.Param)
	if postID == "" {
		c.Next()
		return
	}

	post, err := m.store.GetPost(ctx, postID)
	if err != nil {
		// Missing or unreadable post: let the page produce its own 404.
		if !errors.Is(err, posts.ErrNotFound) {
			log.Warn("post lookup failed", "postId", postID, "error", err)
		}
		c.Next()
		return
	}
	if !post.Protected() {
		c.Next()
		return
	}

	requirements, err := posts.RequirementsFor(post, m.opts.Network, m.opts.Asset)
	if err != nil {
		// Malformed price on the post. Fail open rather than hold the
		// whole resource hostage to a data error.
		log.Warn("cannot derive payment requirements", "postId", postID, "error", err)
		c.Next()
		return
	}

	strategy := StrategyFor(c.GetHeader("Accept"), c.GetHeader("User-Agent"))

	cookieName := session.CookieName(m.opts.CookieName, postID)
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		if m.sessions.Valid(ctx, token, postID) {
			c.Next()
			return
		}
	}

	header := c.GetHeader(PaymentHeader)
	if header == "" {
		if strategy == StrategyDocument {
			// The page renders the payment flow itself; the content
			// collaborator withholds paid fields until a session exists.
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusPaymentRequired,
			m.challengeBody(post, requirements, ""))
		return
	}

	payment, err := types.DecodePaymentHeader(header)
	if err != nil {
		log.Info("rejected malformed payment header", "postId", postID, "error", err)
		m.deny(c, post, requirements, types.ReasonInvalidStructure)
		return
	}
	if payment.Scheme != types.SchemeExact || payment.Network != m.opts.Network {
		m.deny(c, post, requirements, types.ReasonInvalidStructure)
		return
	}

	outcome := m.verifier.Verify(ctx, payment, requirements, postID)
	if !outcome.Valid {
		log.Info("payment rejected",
			"postId", postID, "reason", outcome.Reason)
		m.deny(c, post, requirements, outcome.Reason)
		return
	}

	m.grantSession(c, cookieName, outcome.Reference)
	log.Info("payment verified",
		"postId", postID, "reference", outcome.Reference)

	if strategy == StrategyMachine && wantsJSON(c.GetHeader("Accept")) {
		c.AbortWithStatusJSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Payment verified",
			"postId":  postID,
		})
		return
	}
	c.Next()
}

// grantSession sets the hardened session cookie: not script readable,
// encrypted transport only, same-site restricted, TTL-bounded.
func (m *gate) grantSession(c *gin.Context, name, reference string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, reference, int(m.opts.CookieMaxAge.Seconds()), "/", "",
		m.opts.CookieSecure, true)
}

func (m *gate) deny(c *gin.Context, post *posts.Post, requirements *types.PaymentRequirements, reason types.Reason) {
	body := m.challengeBody(post, requirements, reason)
	c.AbortWithStatusJSON(http.StatusPaymentRequired, body)
}

func (m *gate) challengeBody(post *posts.Post, requirements *types.PaymentRequirements, reason types.Reason) *types.PaymentRequiredResponse {
	message := "Payment required"
	if reason != "" {
		message = "Payment verification failed"
	}
	return &types.PaymentRequiredResponse{
		X402Version:     types.X402Version,
		Error:           message,
		Reason:          reason,
		PostID:          post.ID,
		PaymentAmount:   post.PaymentAmount,
		PaymentCurrency: post.PaymentCurrency,
		PayTo:           requirements.PayTo,
		Post:            post.Preview(),
	}
}
