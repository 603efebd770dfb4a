// Command post402 runs the payment-gated content server: the post API,
// the facilitator, and the gated post routes in one process.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Post402/post402-starter-kit/pkg/api"
	"github.com/Post402/post402-starter-kit/pkg/config"
	"github.com/Post402/post402-starter-kit/pkg/facilitator"
	"github.com/Post402/post402-starter-kit/pkg/facilitatorclient"
	paygin "github.com/Post402/post402-starter-kit/pkg/gin"
	"github.com/Post402/post402-starter-kit/pkg/ledger"
	"github.com/Post402/post402-starter-kit/pkg/posts"
	"github.com/Post402/post402-starter-kit/pkg/replay"
	"github.com/Post402/post402-starter-kit/pkg/session"
	"github.com/Post402/post402-starter-kit/pkg/verifier"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := posts.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("cannot open posts database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	var replayStore replay.Store
	if cfg.RedisAddr != "" {
		replayStore = replay.NewRedisStore(cfg.RedisAddr, cfg.ReplayTTL)
		logger.Info("replay store: redis", "addr", cfg.RedisAddr)
	} else {
		replayStore = replay.NewMemoryStore(cfg.ReplayTTL)
		logger.Info("replay store: in-memory", "ttl", cfg.ReplayTTL)
	}
	defer replayStore.Close()

	oracle := ledger.NewSolanaOracle(cfg.RPCEndpoint, cfg.LedgerTimeout)

	facilitatorURL := cfg.FacilitatorURL
	if facilitatorURL == "" {
		facilitatorURL = localFacilitatorURL(cfg.ListenAddr)
	}
	facClient := facilitatorclient.NewClient(facilitatorclient.Config{URL: facilitatorURL})

	paymentVerifier := verifier.New(replayStore, facClient, logger)
	defer paymentVerifier.Close()

	sessions := session.NewValidator(replayStore, cfg.TrustCookieFormat, logger)
	if cfg.TrustCookieFormat {
		logger.Warn("trust-by-format session fallback is enabled; " +
			"well-formed forged tokens will be accepted when the replay store has no record")
	}

	handlers := api.New(store, sessions, cfg.CookieName, logger)

	router := gin.New()
	router.Use(gin.Recovery())

	apiGroup := router.Group("/api")
	handlers.Register(apiGroup)
	facilitator.New(oracle, cfg.Network, logger).Register(apiGroup.Group("/facilitator"))

	protected := router.Group("/post")
	protected.Use(paygin.PaymentMiddleware(store, paymentVerifier, sessions,
		paygin.WithNetwork(cfg.Network),
		paygin.WithAsset(cfg.USDCMint),
		paygin.WithCookie(cfg.CookieName, cfg.CookieMaxAge, cfg.CookieSecure),
		paygin.WithLogger(logger),
	))
	protected.GET("/:uuid", handlers.PostPage)

	logger.Info("post402 listening",
		"addr", cfg.ListenAddr, "network", cfg.Network, "facilitator", facilitatorURL)
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// localFacilitatorURL points the verifier at the facilitator mounted in
// this same process.
func localFacilitatorURL(listenAddr string) string {
	host := listenAddr
	if strings.HasPrefix(host, ":") {
		host = "127.0.0.1" + host
	}
	return "http://" + host + "/api/facilitator"
}
