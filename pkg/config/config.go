// Package config carries the deployment configuration for the payment
// gate and facilitator. Exactly one scheme/network pair is supported
// per deployment; everything else is rejected before verification.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Solana USDC mints.
const (
	USDCDevnetMint  = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"
	USDCMainnetMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// Defaults.
const (
	DefaultNetwork       = "solana-devnet"
	DefaultRPCEndpoint   = "https://api.devnet.solana.com"
	DefaultListenAddr    = ":8402"
	DefaultCookieName    = "post_payment_verified"
	DefaultCookieMaxAge  = 24 * time.Hour
	DefaultReplayTTL     = 24 * time.Hour
	DefaultLedgerTimeout = 10 * time.Second
	DefaultDatabasePath  = "post402.db"
	DefaultCurrency      = "USDC"
)

// Config is the process-wide configuration.
type Config struct {
	// Network is the single supported network identifier, e.g.
	// "solana-devnet".
	Network string
	// RPCEndpoint is the Solana JSON-RPC endpoint the ledger oracle
	// queries.
	RPCEndpoint string
	// USDCMint is the single supported asset.
	USDCMint string
	// PaymentCurrency is the display symbol used in denial bodies.
	PaymentCurrency string

	// FacilitatorURL is the base URL of the verify/settle/supported
	// endpoints. Empty means the in-process facilitator mounted under
	// /api/facilitator on ListenAddr.
	FacilitatorURL string

	ListenAddr   string
	DatabasePath string

	CookieName   string
	CookieMaxAge time.Duration
	CookieSecure bool

	ReplayTTL     time.Duration
	LedgerTimeout time.Duration

	// RedisAddr, when set, switches the replay store to Redis so all
	// instances share verification state.
	RedisAddr string

	// TrustCookieFormat enables the compatibility shim that accepts a
	// session cookie on shape alone when the replay store has no record
	// of it. Off by default: a well-formed forged token would otherwise
	// be accepted without ever having been verified. Only enable it on
	// stateless multi-instance deployments that cannot run Redis.
	TrustCookieFormat bool
}

// FromEnv builds a Config from POST402_* environment variables,
// falling back to devnet defaults.
func FromEnv() *Config {
	cfg := &Config{
		Network:           envOr("POST402_NETWORK", DefaultNetwork),
		RPCEndpoint:       envOr("POST402_RPC_ENDPOINT", DefaultRPCEndpoint),
		USDCMint:          envOr("POST402_USDC_MINT", USDCDevnetMint),
		PaymentCurrency:   envOr("POST402_CURRENCY", DefaultCurrency),
		FacilitatorURL:    os.Getenv("POST402_FACILITATOR_URL"),
		ListenAddr:        envOr("POST402_LISTEN_ADDR", DefaultListenAddr),
		DatabasePath:      envOr("POST402_DB_PATH", DefaultDatabasePath),
		CookieName:        envOr("POST402_COOKIE_NAME", DefaultCookieName),
		CookieMaxAge:      DefaultCookieMaxAge,
		CookieSecure:      envBool("POST402_COOKIE_SECURE", true),
		ReplayTTL:         DefaultReplayTTL,
		LedgerTimeout:     DefaultLedgerTimeout,
		RedisAddr:         os.Getenv("POST402_REDIS_ADDR"),
		TrustCookieFormat: envBool("POST402_TRUST_COOKIE_FORMAT", false),
	}
	if d := envDuration("POST402_REPLAY_TTL"); d > 0 {
		cfg.ReplayTTL = d
	}
	if d := envDuration("POST402_LEDGER_TIMEOUT"); d > 0 {
		cfg.LedgerTimeout = d
	}
	return cfg
}

// Validate checks that the config names a usable deployment.
func (c *Config) Validate() error {
	if c.Network == "" {
		return errors.New("config: network is required")
	}
	if c.RPCEndpoint == "" {
		return errors.New("config: rpc endpoint is required")
	}
	if c.USDCMint == "" {
		return errors.New("config: usdc mint is required")
	}
	if c.CookieName == "" {
		return errors.New("config: cookie name is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
