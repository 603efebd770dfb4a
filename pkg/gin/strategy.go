package gin

import "strings"

// ResponseStrategy is the negotiated representation for challenges and
// denials, derived once per request and reused on every branch.
type ResponseStrategy int

const (
	// StrategyMachine returns structured JSON denials with the exact
	// payment terms needed to retry.
	StrategyMachine ResponseStrategy = iota
	// StrategyDocument forwards the request unmodified so the page can
	// render an in-page payment flow.
	StrategyDocument
)

func (s ResponseStrategy) String() string {
	if s == StrategyDocument {
		return "document"
	}
	return "machine"
}

// StrategyFor classifies a request from its content-negotiation
// signals. Pure function, no side effects.
func StrategyFor(acceptHeader, userAgent string) ResponseStrategy {
	if strings.Contains(acceptHeader, "text/html") {
		return StrategyDocument
	}
	if !strings.Contains(acceptHeader, "application/json") && strings.Contains(userAgent, "Mozilla") {
		return StrategyDocument
	}
	return StrategyMachine
}

func wantsJSON(acceptHeader string) bool {
	return strings.Contains(acceptHeader, "application/json")
}
