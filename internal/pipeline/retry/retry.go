package retry

import (
	"context"
	"errors"
	"net/http"
	"strings"


	solanarpc "github.com/moses7054/indexer-v2/internal/chain/solana/rpc"
)

type Class string

const (
	// ClassRateLimited marks rate-limit or throttling signals from the ledger service.
	ClassRateLimited Class = "rate_limited"
	// ClassOther marks any other network or service failure.
	ClassOther Class = "other"
	// ClassTerminal marks failures that must not be retried at all.
	ClassTerminal Class = "terminal"
)

type Decision struct {
	Class  Class
	Reason string
}

func (d Decision) IsRateLimited() bool {
	return d.Class == ClassRateLimited
}

func (d Decision) IsRetryable() bool {
	return d.Class != ClassTerminal
}

type classifiedError struct {
	err    error
	class  Class
	reason string
}

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

// Terminal marks err as a local failure that a retry cannot fix, such as a
// malformed response.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{
		err:    err,
		class:  ClassTerminal,
		reason: "explicit_terminal",
	}
}

func Classify(err error) Decision {
	if err == nil {
		return Decision{Class: ClassTerminal, Reason: "nil_error"}
	}

	var marked *classifiedError
	if errors.As(err, &marked) {
		return Decision{Class: marked.class, Reason: marked.reason}
	}

	if errors.Is(err, context.Canceled) {
		return Decision{Class: ClassTerminal, Reason: "context_canceled"}
	}

	var httpErr *solanarpc.HTTPStatusError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return Decision{Class: ClassRateLimited, Reason: "http_429"}
	}
	var rpcErr *solanarpc.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == http.StatusTooManyRequests {
		return Decision{Class: ClassRateLimited, Reason: "jsonrpc_429"}
	}

	lower := strings.ToLower(err.Error())
	if containsAny(lower, rateLimitMessageTokens) {
		return Decision{Class: ClassRateLimited, Reason: "message_rate_limited"}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Decision{Class: ClassOther, Reason: "context_deadline_exceeded"}
	}
	return Decision{Class: ClassOther, Reason: "other_default"}
}

func containsAny(msg string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

// A bare "429" would also match base-58 addresses quoted in error text.
var rateLimitMessageTokens = []string{
	"too many requests",
	"rate limit",
	"status 429",
	"http 429",
	"code 429",
	"throttled",
	"quota exceeded",
}
