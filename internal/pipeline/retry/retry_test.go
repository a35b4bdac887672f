package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	solanarpc "github.com/moses7054/indexer-v2/internal/chain/solana/rpc"
)

func TestClassify_TerminalMarker(t *testing.T) {
	terminal := Classify(Terminal(errors.New("invalid params")))
	assert.Equal(t, ClassTerminal, terminal.Class)
	assert.Equal(t, "explicit_terminal", terminal.Reason)
	assert.False(t, terminal.IsRetryable())
}

func TestClassify_NilIsTerminal(t *testing.T) {
	assert.Equal(t, ClassTerminal, Classify(nil).Class)
	assert.Nil(t, Terminal(nil))
}

func TestClassify_RepresentativeRuntimeErrors(t *testing.T) {
	testCases := []struct {
		name          string
		err           error
		expectedClass Class
	}{
		{
			name:          "too many requests message",
			err:           errors.New("Server responded with 429 Too Many Requests"),
			expectedClass: ClassRateLimited,
		},
		{
			name:          "rate limit message",
			err:           errors.New("Rate limit exceeded for method getSignaturesForAddress"),
			expectedClass: ClassRateLimited,
		},
		{
			name:          "throttled message",
			err:           errors.New("request was throttled"),
			expectedClass: ClassRateLimited,
		},
		{
			name:          "quota exceeded message",
			err:           errors.New("monthly quota exceeded"),
			expectedClass: ClassRateLimited,
		},
		{
			name:          "json-rpc 429 code",
			err:           fmt.Errorf("getMultipleAccounts: %w", &solanarpc.RPCError{Code: 429, Message: "busy"}),
			expectedClass: ClassRateLimited,
		},
		{
			name:          "http 429 status",
			err:           fmt.Errorf("getProgramAccounts: %w", &solanarpc.HTTPStatusError{StatusCode: 429, Body: ""}),
			expectedClass: ClassRateLimited,
		},
		{
			name:          "wrapped terminal marker",
			err:           fmt.Errorf("getMultipleAccounts: %w", Terminal(errors.New("invalid owner"))),
			expectedClass: ClassTerminal,
		},
		{
			name:          "status 429 message",
			err:           errors.New("upstream returned status 429"),
			expectedClass: ClassRateLimited,
		},
		{
			name:          "address containing 429 is other",
			err:           errors.New("account 7x429abcQ: invalid owner"),
			expectedClass: ClassOther,
		},
		{
			name:          "http 503 is other",
			err:           &solanarpc.HTTPStatusError{StatusCode: 503, Body: "unavailable"},
			expectedClass: ClassOther,
		},
		{
			name:          "json-rpc server error is other",
			err:           &solanarpc.RPCError{Code: -32005, Message: "node is behind"},
			expectedClass: ClassOther,
		},
		{
			name:          "context deadline is other",
			err:           context.DeadlineExceeded,
			expectedClass: ClassOther,
		},
		{
			name:          "context canceled is terminal",
			err:           fmt.Errorf("http request: %w", context.Canceled),
			expectedClass: ClassTerminal,
		},
		{
			name:          "unknown defaults other",
			err:           errors.New("unexpected failure"),
			expectedClass: ClassOther,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			decision := Classify(tc.err)
			assert.Equal(t, tc.expectedClass, decision.Class, decision.Reason)
		})
	}
}
