package redlockerr

import (
	"errors"
	"testing"
)

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("Connection is closed.")
	te := &TransportError{Endpoint: "node-1", Cause: cause}
	if te.Error() != "Connection is closed." {
		t.Fatalf("unexpected message: %q", te.Error())
	}
	if !errors.Is(te, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}

func TestVoteIsTransport(t *testing.T) {
	locked := Vote{Locked: &ResourceLockedError{Resources: []string{"{r}a"}}}
	if locked.IsTransport() {
		t.Fatal("a locked vote is not a transport vote")
	}
	transport := Vote{Transport: &TransportError{Endpoint: "node-1", Cause: errors.New("boom")}}
	if !transport.IsTransport() {
		t.Fatal("expected a transport vote")
	}
}

func TestExecutionErrorSummarizesLastAttempt(t *testing.T) {
	err := &ExecutionError{Attempts: []AttemptRecord{
		{
			VotesFor: map[string]struct{}{},
			VotesAgainst: map[string]Vote{
				"node-1": {Locked: &ResourceLockedError{Resources: []string{"{r}a", "{r}b"}}},
				"node-2": {Locked: &ResourceLockedError{Resources: []string{"{r}a", "{r}b"}}},
			},
		},
	}}
	if got := err.Error(); got == "" {
		t.Fatal("expected a non-empty message")
	}

	transportErr := &ExecutionError{Attempts: []AttemptRecord{
		{
			VotesFor: map[string]struct{}{},
			VotesAgainst: map[string]Vote{
				"node-1": {Transport: &TransportError{Endpoint: "node-1", Cause: errors.New("down")}},
			},
		},
	}}
	if got := transportErr.Error(); got == "" {
		t.Fatal("expected a non-empty message")
	}
}
