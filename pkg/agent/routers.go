package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/wattle/pkg/graph"
)

// DecisionRouter routes on the recorded decision's tag: the finish label when
// the decider finished, the action label otherwise. A missing decision routes
// to the action label, where the act node reports the broken contract.
func DecisionRouter(actionLabel, finishLabel string) graph.RouterFunc {
	return func(_ context.Context, s *graph.State) string {
		d, err := currentDecision(s)
		if err == nil && d.Finish != nil {
			return finishLabel
		}
		return actionLabel
	}
}

// SentinelRouter routes on a textual sentinel: the done label once the named
// field's text ends with the sentinel, the continue label before that. For
// accumulating fields the latest element is inspected, so a message log
// terminates on its most recent entry.
func SentinelRouter(field, sentinel, doneLabel, continueLabel string) graph.RouterFunc {
	return func(_ context.Context, s *graph.State) string {
		v, ok := s.Get(field)
		if !ok {
			return continueLabel
		}
		if entries, isSeq := v.([]any); isSeq {
			if len(entries) == 0 {
				return continueLabel
			}
			v = entries[len(entries)-1]
		}
		if strings.HasSuffix(fmt.Sprintf("%v", v), sentinel) {
			return doneLabel
		}
		return continueLabel
	}
}
