package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/wattle/pkg/graph"
	"github.com/aretw0/wattle/pkg/ports"
)

type piiMiddleware struct {
	next     ports.RunRecorder
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of state keys
// matching the patterns before a trace is written. Masking covers the final
// state and every recorded step update, nested maps included.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.RunRecorder) ports.RunRecorder {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, trace *graph.Trace) error {
	// Clone first so masking never bleeds into the trace the caller is
	// still holding.
	cloned := trace.Clone()

	for i := range cloned.Steps {
		maskMap(cloned.Steps[i].Update, m.patterns)
	}
	maskMap(cloned.Final, m.patterns)

	return m.next.Save(ctx, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (*graph.Trace, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

// Helpers

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
