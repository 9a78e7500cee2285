package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/wattle/pkg/graph"
)

// LoadInitial assembles a run's initial state from an optional YAML file and
// key=value overrides. Override values are parsed as YAML scalars, so
// --set count=3 seeds an int and --set task="say hi" a string. Returns nil
// when neither source provides a value.
func LoadInitial(path string, sets []string) (graph.Update, error) {
	update := graph.Update{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading initial state file: %w", err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("error parsing initial state file: %w", err)
		}
		for k, v := range doc {
			update[k] = v
		}
	}

	for _, kv := range sets {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", kv)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		update[name] = v
	}

	if len(update) == 0 {
		return nil, nil
	}
	return update, nil
}
