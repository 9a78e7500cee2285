package graph

import "context"

// Compose chains transforms into a single node. Each stage observes the state
// with the previous stages' updates already folded in, and the combined
// update is merged per the schema's field rules, so registering the result
// behaves exactly like running the stages as consecutive nodes without the
// intermediate routing.
func Compose(schema *Schema, stages ...NodeFunc) NodeFunc {
	return func(ctx context.Context, s *State) (Update, error) {
		view := s
		combined := Update{}
		for _, stage := range stages {
			u, err := stage(ctx, view)
			if err != nil {
				return nil, err
			}
			if len(u) == 0 {
				continue
			}
			view, err = schema.Apply(view, u)
			if err != nil {
				return nil, err
			}
			combined, err = schema.MergeUpdates(combined, u)
			if err != nil {
				return nil, err
			}
		}
		return combined, nil
	}
}
