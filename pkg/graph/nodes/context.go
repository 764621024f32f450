package nodes

import "github.com/papercomputeco/platelog/pkg/state"

// ctxInt reads an integer clarification-context value, defaulting to zero
// when absent. Zero is the right default for both food_index and page.
func ctxInt(ctx map[string]any, key string) int {
	n, ok := state.CtxInt(ctx, key)
	if !ok {
		return 0
	}
	return n
}
