package graph

import (
	"github.com/papercomputeco/platelog/pkg/state"
)

// DefaultRoutes is the edge table for the food-logging graph. Each routing
// function sees the merged state after its node ran; the executor has
// already honored NextNode and ShouldEnd by the time these are consulted.
func DefaultRoutes() Routes {
	return Routes{
		state.NodeDetectInput: func(t *state.Turn) state.NodeID {
			switch t.InputKind {
			case state.InputPhoto:
				return state.NodePhoto
			case state.InputCallback, state.InputConfirmation:
				return state.NodeClarify
			default:
				return state.NodeDetectIntent
			}
		},
		state.NodeDetectIntent: func(t *state.Turn) state.NodeID {
			// Everything that is not a food entry is handled conversationally.
			if t.Intent != "" && t.Intent != state.IntentFoodEntry {
				return state.NodeConverse
			}
			return state.NodeNormalize
		},
		state.NodeNormalize: func(t *state.Turn) state.NodeID {
			return state.NodeSearch
		},
		state.NodePhoto: func(t *state.Turn) state.NodeID {
			return state.NodeSearch
		},
		state.NodeLabel: func(t *state.Turn) state.NodeID {
			return state.NodeSearch
		},
		state.NodeCustom: func(t *state.Turn) state.NodeID {
			return state.NodeSaveEntry
		},
		state.NodeClarify: func(t *state.Turn) state.NodeID {
			return state.NodeSearch
		},
		state.NodePaginate: func(t *state.Turn) state.NodeID {
			return state.NodeClarify
		},
		state.NodeSearch: func(t *state.Turn) state.NodeID {
			return state.NodeSelectServing
		},
		state.NodeSelectServing: func(t *state.Turn) state.NodeID {
			return state.NodeSaveEntry
		},
		state.NodeSaveEntry: func(t *state.Turn) state.NodeID {
			return state.NodeTotals
		},
		state.NodeTotals: func(t *state.Turn) state.NodeID {
			return state.NodeAdvice
		},
		// advice and converse are terminal: no entry means the executor
		// stops after they run.
	}
}
