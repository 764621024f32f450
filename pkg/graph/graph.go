// Package graph drives the conversation graph: a registry of named nodes,
// a routing table of per-node routing functions, and an executor that runs
// nodes sequentially over a turn until one signals the end.
package graph

import (
	"context"

	"github.com/papercomputeco/platelog/pkg/state"
)

// Func is a single graph node: it consumes the turn and returns a partial
// update. Nodes handle their own recoverable failures; a returned error is
// terminal for the turn.
type Func func(ctx context.Context, t *state.Turn) (*state.Update, error)

// Router inspects the merged state after a node ran and names the next node.
// It is consulted only when the node set neither NextNode nor ShouldEnd.
type Router func(t *state.Turn) state.NodeID

// Registry maps node ids to their implementations.
type Registry map[state.NodeID]Func

// Routes maps node ids to their default routing functions. A node with no
// entry is terminal: the executor stops after it runs.
type Routes map[state.NodeID]Router
