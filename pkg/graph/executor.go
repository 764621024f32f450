package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/state"
)

// DefaultMaxSteps bounds node invocations per turn. A routing bug that
// produces a cycle aborts with an error instead of looping.
const DefaultMaxSteps = 20

// Executor runs the graph for one turn at a time. It holds no mutable state
// of its own, so a single Executor serves concurrent conversations.
type Executor struct {
	entry    state.NodeID
	registry Registry
	routes   Routes
	maxSteps int
	logger   *zap.Logger
}

// Config wires an Executor.
type Config struct {
	// Entry is the node run first when the turn carries no NextNode override.
	Entry state.NodeID

	// Registry maps node ids to implementations.
	Registry Registry

	// Routes maps node ids to default routing functions.
	Routes Routes

	// MaxSteps caps node invocations per turn (defaults to DefaultMaxSteps).
	MaxSteps int

	// Logger is the injected zap logger.
	Logger *zap.Logger
}

// NewExecutor validates the wiring and creates an executor.
func NewExecutor(c Config) (*Executor, error) {
	if c.Entry == state.NodeNone {
		return nil, fmt.Errorf("graph: entry node required")
	}
	if _, ok := c.Registry[c.Entry]; !ok {
		return nil, fmt.Errorf("graph: entry node %q not registered", c.Entry)
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &Executor{
		entry:    c.Entry,
		registry: c.Registry,
		routes:   c.Routes,
		maxSteps: c.MaxSteps,
		logger:   c.Logger,
	}, nil
}

// Run executes nodes over the turn until ShouldEnd is set, a node has no
// outgoing edge, or the step ceiling trips. Node calls are strictly
// sequential; the turn is mutated in place and returned.
func (e *Executor) Run(ctx context.Context, t *state.Turn) (*state.Turn, error) {
	current := e.entry
	if t.NextNode != state.NodeNone {
		// Resumed turns arrive with the next node forced.
		current = t.NextNode
		t.NextNode = state.NodeNone
	}

	for step := 0; ; step++ {
		if step >= e.maxSteps {
			t.Errors = append(t.Errors, fmt.Sprintf("graph aborted after %d steps at node %q", e.maxSteps, current))
			t.ShouldEnd = true
			e.logger.Error("step ceiling reached",
				zap.String("conversation_id", t.ConversationID),
				zap.String("node", string(current)),
				zap.Int("max_steps", e.maxSteps),
			)
			return t, nil
		}

		if current == state.NodeEnd {
			return t, nil
		}

		fn, ok := e.registry[current]
		if !ok {
			t.Errors = append(t.Errors, fmt.Sprintf("unknown graph node %q", current))
			t.ShouldEnd = true
			return t, nil
		}

		e.logger.Debug("running node",
			zap.String("conversation_id", t.ConversationID),
			zap.String("node", string(current)),
			zap.Int("step", step),
		)

		update, err := e.invoke(ctx, fn, t)
		if err != nil {
			t.Errors = append(t.Errors, fmt.Sprintf("node %s: %v", current, err))
			t.ShouldEnd = true
			e.logger.Error("node failed",
				zap.String("conversation_id", t.ConversationID),
				zap.String("node", string(current)),
				zap.Error(err),
			)
			return t, nil
		}

		update.Apply(t)

		if t.ShouldEnd {
			return t, nil
		}

		// The explicit override set by the node wins over the default
		// routing function.
		if t.NextNode != state.NodeNone {
			current = t.NextNode
			t.NextNode = state.NodeNone
			continue
		}

		route, ok := e.routes[current]
		if !ok {
			// Terminal node with no defined edge.
			return t, nil
		}
		current = route(t)
	}
}

// invoke wraps a node call, converting a panic into an error so a
// misbehaving node cannot crash the executor.
func (e *Executor) invoke(ctx context.Context, fn Func, t *state.Turn) (update *state.Update, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, t)
}
