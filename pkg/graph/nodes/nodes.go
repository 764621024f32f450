// Package nodes implements the food-logging graph nodes. Each node is a
// method on Set taking the turn and returning a partial update; external
// collaborators are injected so every node is testable with fakes.
package nodes

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/platelog/pkg/eventstream"
	"github.com/papercomputeco/platelog/pkg/fooddb"
	"github.com/papercomputeco/platelog/pkg/foodlog"
	"github.com/papercomputeco/platelog/pkg/graph"
	"github.com/papercomputeco/platelog/pkg/nlu"
	"github.com/papercomputeco/platelog/pkg/state"
)

// pageSize is the fixed candidate page size for food selection.
const pageSize = 5

// maxSearchResults caps how many candidates a search keeps for pagination.
const maxSearchResults = 10

// Sentinel option strings for food_selection clarifications. Reconciliation
// matches these before any index arithmetic.
const (
	OptionShowMore     = "🔍 Show more options"
	OptionShowPrevious = "◀️ Show previous"
	OptionUseLabelData = "📋 Use label data"
	OptionCreateCustom = "➕ Create a custom food"
	OptionRephrase     = "Rephrase"
)

// Deps are the collaborators the node set needs.
type Deps struct {
	NLU     nlu.Service
	FoodDB  fooddb.Client
	Entries foodlog.Store

	// Events is the optional async publisher pool for entry-logged events.
	Events *eventstream.Pool

	Logger *zap.Logger
}

// Set holds the wired node implementations.
type Set struct {
	nlu     nlu.Service
	foodDB  fooddb.Client
	entries foodlog.Store
	events  *eventstream.Pool
	logger  *zap.Logger
}

// NewSet validates dependencies and creates the node set.
func NewSet(deps Deps) (*Set, error) {
	if deps.NLU == nil {
		return nil, fmt.Errorf("nodes: NLU service required")
	}
	if deps.FoodDB == nil {
		return nil, fmt.Errorf("nodes: food database client required")
	}
	if deps.Entries == nil {
		return nil, fmt.Errorf("nodes: food log store required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Set{
		nlu:     deps.NLU,
		foodDB:  deps.FoodDB,
		entries: deps.Entries,
		events:  deps.Events,
		logger:  deps.Logger,
	}, nil
}

// Registry maps every node id to its implementation.
func (s *Set) Registry() graph.Registry {
	return graph.Registry{
		state.NodeDetectInput:   s.DetectInput,
		state.NodeDetectIntent:  s.DetectIntent,
		state.NodeNormalize:     s.Normalize,
		state.NodePhoto:         s.ProcessPhoto,
		state.NodeLabel:         s.ProcessLabel,
		state.NodeCustom:        s.ProcessCustom,
		state.NodeClarify:       s.Clarify,
		state.NodeSearch:        s.Search,
		state.NodePaginate:      s.Paginate,
		state.NodeSelectServing: s.SelectServing,
		state.NodeSaveEntry:     s.SaveEntry,
		state.NodeTotals:        s.Totals,
		state.NodeAdvice:        s.Advice,
		state.NodeConverse:      s.Converse,
		state.NodeCreateCustom:  s.CreateCustom,
	}
}
