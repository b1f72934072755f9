// Package identity resolves free-text vendor item names to canonical
// ingredients or recipes. Resolution walks an ordered cascade of matching
// strategies with differing confidence guarantees and returns on the
// first success; "not found" is a normal outcome, not an error.
package identity

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ladleworks/foodcost-cli/internal/model"
	"github.com/ladleworks/foodcost-cli/internal/normalize"
)

// Confidence assigned by each strategy.
const (
	confidenceSaved  = 100
	confidenceGlobal = 95
	confidenceExact  = 100
	confidenceAlias  = 95

	// DefaultThreshold is the minimum fuzzy score for an automatic match.
	DefaultThreshold = 70

	// suggestFloor is the lower confidence bound applied to suggestions.
	suggestFloor = 50

	// DefaultMaxSuggestions caps Suggest results unless overridden.
	DefaultMaxSuggestions = 5
)

// ErrEmptyText rejects blank input before any strategy runs, so callers
// can tell malformed input from a legitimate non-match.
var ErrEmptyText = eris.New("identity: empty search text")

// Repository is the persistence surface the resolver reads.
type Repository interface {
	GetSavedMapping(ctx context.Context, importText, locationID string) (*model.SavedMapping, error)
	ListCanonicalItems(ctx context.Context, locationID string) ([]model.CanonicalItem, error)
}

// GlobalProvider serves admin-curated, location-independent mappings.
type GlobalProvider interface {
	GetGlobalMapping(ctx context.Context, importText string) (*model.GlobalMapping, error)
}

// Resolver resolves import text against a location's catalog. It is
// stateless over its injected collaborators and safe for concurrent use.
type Resolver struct {
	repo    Repository
	globals GlobalProvider
}

// NewResolver creates a Resolver. globals may be nil when no global
// mapping source is configured; that strategy then always misses.
func NewResolver(repo Repository, globals GlobalProvider) *Resolver {
	return &Resolver{repo: repo, globals: globals}
}

// ResolveOption adjusts a single Resolve call.
type ResolveOption func(*resolveOpts)

type resolveOpts struct {
	threshold int
}

// WithThreshold overrides the fuzzy-match threshold for one call.
func WithThreshold(t int) ResolveOption {
	return func(o *resolveOpts) { o.threshold = t }
}

// query carries the per-call state shared by all strategies.
type query struct {
	norm       string
	locationID string
	kind       model.ItemKind
	items      []model.CanonicalItem
	threshold  int
}

type strategy struct {
	name string
	try  func(ctx context.Context, q *query) (*model.MatchResult, error)
}

// Resolve runs the strategy cascade for text within a location's catalog.
// The first strategy to produce a result wins. A strategy error is logged
// and treated as a miss so a degraded collaborator lowers match quality
// instead of breaking the import. The returned MatchResult has
// IsMatched=false when every strategy misses.
func (r *Resolver) Resolve(ctx context.Context, text, locationID string, kind model.ItemKind, opts ...ResolveOption) (model.MatchResult, error) {
	o := resolveOpts{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}

	norm := normalize.Name(text)
	if norm == "" {
		return model.MatchResult{}, ErrEmptyText
	}

	q := &query{norm: norm, locationID: locationID, kind: kind, threshold: o.threshold}

	items, err := r.repo.ListCanonicalItems(ctx, locationID)
	if err != nil {
		// Catalog unavailable: saved mappings can still answer by id,
		// but name-based strategies have nothing to scan.
		zap.L().Warn("identity: catalog listing failed",
			zap.String("location", locationID),
			zap.Error(err),
		)
	}
	q.items = items

	for _, s := range r.strategies() {
		res, err := s.try(ctx, q)
		if err != nil {
			zap.L().Warn("identity: strategy failed, continuing cascade",
				zap.String("strategy", s.name),
				zap.String("text", norm),
				zap.Error(err),
			)
			continue
		}
		if res != nil {
			return *res, nil
		}
	}

	return model.MatchResult{IsMatched: false}, nil
}

func (r *Resolver) strategies() []strategy {
	return []strategy{
		{name: "saved", try: r.trySaved},
		{name: "global", try: r.tryGlobal},
		{name: "exact", try: r.tryExact},
		{name: "alias", try: r.tryAlias},
		{name: "fuzzy", try: r.tryFuzzy},
	}
}

// trySaved looks up the per-location saved mapping. A mapping pointing at
// the wrong kind is skipped rather than failed: the cascade continues.
func (r *Resolver) trySaved(ctx context.Context, q *query) (*model.MatchResult, error) {
	m, err := r.repo.GetSavedMapping(ctx, q.norm, q.locationID)
	if err != nil {
		return nil, eris.Wrap(err, "saved mapping lookup")
	}
	if m == nil || m.TargetKind != q.kind {
		return nil, nil
	}

	item := itemByID(q.items, m.TargetID)
	if item == nil {
		// Mapping target no longer in the catalog; fall through.
		return nil, nil
	}

	return &model.MatchResult{
		IsMatched:  true,
		TargetID:   item.ID,
		TargetName: item.Name,
		TargetKind: item.Kind,
		Confidence: confidenceSaved,
		Method:     model.MatchMethodSaved,
	}, nil
}

// tryGlobal looks up the admin-curated mapping, then re-resolves its
// stored name within this location's catalog (ids are location-scoped).
// Either lookup may miss, falling through.
func (r *Resolver) tryGlobal(ctx context.Context, q *query) (*model.MatchResult, error) {
	if r.globals == nil {
		return nil, nil
	}
	m, err := r.globals.GetGlobalMapping(ctx, q.norm)
	if err != nil {
		return nil, eris.Wrap(err, "global mapping lookup")
	}
	if m == nil || m.TargetKind != q.kind {
		return nil, nil
	}

	target := normalize.Name(m.TargetName)
	for i := range q.items {
		if q.items[i].Kind == q.kind && normalize.Name(q.items[i].Name) == target {
			return &model.MatchResult{
				IsMatched:  true,
				TargetID:   q.items[i].ID,
				TargetName: q.items[i].Name,
				TargetKind: q.items[i].Kind,
				Confidence: confidenceGlobal,
				Method:     model.MatchMethodGlobal,
			}, nil
		}
	}
	return nil, nil
}

func (r *Resolver) tryExact(_ context.Context, q *query) (*model.MatchResult, error) {
	for i := range q.items {
		if q.items[i].Kind != q.kind {
			continue
		}
		if normalize.Name(q.items[i].Name) == q.norm {
			return &model.MatchResult{
				IsMatched:  true,
				TargetID:   q.items[i].ID,
				TargetName: q.items[i].Name,
				TargetKind: q.items[i].Kind,
				Confidence: confidenceExact,
				Method:     model.MatchMethodExact,
			}, nil
		}
	}
	return nil, nil
}

func (r *Resolver) tryAlias(_ context.Context, q *query) (*model.MatchResult, error) {
	for i := range q.items {
		if q.items[i].Kind != q.kind {
			continue
		}
		for _, alias := range q.items[i].Aliases {
			if normalize.Name(alias) == q.norm {
				return &model.MatchResult{
					IsMatched:  true,
					TargetID:   q.items[i].ID,
					TargetName: q.items[i].Name,
					TargetKind: q.items[i].Kind,
					Confidence: confidenceAlias,
					Method:     model.MatchMethodAlias,
				}, nil
			}
		}
	}
	return nil, nil
}

// tryFuzzy scores every catalog item and accepts the best candidate at or
// above the threshold. Ties keep the first-seen item. Below-threshold
// candidates produce a miss, not a low-confidence match.
func (r *Resolver) tryFuzzy(_ context.Context, q *query) (*model.MatchResult, error) {
	var best *model.CanonicalItem
	bestScore := 0
	for i := range q.items {
		if q.items[i].Kind != q.kind {
			continue
		}
		if s := itemScore(q.norm, &q.items[i]); s > bestScore {
			bestScore = s
			best = &q.items[i]
		}
	}

	if best == nil || bestScore < q.threshold {
		return nil, nil
	}

	return &model.MatchResult{
		IsMatched:  true,
		TargetID:   best.ID,
		TargetName: best.Name,
		TargetKind: best.Kind,
		Confidence: bestScore,
		Method:     model.MatchMethodFuzzy,
	}, nil
}

// itemScore is the item's best similarity across its name and aliases.
func itemScore(norm string, item *model.CanonicalItem) int {
	s := Score(norm, normalize.Name(item.Name))
	for _, alias := range item.Aliases {
		if as := Score(norm, normalize.Name(alias)); as > s {
			s = as
		}
	}
	return s
}

// Suggest returns ranked candidates for manual review. It reuses the
// fuzzy scorer with a fixed floor of 50 and additionally flags alias
// substring hits, ordered by descending confidence.
func (r *Resolver) Suggest(ctx context.Context, text, locationID string, kind model.ItemKind, maxResults int) ([]model.Suggestion, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxSuggestions
	}

	norm := normalize.Name(text)
	if norm == "" {
		return nil, ErrEmptyText
	}

	items, err := r.repo.ListCanonicalItems(ctx, locationID)
	if err != nil {
		return nil, eris.Wrap(err, "identity: list canonical items")
	}

	var out []model.Suggestion
	for i := range items {
		if items[i].Kind != kind {
			continue
		}

		score := Score(norm, normalize.Name(items[i].Name))
		reason := "name similarity"

		for _, alias := range items[i].Aliases {
			a := normalize.Name(alias)
			if as := Score(norm, a); as > score {
				score = as
				reason = "alias similarity"
			}
			if strings.Contains(a, norm) || strings.Contains(norm, a) {
				if score < confidenceAlias {
					score = confidenceAlias
				}
				reason = "alias contains text"
			}
		}

		if score < suggestFloor {
			continue
		}
		out = append(out, model.Suggestion{
			ID:         items[i].ID,
			Name:       items[i].Name,
			Confidence: score,
			Reason:     reason,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func itemByID(items []model.CanonicalItem, id string) *model.CanonicalItem {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}
