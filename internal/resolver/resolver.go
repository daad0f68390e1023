// Package resolver maps human node names to authoritative type
// identifiers through an ordered fallback chain: curated trust list,
// pattern library mined from captured graphs, then a live host query.
// Every result carries a provenance tag and a confidence score, and every
// ambiguity the chain detects surfaces as a warning instead of a silent
// guess.
//
// Known limitation: the live-query tier takes only the first candidate the
// host returns. When the host reports several ambiguous matches the chain
// does not rank or disambiguate beyond the library and name checks below.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fernwell/nodeatlas/internal/bridge"
)

// Provenance identifies which tier produced a resolution result.
type Provenance string

const (
	SourceTrusted  Provenance = "trusted"
	SourcePattern  Provenance = "pattern_library"
	SourceLive     Provenance = "live_query"
	SourceNotFound Provenance = "not_found"
)

// Tier confidences. Not probabilities; used only for ranking and warning
// thresholds.
const (
	confidenceTrusted     = 1.0
	confidencePattern     = 0.8
	confidenceLiveBuiltin = 0.6
	confidenceLiveForeign = 0.3
)

// Resolved is the immutable outcome of one resolution query.
type Resolved struct {
	Name       string     `json:"name"`
	GUID       string     `json:"guid,omitempty"`
	Source     Provenance `json:"source"`
	Confidence float64    `json:"confidence"`
	FullName   string     `json:"full_name,omitempty"`
	Inputs     []string   `json:"inputs,omitempty"`
	Outputs    []string   `json:"outputs,omitempty"`
	Warnings   []string   `json:"warnings,omitempty"`
}

// Found reports whether any tier produced an identifier.
func (r *Resolved) Found() bool { return r.Source != SourceNotFound }

// Searcher is the host capability the live-query tier depends on.
// *bridge.Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string) ([]bridge.Candidate, error)
}

// Resolver resolves names through the tier chain. It is constructed once
// at process start with its knowledge loaded, then passed to callers;
// there is no shared global instance.
type Resolver struct {
	trust          map[string]TrustEntry
	patterns       map[string]string
	searcher       Searcher
	builtinLibrary string
	queryTimeout   time.Duration
	logger         *slog.Logger
}

// New creates a resolver. trust and patterns may be nil (empty tiers);
// searcher may be nil, in which case the live tier is skipped entirely.
func New(trust map[string]TrustEntry, patterns map[string]string, searcher Searcher, builtinLibrary string, queryTimeout time.Duration, logger *slog.Logger) *Resolver {
	if trust == nil {
		trust = make(map[string]TrustEntry)
	}
	if patterns == nil {
		patterns = make(map[string]string)
	}
	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}
	return &Resolver{
		trust:          trust,
		patterns:       patterns,
		searcher:       searcher,
		builtinLibrary: builtinLibrary,
		queryTimeout:   queryTimeout,
		logger:         logger,
	}
}

// Resolve walks the tier chain for one name; the first matching tier wins.
// Transport failure on the live tier exhausts it rather than failing the
// query, so the worst outcome is a not-found result with confidence 0.
func (r *Resolver) Resolve(ctx context.Context, name string) *Resolved {
	if entry, ok := r.trust[name]; ok {
		res := &Resolved{
			Name:       name,
			GUID:       entry.GUID,
			Source:     SourceTrusted,
			Confidence: confidenceTrusted,
			FullName:   entry.FullName,
			Inputs:     entry.Inputs,
			Outputs:    entry.Outputs,
		}
		// Trust overrides ambiguity: known conflicts are surfaced but do
		// not lower confidence.
		if len(entry.Conflicts) > 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("name %q has known conflicts: %s", name, strings.Join(entry.Conflicts, ", ")))
		}
		return res
	}

	if guid, ok := r.patterns[name]; ok {
		return &Resolved{
			Name:       name,
			GUID:       guid,
			Source:     SourcePattern,
			Confidence: confidencePattern,
			Warnings: []string{
				fmt.Sprintf("%q resolved from the pattern library; verify the identifier before relying on it", name),
			},
		}
	}

	if res := r.resolveLive(ctx, name); res != nil {
		return res
	}

	return &Resolved{
		Name:       name,
		Source:     SourceNotFound,
		Confidence: 0.0,
		Warnings:   []string{fmt.Sprintf("no identifier found for %q in any tier", name)},
	}
}

// resolveLive queries the host and scores its first candidate. A nil
// return means the tier is exhausted (no searcher, transport failure, or
// no candidates).
func (r *Resolver) resolveLive(ctx context.Context, name string) *Resolved {
	if r.searcher == nil {
		return nil
	}

	qctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	candidates, err := r.searcher.Search(qctx, name)
	if err != nil {
		r.logger.Warn("resolver: live query failed",
			slog.String("name", name),
			slog.String("error", err.Error()))
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	// First candidate only; ranking is the host's responsibility.
	cand := candidates[0]
	res := &Resolved{
		Name:     name,
		GUID:     cand.GUID,
		Source:   SourceLive,
		FullName: cand.Name,
		Inputs:   cand.Inputs,
		Outputs:  cand.Outputs,
	}

	if cand.Library == r.builtinLibrary {
		res.Confidence = confidenceLiveBuiltin
	} else {
		res.Confidence = confidenceLiveForeign
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%q resolved into library %q, not the built-in %q", name, cand.Library, r.builtinLibrary))
	}

	if !strings.EqualFold(cand.Name, name) {
		res.Confidence /= 2
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("host candidate %q does not match query %q", cand.Name, name))
	}

	if cand.Obsolete {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("candidate for %q is marked obsolete by the host", name))
	}

	return res
}

// ResolveBatch resolves each name independently (no cross-name
// memoization) and returns a name-keyed map.
func (r *Resolver) ResolveBatch(ctx context.Context, names []string) map[string]*Resolved {
	out := make(map[string]*Resolved, len(names))
	for _, name := range names {
		out[name] = r.Resolve(ctx, name)
	}
	return out
}
