// Package engine is the reactive store: it owns the document index, the
// override layer, and the resolver, re-resolves the full output-variable set
// on every mutation, and notifies subscribers with the minimal changed set.
package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/prism/internal/derive"
	"github.com/zjrosen/prism/internal/document"
	"github.com/zjrosen/prism/internal/log"
	"github.com/zjrosen/prism/internal/override"
	"github.com/zjrosen/prism/internal/pubsub"
	"github.com/zjrosen/prism/internal/reference"
	"github.com/zjrosen/prism/internal/resolver"
	"github.com/zjrosen/prism/internal/tracing"
)

// DefaultPreviewWindow is the quiescence window for optimistic previews.
// A drag gesture re-arms it on every sample; the pending value commits once
// the gesture pauses this long.
const DefaultPreviewWindow = 120 * time.Millisecond

// ChangeSet names the output variables whose values changed in one settled
// resolution pass. Removed variables are included by name.
type ChangeSet struct {
	ChangedVariableNames []string
}

// Options configures an Engine. The zero value is usable: no tracing and the
// default preview window.
type Options struct {
	Tracer        trace.Tracer
	PreviewWindow time.Duration
}

// Engine owns documents, overrides, and the resolver, and maintains the last
// settled snapshot of every output variable. All mutations run a full
// synchronous resolution pass before returning.
type Engine struct {
	mu        sync.Mutex
	index     *document.Index
	overrides *override.Store
	overlay   *previewOverlay
	res       *resolver.Resolver
	broker    *pubsub.Broker[ChangeSet]
	tracer    trace.Tracer
	snapshot  map[string]string

	previewWindow time.Duration
	previewTimer  *time.Timer
	closed        bool
}

// New builds an engine over the given index and override store and runs the
// initial resolution pass so Snapshot is immediately populated.
func New(index *document.Index, overrides *override.Store, opts Options) *Engine {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("engine")
	}
	window := opts.PreviewWindow
	if window <= 0 {
		window = DefaultPreviewWindow
	}

	overlay := newPreviewOverlay(overrides)
	res := resolver.New(index, overlay)
	res.EnableCache(resolver.NewCache())

	e := &Engine{
		index:         index,
		overrides:     overrides,
		overlay:       overlay,
		res:           res,
		broker:        pubsub.NewBroker[ChangeSet](),
		tracer:        tracer,
		snapshot:      make(map[string]string),
		previewWindow: window,
	}

	e.mu.Lock()
	e.resolvePass(context.Background(), "initial")
	e.mu.Unlock()
	return e
}

// Subscribe returns a channel of change sets. The subscription ends when ctx
// is cancelled.
func (e *Engine) Subscribe(ctx context.Context) <-chan pubsub.Event[ChangeSet] {
	return e.broker.Subscribe(ctx)
}

// Snapshot returns a copy of the last settled output-variable set, including
// any optimistic preview values currently in flight.
func (e *Engine) Snapshot() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.snapshot))
	for k, v := range e.snapshot {
		out[k] = v
	}
	return out
}

// Resolve resolves a single leaf against the current documents and overrides.
func (e *Engine) Resolve(collection reference.Collection, path []string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.res.Resolve(collection, path)
}

// SetDocument swaps a source document wholesale and re-resolves.
func (e *Engine) SetDocument(kind document.Kind, doc document.Tree) ChangeSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index.Replace(kind, doc)
	log.Info(log.CatEngine, "document replaced", "kind", kind)
	return e.resolvePass(context.Background(), "document")
}

// SetOverride writes one override and re-resolves. An explicit set supersedes
// any pending preview for the same token.
func (e *Engine) SetOverride(tokenName, value string) ChangeSet {
	e.overrides.Set(tokenName, value)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.overlay.drop(tokenName)
	return e.resolvePass(context.Background(), "override")
}

// ClearOverride removes one override and re-resolves.
func (e *Engine) ClearOverride(tokenName string) ChangeSet {
	e.overrides.Delete(tokenName)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.overlay.drop(tokenName)
	return e.resolvePass(context.Background(), "override")
}

// ClearOverrides removes the named overrides (all of them when empty) and
// re-resolves.
func (e *Engine) ClearOverrides(tokenNames ...string) ChangeSet {
	e.overrides.Clear(tokenNames...)

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(tokenNames) == 0 {
		e.overlay.clear()
	} else {
		for _, name := range tokenNames {
			e.overlay.drop(name)
		}
	}
	return e.resolvePass(context.Background(), "override")
}

// Close stops the preview timer and shuts down the change broker.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	if e.previewTimer != nil {
		e.previewTimer.Stop()
		e.previewTimer = nil
	}
	e.mu.Unlock()
	e.broker.Close()
}

// resolvePass re-resolves every output variable, diffs against the previous
// snapshot, and publishes the changed names. Callers must hold e.mu.
func (e *Engine) resolvePass(ctx context.Context, trigger string) ChangeSet {
	ctx, span := e.tracer.Start(ctx, tracing.SpanResolvePass)
	defer span.End()

	passID := uuid.NewString()
	span.SetAttributes(
		attribute.String(tracing.AttrPassID, passID),
		attribute.String(tracing.AttrPassTrigger, trigger),
	)

	e.res.FlushCache(ctx)
	next := e.buildVariables(ctx)
	changed := diffSnapshots(e.snapshot, next)
	e.snapshot = next

	span.SetAttributes(
		attribute.Int(tracing.AttrVariableCount, len(next)),
		attribute.Int(tracing.AttrChangedCount, len(changed)),
	)
	log.Info(log.CatEngine, "resolution pass settled",
		"pass", passID, "trigger", trigger, "variables", len(next), "changed", len(changed))

	cs := ChangeSet{ChangedVariableNames: changed}
	if len(changed) > 0 {
		e.broker.Publish(pubsub.ResolvedEvent, cs)
	}
	return cs
}

// buildVariables resolves the full output-variable set: every tokens leaf,
// every brand/mapping leaf, the elevation composites, and an on-tone
// companion for each surface color. Failures are local: a failed path keeps
// its previous snapshot value and never disturbs its neighbors.
func (e *Engine) buildVariables(ctx context.Context) map[string]string {
	vars := make(map[string]string, len(e.snapshot))

	emit := func(collection reference.Collection, path []string) {
		name := resolver.VariableNameFor(collection, path)
		value, err := e.res.Resolve(collection, path)
		if err != nil {
			e.keepPrevious(vars, name, err)
			return
		}
		vars[name] = value
		if collection == reference.CollectionBrand && isSurface(path, value) {
			on, err := derive.SelectOnTone(value)
			if err != nil {
				log.Warn(log.CatEngine, "on-tone selection failed", "variable", name, "error", err)
				return
			}
			vars[name+"-on"] = on
		}
	}

	e.index.Walk(reference.CollectionTokens, func(path []string, _ document.Leaf) {
		emit(reference.CollectionTokens, path)
	})
	e.index.Walk(reference.CollectionBrand, func(path []string, _ document.Leaf) {
		// The elevations subtree is consumed by the composition below, not
		// emitted leaf by leaf.
		if len(path) > 0 && path[0] == "elevations" {
			return
		}
		emit(reference.CollectionBrand, path)
	})

	e.composeElevations(ctx, vars)
	return vars
}

// keepPrevious carries a failed variable's previous snapshot value (and its
// on-tone companion, if any) into the pass under construction.
func (e *Engine) keepPrevious(vars map[string]string, name string, err error) {
	switch {
	case errors.Is(err, resolver.ErrCyclicReference), errors.Is(err, resolver.ErrResolutionTooDeep):
		log.ErrorErr(log.CatEngine, "resolution failed, keeping previous value", err, "variable", name)
	default:
		log.Warn(log.CatEngine, "unresolved path, keeping previous value", "variable", name, "error", err)
	}
	if prev, ok := e.snapshot[name]; ok {
		vars[name] = prev
	}
	if prevOn, ok := e.snapshot[name+"-on"]; ok {
		vars[name+"-on"] = prevOn
	}
}

// composeElevations merges the per-level elevation composites into vars.
// A level that fails keeps whichever of its five variables the previous
// snapshot had.
func (e *Engine) composeElevations(ctx context.Context, vars map[string]string) {
	specs := derive.SpecsFromDocument(e.index.Document(document.KindBrand))
	if len(specs) == 0 {
		return
	}

	var base derive.LevelSpec
	for _, spec := range specs {
		if spec.Level == 0 {
			base = spec
			break
		}
	}

	for _, spec := range specs {
		_, span := e.tracer.Start(ctx, tracing.SpanComposeLevel)
		levelVars, err := derive.ComposeLevel(e.res, spec, base)
		span.End()
		if err != nil {
			log.ErrorErr(log.CatEngine, "elevation level partially failed", err, "level", spec.Level)
		}
		for k, v := range levelVars {
			vars[k] = v
		}
		for _, facet := range elevationFacets {
			name := derive.VariableName(spec.Level, facet)
			if _, ok := vars[name]; ok {
				continue
			}
			if prev, ok := e.snapshot[name]; ok {
				vars[name] = prev
			}
		}
	}
}

var elevationFacets = []string{
	string(derive.AxisOffsetX), string(derive.AxisOffsetY),
	string(derive.AxisBlur), string(derive.AxisSpread),
	"shadow-color",
}

// isSurface reports whether a brand leaf is a layer surface color whose
// on-tone companion should be emitted.
func isSurface(path []string, value string) bool {
	if len(path) == 0 || path[len(path)-1] != "surface" {
		return false
	}
	return strings.HasPrefix(value, "#")
}

// diffSnapshots returns the sorted names whose values differ between the two
// snapshots, including names present in only one of them.
func diffSnapshots(prev, next map[string]string) []string {
	var changed []string
	for name, value := range next {
		if old, ok := prev[name]; !ok || old != value {
			changed = append(changed, name)
		}
	}
	for name := range prev {
		if _, ok := next[name]; !ok {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}
