package tracing

// Span attribute keys for resolution tracing.
const (
	// Resolution pass attributes
	AttrPassID         = "pass.id"
	AttrPassTrigger    = "pass.trigger"
	AttrVariableCount  = "pass.variable_count"
	AttrChangedCount   = "pass.changed_count"
	AttrFailedCount    = "pass.failed_count"
	AttrDurationSource = "pass.source"

	// Token attributes
	AttrTokenName      = "token.name"
	AttrTokenValue     = "token.value"
	AttrCollection     = "token.collection"
	AttrReferenceDepth = "token.reference_depth"

	// Override attributes
	AttrOverrideName  = "override.name"
	AttrOverrideValue = "override.value"

	// Document attributes
	AttrDocumentKind = "document.kind"
	AttrDocumentPath = "document.path"

	// Error attributes
	AttrErrorMessage = "error.message"
	AttrErrorType    = "error.type"
)

// Span names for the engine's units of work.
const (
	SpanResolvePass  = "engine.resolve_pass"
	SpanComposeLevel = "derive.compose_level"
	SpanOnTone       = "derive.on_tone"
	SpanRenderSheet  = "stylesheet.render"
)

// Event names for span events.
const (
	EventOverrideApplied  = "override.applied"
	EventOverrideCleared  = "override.cleared"
	EventDocumentReplaced = "document.replaced"
	EventPreviewCommitted = "preview.committed"
	EventCycleDetected    = "cycle.detected"
)
