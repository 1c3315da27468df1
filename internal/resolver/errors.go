package resolver

import "errors"

// Resolution failure taxonomy. Failures are always local to the single path
// being resolved; callers decide whether to fall back (unresolved) or keep
// the previous known-good value (cyclic, too deep).
var (
	// ErrUnresolvedPath means a reference points at nothing. Recoverable:
	// treat the value as unset and fall back to a caller-supplied default.
	ErrUnresolvedPath = errors.New("unresolved path")

	// ErrCyclicReference means a reference chain revisits a path. Fatal for
	// that branch; the document is malformed and no safe value can be guessed.
	ErrCyclicReference = errors.New("cyclic reference")

	// ErrResolutionTooDeep means the recursion cap was hit. Defensive guard
	// against pathological documents; handled like a cycle.
	ErrResolutionTooDeep = errors.New("resolution too deep")
)
