package sentinel

import "errors"

// Sentinel errors for resolution-layer facts. Adapters and stores return these
// (optionally wrapped) so the composite resolver and the caching layer can
// branch on the category without knowing the backend.
//
// Categories:
// - ErrNoQuery: the accumulated filter state is empty; the adapter must not
//   execute a fetch-all. Treated as "this source contributes nothing".
// - ErrMalformedResult: a backend row violates the adapter's declared column
//   contract (missing mandatory column, unresolvable identifier).
// - ErrConfiguration: required wiring is missing at construction time.
// - ErrBackend: wrapped transport failure (LDAP/SQL/HTTP collaborator).
// - ErrNotFound: entity does not exist in a store.
var (
	ErrNoQuery         = errors.New("no query")
	ErrMalformedResult = errors.New("malformed result")
	ErrConfiguration   = errors.New("configuration error")
	ErrBackend         = errors.New("backend error")
	ErrNotFound        = errors.New("not found")
)
