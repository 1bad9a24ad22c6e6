// Package ident hands out identities: anonymous entity identifiers,
// logical sequence numbers and per-mount session tokens.
//
// Identifiers are unique within a process. Sequence numbers come from a
// logical clock, never wall time, so recorded engine calls replay in the
// same order. Session tokens correlate every engine call made during one
// mount of a map root.
package ident
