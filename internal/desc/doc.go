// Package desc holds descriptors: the declarative, data-only description of
// the state a scene node wants its engine entity to be in.
//
// Descriptors arrive as plain nested mappings (from YAML or CUE documents or
// built in code). Decode functions turn them into typed descriptors: one
// struct per layer, marker, popup and event binding, and a tagged variant
// per source kind so the diff engine can switch over kinds exhaustively.
//
// Key design constraints:
//   - Numbers are normalized to float64; coordinates and zoom levels are
//     fractional
//   - Objects iterate in canonical key order wherever order is observable
//   - Canonical encoding is used for recorded call arguments, so recorded
//     traces compare byte for byte
package desc
