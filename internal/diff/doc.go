// Package diff turns declarative descriptors into ordered imperative engine
// calls.
//
// Layer updates are bucketed: every layout key present in the new
// descriptor is set (sorted), then every paint key (sorted), then one
// filter call, one zoom range call, a bulk assignment of the remaining
// top-level fields when there are any, and finally a repaint. Keys are
// re-applied whether or not they changed, so the number of set calls per
// cycle depends only on the new descriptor.
//
// Source updates dispatch on the tagged source variant. The kind is fixed
// at creation; a descriptor of another kind is reported as an unsupported
// update and produces no calls.
package diff
