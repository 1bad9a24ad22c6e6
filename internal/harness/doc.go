// Package harness runs declarative binding scenarios.
//
// A scenario mounts a tree on the in-memory engine, drives it through a
// list of steps (re-renders, prop updates, style load, engine events,
// unmount) and asserts on the journaled engine calls, the lifecycle trace
// and the final engine state.
//
// Every run is deterministic: a fresh in-memory journal, a logical clock
// starting at zero, a fixed session id and an allocator with constant
// randomness. The same scenario always produces a byte-identical trace,
// which is what golden files compare.
//
// # Scenario Format
//
//	name: marker-splice
//	description: marker content stays in the engine container
//	style_loaded: true
//	tree:
//	  kind: map
//	  children:
//	    - kind: marker
//	      key: m1
//	      props: {position: [10, 20]}
//	steps:
//	  - action: mount
//	  - action: rerender
//	    times: 5
//	    assert:
//	      - {type: spliced, count: 1}
//	  - action: unmount
//	assertions:
//	  - type: detach_palindrome
package harness
