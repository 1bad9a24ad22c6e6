// Package bind maps declarative node lifecycles onto engine calls.
//
// Every scene node owns one binding. A binding moves through
//
//	pending -> attached -> updating -> attached -> detached
//
// Attach runs once, after the node's readiness gate opened. Update runs on
// every descriptor change while attached and delegates to package diff.
// Detach runs exactly once for every binding that attached, including ones
// whose attach failed halfway; releasing a handle that was never created
// is a no-op.
package bind
