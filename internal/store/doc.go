// Package store is the SQLite-backed journal of engine calls.
//
// Every engine created by the binding layer can record the calls it
// receives. The journal groups them by session:
//   - Sessions: one row per mounted tree (label, tree hash, seq bounds)
//   - Calls: the ordered engine calls of a session with canonical JSON args
//
// All ordering uses the logical seq counter, never wall time, so a journal
// read back in the same order reproduces the same trace. Args are stored as
// canonical JSON (sorted keys, NFC strings) which makes two journals of the
// same tree byte-comparable.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Calls must belong to a known session
package store
