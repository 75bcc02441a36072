// Package edit tracks optimistic edit sessions for device-owned resources.
//
// The device is the system of record for patterns and color sets; the
// client edits them speculatively. A Session knows which resource is being
// edited, whether it has been modified, and what to revert to. Sessions
// never survive a context switch: a save, a revert, navigation elsewhere,
// or a push-delivered list replacement all reset them, so a stale session
// can never leak into a newly selected resource.
//
// Rapid edits are not sent individually. A PreviewScheduler coalesces them
// into a single speculative preview request after a short quiet period.
package edit
