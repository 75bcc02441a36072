// Package stream maintains the persistent push connection to the controller.
//
// The controller pushes JSON events (state, fragment, light, colors,
// patterns) over a websocket at /api/events. This package owns exactly one
// such connection, fans events out to registered listeners in registration
// order, and runs the recovery state machine when the connection drops.
//
// # Recovery model
//
// A dropped connection almost always means the controller rebooted. After a
// reboot, ids the client holds (active pattern, randomized defaults) are no
// longer trustworthy, so the client does not resume the push connection in
// place. Instead it probes the health endpoint on a fixed interval and, on
// the first success, invokes a reload hook that rebuilds the whole client
// context. This policy is deliberate.
//
// The first successful connection of the process and a reconnection are
// distinguished: only a reconnection fires the registered resume callbacks,
// which dependents use to re-fetch data the push channel does not fully
// cover.
package stream
