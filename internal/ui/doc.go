// Package ui implements the kwalctl terminal interface.
//
// The watch panel is a Bubble Tea model fed from outside: push events land
// in the state reconciler, whose change notifications are forwarded into
// the program as messages. Key presses issue optimistic device writes and
// let the next push event confirm the result, so the panel never blocks on
// the network.
package ui
