// Package panel holds the client-side view of the controller: the canonical
// device state merged from push events, and the cached resource lists.
//
// The push channel is authoritative for display state. Fetch responses are
// authoritative only for the specific list they fetched, at the moment they
// arrive; the caches version their snapshots so a slow fetch can never
// resurrect a list that a push replacement has since superseded.
package panel
