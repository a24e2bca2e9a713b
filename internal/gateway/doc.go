// Package gateway is the restricted ad-hoc query surface over the store.
//
// Query text arrives from an untrusted-ish UI surface: the gateway accepts
// only statements beginning with SELECT, executes them against the store
// with wall-clock timing, and returns a uniform row-set shape plus schema
// introspection for UI display. Policy violations are rejected with a
// stable message before the store ever sees the text; malformed SELECTs
// surface the store's native error verbatim.
package gateway
