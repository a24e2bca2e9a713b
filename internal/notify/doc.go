// Package notify announces data-change events to all interested observers.
//
// Two decoupled layers sit behind one notifier interface: an in-process
// publish/subscribe bus with synchronous, publish-ordered delivery, and a
// swappable cross-context Transport whose file implementation uses a shared
// signal slot plus filesystem notifications. Cross-context delivery is a
// best-effort broadcast, not a consistent log: ordering between two
// contexts' writes is not guaranteed and the last signal observed wins.
package notify
