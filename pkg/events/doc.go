// Package events provides a small in-process pub/sub broker used to notify
// observers (the CLI's watch command, tests) of atom stores, removals, and
// workspace publications without coupling pkg/backend to any particular
// subscriber. Subscribers that fall behind drop events rather than block
// the publisher.
package events
