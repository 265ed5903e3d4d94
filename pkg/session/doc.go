/*
Package session implements session management and persistence orchestration.

A Manager serializes the turns of a session with a ref-counted local mutex
and, when configured, a distributed lock so that replicas do the same. A Tx
gives a turn exclusive access to the state document; all writes are merge
patches applied over the persisted copy.
*/
package session
