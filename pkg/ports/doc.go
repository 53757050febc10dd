/*
Package ports defines the capabilities the engine consumes but does not own:
the mutable document, the durable key/value store, and the sync channel used
to broadcast history diffs across sessions.

Adapters live under pkg/adapters. Contract test suites for the ports are
exported here so every adapter proves the same behavior.
*/
package ports
