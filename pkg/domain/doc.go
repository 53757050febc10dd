/*
Package domain contains the core value types of the command engine: drawing
entities and their geometry, serialized command records, history snapshots and
their diffs, and the error taxonomy shared by every layer.

Types here are plain data. Behavior that touches external systems (the
document, durable stores, sync channels) lives behind the ports package.
*/
package domain
