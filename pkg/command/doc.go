/*
Package command defines the reversible unit of work the engine executes
against a document, plus every built-in command variant and the compound
command that groups children into one atomic, roll-backable step.

Redo philosophy is stated per command and pinned by tests: Move and
MoveVertex re-apply incrementally from current state; Create, Delete, Rotate,
Join, InsertVertex and RemoveVertex re-derive the result from state captured
on first execution.
*/
package command
