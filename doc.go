/*
Package draftbench is a transactional command engine for 2D CAD documents:
every edit is a command with execute/undo/redo semantics, interactive drags
merge into single undo steps, and the full history persists across restarts
through pluggable durable stores.

The library is organized hexagonally. pkg/domain holds entities and
snapshots, pkg/ports the driven interfaces (document, durable store, sync
channel), pkg/command the concrete edit commands, pkg/history the undo/redo
stacks and merge policy, pkg/persistence the versioned load/save pipeline,
and pkg/adapters the store backends (memory, file, redis, badger).

Most consumers only need the facade:

	doc := memory.NewDocument()
	ed := draftbench.New(doc, draftbench.WithStore(file.New("")))
	defer ed.Close()

	ed.Load(ctx)
	err := ed.Execute(command.NewCreate(doc, entity))
*/
package draftbench
