package history

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftbench/draftbench/pkg/adapters/memory"
	"github.com/draftbench/draftbench/pkg/command"
	"github.com/draftbench/draftbench/pkg/domain"
)

func newDocWithLine(t *testing.T, id string) *memory.Document {
	t.Helper()
	doc := memory.NewDocument()
	require.NoError(t, doc.AddEntity(domain.Entity{
		ID:   id,
		Kind: domain.KindLine,
		Geometry: domain.Geometry{
			Start: domain.Point{X: 0, Y: 0},
			End:   domain.Point{X: 10, Y: 0},
		},
	}))
	return doc
}

func TestExecutePushesAndClearsRedo(t *testing.T) {
	doc := newDocWithLine(t, "a")
	h := New()

	require.NoError(t, h.Execute(command.NewMove(doc, "a", 1, 0, false)))
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 1, 0, false)))

	ok, err := h.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, h.RedoSize())

	// Executing a new command invalidates the redo stack.
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 0, 1, false)))
	assert.Equal(t, 0, h.RedoSize())
	assert.Equal(t, 2, h.UndoSize())
}

func TestUndoStackTrim(t *testing.T) {
	doc := newDocWithLine(t, "a")
	h := New(WithMaxSize(2), WithMergeWindow(0))

	c1 := command.NewMove(doc, "a", 1, 0, false)
	c2 := command.NewMove(doc, "a", 2, 0, false)
	c3 := command.NewMove(doc, "a", 3, 0, false)
	require.NoError(t, h.Execute(c1))
	require.NoError(t, h.Execute(c2))
	require.NoError(t, h.Execute(c3))

	assert.Equal(t, 2, h.UndoSize(), "oldest command is evicted")
	assert.Equal(t, 0, h.RedoSize())

	top, ok := h.PeekUndo()
	require.True(t, ok)
	assert.Equal(t, c3.ID(), top.ID())
}

func TestUndoRedoRoundTrip(t *testing.T) {
	doc := newDocWithLine(t, "a")
	h := New()

	require.NoError(t, h.Execute(command.NewMove(doc, "a", 5, 3, false)))

	ok, err := h.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	e, _ := doc.GetEntity("a")
	assert.Equal(t, domain.Point{X: 0, Y: 0}, e.Geometry.Start)

	ok, err = h.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	e, _ = doc.GetEntity("a")
	assert.Equal(t, domain.Point{X: 5, Y: 3}, e.Geometry.Start)
}

func TestUndoOnEmptyStackIsSilentNoOp(t *testing.T) {
	h := New()

	var events int
	h.Subscribe(func(domain.HistoryEvent) { events++ })

	ok, err := h.Undo()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, events, "a no-op must not notify subscribers")

	ok, err = h.Redo()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, events)
}

func TestInteractiveMovesMergeIntoOneUndoStep(t *testing.T) {
	doc := newDocWithLine(t, "a")
	h := New(WithMergeWindow(time.Second))

	base := time.Now()
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 5, 0, true, command.WithCreatedAt(base))))
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 3, 2, true, command.WithCreatedAt(base.Add(100*time.Millisecond)))))

	assert.Equal(t, 1, h.UndoSize(), "both drags collapse into one entry")

	e, _ := doc.GetEntity("a")
	assert.Equal(t, domain.Point{X: 8, Y: 2}, e.Geometry.Start)

	ok, err := h.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	e, _ = doc.GetEntity("a")
	assert.Equal(t, domain.Point{X: 0, Y: 0}, e.Geometry.Start, "one undo reverses the whole drag")
}

func TestMergeRespectsWindow(t *testing.T) {
	doc := newDocWithLine(t, "a")
	h := New(WithMergeWindow(time.Second))

	base := time.Now()
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 5, 0, true, command.WithCreatedAt(base))))
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 3, 2, true, command.WithCreatedAt(base.Add(2*time.Second)))))

	assert.Equal(t, 2, h.UndoSize(), "commands outside the window stay separate")
}

func TestMergeSkipsNonInteractiveCommands(t *testing.T) {
	doc := newDocWithLine(t, "a")
	h := New(WithMergeWindow(time.Second))

	base := time.Now()
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 5, 0, false, command.WithCreatedAt(base))))
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 3, 2, false, command.WithCreatedAt(base.Add(time.Millisecond)))))

	assert.Equal(t, 2, h.UndoSize())
}

func TestMergeSkipsDifferentEntities(t *testing.T) {
	doc := newDocWithLine(t, "a")
	require.NoError(t, doc.AddEntity(domain.Entity{ID: "b", Kind: domain.KindCircle}))
	h := New(WithMergeWindow(time.Second))

	base := time.Now()
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 1, 0, true, command.WithCreatedAt(base))))
	require.NoError(t, h.Execute(command.NewMove(doc, "b", 1, 0, true, command.WithCreatedAt(base.Add(time.Millisecond)))))

	assert.Equal(t, 2, h.UndoSize())
}

type failingCommand struct {
	command.Command
	err error
}

func (f *failingCommand) Execute() error { return f.err }

func TestExecuteFailurePropagatesAndLeavesStacksAlone(t *testing.T) {
	doc := newDocWithLine(t, "a")
	h := New()

	require.NoError(t, h.Execute(command.NewMove(doc, "a", 1, 0, false)))

	boom := errors.New("boom")
	err := h.Execute(&failingCommand{Command: command.NewMove(doc, "a", 1, 0, false), err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, h.UndoSize())
}

func TestValidationErrorPropagates(t *testing.T) {
	doc := newDocWithLine(t, "a")
	h := New()

	err := h.Execute(command.NewMove(doc, "missing", 1, 0, false))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, h.UndoSize())
}

func TestClearNotifiesSubscribers(t *testing.T) {
	doc := newDocWithLine(t, "a")
	h := New()
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 1, 0, false)))

	var last domain.HistoryEvent
	unsubscribe := h.Subscribe(func(ev domain.HistoryEvent) { last = ev })

	h.Clear()
	assert.Equal(t, domain.EventClear, last.Type)
	assert.False(t, last.CanUndo)
	assert.False(t, last.CanRedo)

	unsubscribe()
	h.Clear()
	assert.Equal(t, domain.EventClear, last.Type, "unsubscribed listener sees nothing new")
}

func TestSerializeRoundTripThroughRestore(t *testing.T) {
	doc := newDocWithLine(t, "a")
	h := New()
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 1, 0, false)))
	require.NoError(t, h.Execute(command.NewMove(doc, "a", 2, 0, false)))
	_, err := h.Undo()
	require.NoError(t, err)

	snap := h.Serialize()
	require.Len(t, snap.UndoStack, 1)
	require.Len(t, snap.RedoStack, 1)

	restored := New()
	restored.Restore(snap, func(sc domain.SerializedCommand) command.Command {
		cmd, err := command.DeserializeMove(sc, doc)
		require.NoError(t, err)
		return cmd
	})

	assert.Equal(t, 1, restored.UndoSize())
	assert.Equal(t, 1, restored.RedoSize())
	assert.True(t, restored.CanUndo())
	assert.True(t, restored.CanRedo())
}
