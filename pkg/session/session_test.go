package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftbench/draftbench/pkg/adapters/memory"
	"github.com/draftbench/draftbench/pkg/audit"
	"github.com/draftbench/draftbench/pkg/command"
	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/history"
	"github.com/draftbench/draftbench/pkg/persistence"
)

func lineEntity(id string) domain.Entity {
	return domain.Entity{
		ID:      id,
		Kind:    domain.KindLine,
		Layer:   "default",
		Visible: true,
		Geometry: domain.Geometry{
			Start: domain.Point{X: 0, Y: 0},
			End:   domain.Point{X: 10, Y: 0},
		},
	}
}

func TestExecuteUndoRedoRecordsAudit(t *testing.T) {
	doc := memory.NewDocument()
	s := New(doc, WithID("session-1"))
	defer s.Close()

	require.NoError(t, s.Execute(command.NewCreate(doc, lineEntity("line-1"))))
	require.NoError(t, s.Execute(command.NewMove(doc, "line-1", 5, 0, false)))

	undone, err := s.Undo()
	require.NoError(t, err)
	assert.True(t, undone)

	redone, err := s.Redo()
	require.NoError(t, err)
	assert.True(t, redone)

	entries := s.Audit().Entries(audit.Filter{})
	require.Len(t, entries, 4)
	assert.Equal(t, audit.ActionExecute, entries[0].Action)
	assert.Equal(t, audit.ActionUndo, entries[2].Action)
	assert.Equal(t, "entity.move", entries[2].Kind)
	assert.Equal(t, audit.ActionRedo, entries[3].Action)
	for _, e := range entries {
		assert.True(t, e.Success)
		assert.Equal(t, "session-1", e.SessionID)
	}
}

func TestFailedExecuteIsAudited(t *testing.T) {
	doc := memory.NewDocument()
	s := New(doc)
	defer s.Close()

	err := s.Execute(command.NewMove(doc, "no-such-entity", 1, 1, false))
	require.Error(t, err)

	entries := s.Audit().Entries(audit.Filter{})
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.NotEmpty(t, entries[0].Error)
	assert.False(t, s.History().CanUndo(), "failed command must not reach the undo stack")
}

func TestFailedRedoIsAudited(t *testing.T) {
	doc := memory.NewDocument()
	s := New(doc)
	defer s.Close()

	require.NoError(t, s.Execute(command.NewCreate(doc, lineEntity("line-1"))))
	undone, err := s.Undo()
	require.NoError(t, err)
	require.True(t, undone)

	// Recreating the entity out of band makes the pending redo invalid.
	require.NoError(t, doc.AddEntity(lineEntity("line-1")))

	redone, err := s.Redo()
	require.Error(t, err)
	assert.False(t, redone)

	entries := s.Audit().Entries(audit.Filter{Action: audit.ActionRedo})
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Success)
	assert.NotEmpty(t, entries[0].Error)
	assert.True(t, s.History().CanRedo(), "failed redo leaves the stack unchanged")
}

func TestUndoOnEmptyHistoryIsQuiet(t *testing.T) {
	s := New(memory.NewDocument())
	defer s.Close()

	undone, err := s.Undo()
	require.NoError(t, err)
	assert.False(t, undone)
	assert.Zero(t, s.Audit().Count(), "a no-op undo is not an auditable event")
}

func TestPersistenceRoundTripAcrossSessions(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	doc := memory.NewDocument()
	first := New(doc,
		WithGateway(persistence.New(store), persistence.WithDebounce(10*time.Millisecond)),
	)
	require.NoError(t, first.Execute(command.NewCreate(doc, lineEntity("line-1"))))
	require.NoError(t, first.Execute(command.NewMove(doc, "line-1", 3, 4, false)))
	first.Close() // flushes

	// A second session over an equivalent document restores the stacks.
	doc2 := memory.NewDocument()
	require.NoError(t, doc2.AddEntity(func() domain.Entity {
		e := lineEntity("line-1")
		e.Geometry.Start = domain.Point{X: 3, Y: 4}
		e.Geometry.End = domain.Point{X: 13, Y: 4}
		return e
	}()))

	second := New(doc2, WithGateway(persistence.New(store)))
	defer second.Close()

	result := second.Load(ctx)
	assert.Equal(t, persistence.SourceStorage, result.Source)
	assert.Equal(t, 2, second.History().UndoSize())

	// The restored commands are live: undo the move.
	undone, err := second.Undo()
	require.NoError(t, err)
	assert.True(t, undone)

	e, ok := doc2.GetEntity("line-1")
	require.True(t, ok)
	assert.InDelta(t, 0, e.Geometry.Start.X, 1e-9)
	assert.InDelta(t, 0, e.Geometry.Start.Y, 1e-9)
}

func TestLoadWithoutGatewayIsFactory(t *testing.T) {
	s := New(memory.NewDocument())
	defer s.Close()

	result := s.Load(context.Background())
	assert.Equal(t, persistence.SourceFactory, result.Source)
	assert.True(t, result.Success)
}

func TestSyncFiltersOwnAndStaleMessages(t *testing.T) {
	ch := memory.NewSyncChannel()
	received := make(chan domain.SyncMessage, 8)

	s := New(memory.NewDocument(),
		WithID("session-a"),
		WithSyncChannel(ch, func(msg domain.SyncMessage) { received <- msg }),
	)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, ch.Publish(ctx, domain.SyncMessage{Origin: "session-a", Version: 1}))
	require.NoError(t, ch.Publish(ctx, domain.SyncMessage{Origin: "session-b", Version: 2}))
	require.NoError(t, ch.Publish(ctx, domain.SyncMessage{Origin: "session-b", Version: 2})) // duplicate
	require.NoError(t, ch.Publish(ctx, domain.SyncMessage{Origin: "session-b", Version: 3}))

	var got []domain.SyncMessage
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case msg := <-received:
			got = append(got, msg)
		case <-timeout:
			t.Fatalf("expected 2 remote messages, got %d", len(got))
		}
	}

	assert.Equal(t, uint64(2), got[0].Version)
	assert.Equal(t, uint64(3), got[1].Version)
	select {
	case msg := <-received:
		t.Fatalf("unexpected extra message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCustomHistoryMergeThroughSession(t *testing.T) {
	doc := memory.NewDocument()
	require.NoError(t, doc.AddEntity(lineEntity("line-1")))

	s := New(doc, WithHistory(history.New(history.WithMergeWindow(time.Minute))))
	defer s.Close()

	require.NoError(t, s.Execute(command.NewMove(doc, "line-1", 2, 0, true)))
	require.NoError(t, s.Execute(command.NewMove(doc, "line-1", 3, 0, true)))

	assert.Equal(t, 1, s.History().UndoSize(), "interactive drags merge into one undo step")

	undone, err := s.Undo()
	require.NoError(t, err)
	assert.True(t, undone)

	e, ok := doc.GetEntity("line-1")
	require.True(t, ok)
	assert.InDelta(t, 0, e.Geometry.Start.X, 1e-9)
}
