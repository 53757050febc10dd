package registry_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftbench/draftbench/pkg/adapters/memory"
	"github.com/draftbench/draftbench/pkg/command"
	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/ports"
	"github.com/draftbench/draftbench/pkg/registry"
)

func defaultRegistry() *registry.Registry {
	r := registry.New()
	registry.RegisterDefaults(r)
	return r
}

func TestDeserializeUnknownKindReturnsNil(t *testing.T) {
	r := defaultRegistry()
	doc := memory.NewDocument()

	cmd := r.Deserialize(domain.SerializedCommand{Type: "unknown-kind", ID: "x"}, doc)

	assert.Nil(t, cmd, "unknown kinds degrade to nil, never panic or error")
}

func TestDeserializeFactoryErrorReturnsNil(t *testing.T) {
	r := registry.New()
	r.Register("exploding", func(domain.SerializedCommand, ports.Document) (command.Command, error) {
		return nil, errors.New("kaboom")
	})

	cmd := r.Deserialize(domain.SerializedCommand{Type: "exploding"}, memory.NewDocument())
	assert.Nil(t, cmd)
}

func TestRegisterOverwrites(t *testing.T) {
	r := defaultRegistry()
	doc := memory.NewDocument()

	r.Register(command.KindMove, func(sc domain.SerializedCommand, d ports.Document) (command.Command, error) {
		return command.NewDelete(d, "hijacked", command.WithID(sc.ID)), nil
	})

	cmd := r.Deserialize(domain.SerializedCommand{Type: command.KindMove, ID: "m1"}, doc)
	require.NotNil(t, cmd)
	assert.Equal(t, command.KindDelete, cmd.Kind())
}

func TestUnregisterAndListing(t *testing.T) {
	r := defaultRegistry()

	assert.True(t, r.IsRegistered(command.KindRotate))
	r.Unregister(command.KindRotate)
	assert.False(t, r.IsRegistered(command.KindRotate))

	kinds := r.Kinds()
	assert.Contains(t, kinds, command.KindMove)
	assert.NotContains(t, kinds, command.KindRotate)
}

func TestDefaultsRoundTripEveryBuiltinKind(t *testing.T) {
	r := defaultRegistry()
	doc := memory.NewDocument()
	require.NoError(t, doc.AddEntity(domain.Entity{
		ID:       "p1",
		Kind:     domain.KindPolyline,
		Geometry: domain.Geometry{Vertices: []domain.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}},
	}))

	commands := []command.Command{
		command.NewCreate(doc, domain.Entity{ID: "new", Kind: domain.KindLine}),
		command.NewDelete(doc, "p1"),
		command.NewMove(doc, "p1", 1, 2, false),
		command.NewRotate(doc, "p1", domain.Point{}, 1.5, false),
		command.NewJoin(doc, "p1", "p2"),
		command.NewMoveVertex(doc, "p1", 0, domain.Point{X: 9, Y: 9}, false),
		command.NewInsertVertex(doc, "p1", 1, domain.Point{X: 5, Y: 5}),
		command.NewRemoveVertex(doc, "p1", 1),
	}

	for _, orig := range commands {
		raw, err := json.Marshal(orig.Serialize())
		require.NoError(t, err)
		var sc domain.SerializedCommand
		require.NoError(t, json.Unmarshal(raw, &sc))

		restored := r.Deserialize(sc, doc)
		require.NotNil(t, restored, "kind %s must round-trip", orig.Kind())
		assert.Equal(t, orig.ID(), restored.ID())
		assert.Equal(t, orig.Kind(), restored.Kind())
		assert.Equal(t, orig.Name(), restored.Name())
	}
}

func TestCompoundReconstructionSkipsUnknownChildren(t *testing.T) {
	r := defaultRegistry()
	doc := memory.NewDocument()
	require.NoError(t, doc.AddEntity(domain.Entity{ID: "a", Kind: domain.KindLine}))

	c := command.NewCompound("Mixed batch")
	c.Add(command.NewMove(doc, "a", 1, 0, false))
	c.Add(command.NewDelete(doc, "a"))

	sc := c.Serialize()
	// Simulate a child written by a newer build.
	nested := sc.Data["commands"].([]map[string]any)
	nested[1]["type"] = "entity.bevel"

	raw, err := json.Marshal(sc)
	require.NoError(t, err)
	var wire domain.SerializedCommand
	require.NoError(t, json.Unmarshal(raw, &wire))

	restored := r.Deserialize(wire, doc)
	require.NotNil(t, restored, "partial restoration is preferred over total failure")

	compound, ok := restored.(*command.Compound)
	require.True(t, ok)
	assert.Equal(t, 1, compound.Size(), "the unknown child is discarded")
}
