package command

import (
	"fmt"
	"log/slog"

	"github.com/draftbench/draftbench/internal/logging"
	"github.com/draftbench/draftbench/pkg/domain"
)

// Compound groups an ordered sequence of child commands into one atomic
// unit. If any child fails to execute, every already-run child is undone in
// reverse order before the original error is returned, leaving the document
// observably unchanged.
type Compound struct {
	meta
	children []Command
	logger   *slog.Logger
}

// CompoundOption configures a compound command.
type CompoundOption func(*Compound)

// WithLogger routes rollback and best-effort undo anomalies to a logger.
func WithLogger(logger *slog.Logger) CompoundOption {
	return func(c *Compound) { c.logger = logger }
}

// NewCompound builds an empty compound with a base name.
func NewCompound(name string, opts ...CompoundOption) *Compound {
	c := &Compound{
		meta:   newMeta(KindCompound, name),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add appends a child. Children execute in insertion order.
func (c *Compound) Add(cmd Command) {
	c.children = append(c.children, cmd)
}

// Remove drops the child with the given ID. Returns false if absent.
func (c *Compound) Remove(id string) bool {
	for i, child := range c.children {
		if child.ID() == id {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return true
		}
	}
	return false
}

// Size returns the number of children.
func (c *Compound) Size() int {
	return len(c.children)
}

// Name describes the compound: a single child delegates to it, several
// children report the base name with a count.
func (c *Compound) Name() string {
	switch len(c.children) {
	case 1:
		return c.children[0].Name()
	default:
		return fmt.Sprintf("%s (%d operations)", c.meta.name, len(c.children))
	}
}

// Execute runs the children in order. A child exposing the Validator
// capability is validated first; a validation failure counts as that child
// failing. On any failure the already-succeeded children are rolled back in
// reverse order (best-effort: rollback errors are logged, never escalated)
// and the original error is returned.
func (c *Compound) Execute() error {
	for i, child := range c.children {
		err := executeChild(child)
		if err == nil {
			continue
		}

		for j := i - 1; j >= 0; j-- {
			if rbErr := c.children[j].Undo(); rbErr != nil {
				c.logger.Error("rollback of compound child failed",
					"compound", c.id,
					"child", c.children[j].ID(),
					"err", rbErr,
				)
			}
		}
		return fmt.Errorf("compound %q failed at step %d/%d: %w", c.meta.name, i+1, len(c.children), err)
	}
	return nil
}

func executeChild(child Command) error {
	if v, ok := child.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return child.Execute()
}

// Undo reverses every child in reverse order. A single child's failure is
// logged and does not abort the remaining undos: a partial undo is strictly
// worse than a completed one with a logged anomaly.
func (c *Compound) Undo() error {
	for i := len(c.children) - 1; i >= 0; i-- {
		if err := c.children[i].Undo(); err != nil {
			c.logger.Error("undo of compound child failed",
				"compound", c.id,
				"child", c.children[i].ID(),
				"err", err,
			)
		}
	}
	return nil
}

// Redo re-executes the whole sequence.
func (c *Compound) Redo() error {
	return c.Execute()
}

// AffectedEntities is the deduplicated union of all children's affected IDs.
func (c *Compound) AffectedEntities() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, child := range c.children {
		for _, id := range child.AffectedEntities() {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// Serialize nests every child's serialized form in insertion order.
func (c *Compound) Serialize() domain.SerializedCommand {
	nested := make([]map[string]any, 0, len(c.children))
	for _, child := range c.children {
		nested = append(nested, payloadToMap(child.Serialize()))
	}
	return c.meta.serialized(map[string]any{"commands": nested})
}

// RestoreCompound rebuilds a compound from a serialized record and its
// already-deserialized children. The registry drives the recursion so that
// unknown child kinds can be discarded rather than failing the whole
// compound.
func RestoreCompound(sc domain.SerializedCommand, children []Command, opts ...CompoundOption) *Compound {
	c := &Compound{
		meta:     restoreMeta(sc),
		children: children,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NestedCommands extracts the raw child records from a serialized compound.
func NestedCommands(sc domain.SerializedCommand) ([]domain.SerializedCommand, error) {
	raw, ok := sc.Data["commands"].([]any)
	if !ok {
		// Tolerate the typed form produced before a JSON round-trip.
		if typed, ok := sc.Data["commands"].([]map[string]any); ok {
			out := make([]domain.SerializedCommand, 0, len(typed))
			for _, m := range typed {
				child, err := decodeSerialized(m)
				if err != nil {
					return nil, err
				}
				out = append(out, child)
			}
			return out, nil
		}
		return nil, fmt.Errorf("compound %s has no nested commands", sc.ID)
	}

	out := make([]domain.SerializedCommand, 0, len(raw))
	for _, m := range raw {
		child, err := decodeSerialized(m)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}
