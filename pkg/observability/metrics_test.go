package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftbench/draftbench/pkg/adapters/memory"
	"github.com/draftbench/draftbench/pkg/command"
	"github.com/draftbench/draftbench/pkg/domain"
	"github.com/draftbench/draftbench/pkg/history"
)

func TestHistoryOperationsAreCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHistoryMetrics(reg)

	doc := memory.NewDocument()
	h := history.New(history.WithMetrics(metrics), history.WithMergeWindow(time.Minute))

	e := domain.Entity{
		ID: "line-1", Kind: domain.KindLine, Visible: true,
		Geometry: domain.Geometry{
			Start: domain.Point{X: 0, Y: 0},
			End:   domain.Point{X: 1, Y: 1},
		},
	}
	require.NoError(t, h.Execute(command.NewCreate(doc, e)))
	require.NoError(t, h.Execute(command.NewMove(doc, "line-1", 1, 0, true)))
	require.NoError(t, h.Execute(command.NewMove(doc, "line-1", 1, 0, true)))

	_, err := h.Undo()
	require.NoError(t, err)
	_, err = h.Redo()
	require.NoError(t, err)

	expected := strings.NewReader(`
# HELP draftbench_history_operations_total Total number of history operations by kind
# TYPE draftbench_history_operations_total counter
draftbench_history_operations_total{op="execute"} 3
draftbench_history_operations_total{op="merge"} 1
draftbench_history_operations_total{op="undo"} 1
draftbench_history_operations_total{op="redo"} 1
`)
	assert.NoError(t, testutil.GatherAndCompare(reg, expected, "draftbench_history_operations_total"))
}
