// Package httpdebug exposes a read-only debug surface over a running
// editor: history state, the audit trail, and prometheus metrics. It is a
// development aid, not a rendering or collaboration API.
package httpdebug

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/draftbench/draftbench"
	"github.com/draftbench/draftbench/pkg/audit"
)

// historyState is the JSON shape of GET /history.
type historyState struct {
	SessionID string `json:"sessionId"`
	CanUndo   bool   `json:"canUndo"`
	CanRedo   bool   `json:"canRedo"`
	UndoSize  int    `json:"undoSize"`
	RedoSize  int    `json:"redoSize"`
}

// NewHandler builds the debug router for an editor.
func NewHandler(ed *draftbench.Editor) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/history", func(w http.ResponseWriter, _ *http.Request) {
		h := ed.History()
		writeJSON(w, historyState{
			SessionID: ed.Session().ID(),
			CanUndo:   h.CanUndo(),
			CanRedo:   h.CanRedo(),
			UndoSize:  h.UndoSize(),
			RedoSize:  h.RedoSize(),
		})
	})

	r.Get("/history/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, ed.History().Serialize())
	})

	r.Get("/audit.csv", func(w http.ResponseWriter, _ *http.Request) {
		out, err := ed.Audit().Export(audit.FormatCSV)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write(out)
	})

	r.Get("/audit.json", func(w http.ResponseWriter, _ *http.Request) {
		out, err := ed.Audit().Export(audit.FormatJSON)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(out)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
