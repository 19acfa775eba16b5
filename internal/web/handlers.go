package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/app"
	"github.com/jaminalder/time-travel-tic-tac-toe/internal/domain"
	"github.com/rs/zerolog"
)

type handlers struct {
	svc       *app.Service
	tpl       *templates
	log       zerolog.Logger
	heartbeat time.Duration
}

// render executes t and logs failures; a partial page is never returned.
func (h *handlers) render(t *template.Template, data any) ([]byte, bool) {
	b, err := renderTemplate(t, "", data)
	if err != nil {
		h.log.Error().Err(err).Str("template", t.Name()).Msg("render failed")
		return nil, false
	}
	return b, true
}

func (h *handlers) writeHTML(w http.ResponseWriter, t *template.Template, data any) {
	b, ok := h.render(t, data)
	if !ok {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// renderBoard is the service's broadcast renderer.
func (h *handlers) renderBoard(gs app.GameState) []byte {
	b, _ := h.render(h.tpl.board, gs)
	return b
}

func (h *handlers) writeBoard(w http.ResponseWriter, gs *app.GameState) {
	h.writeHTML(w, h.tpl.board, gs)
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		http.NotFound(w, r)
	case errors.Is(err, domain.ErrStepOutOfRange):
		http.Error(w, "no such step", http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	h.writeHTML(w, h.tpl.index, nil)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.CreateGame()
	if err != nil {
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.writeHTML(w, h.tpl.game, gs)
}

// play ignores a missing or garbled cell the same way the game ignores an occupied one.
func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	cell, err := strconv.Atoi(r.Form.Get("cell"))
	if err != nil {
		cell = -1
	}
	gs, err := h.svc.Play(chi.URLParam(r, "id"), cell)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeBoard(w, gs)
}

func (h *handlers) jump(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	step, err := strconv.Atoi(r.Form.Get("step"))
	if err != nil {
		http.Error(w, "invalid step", http.StatusBadRequest)
		return
	}
	gs, err := h.svc.JumpTo(chi.URLParam(r, "id"), step)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeBoard(w, gs)
}

func (h *handlers) order(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.ToggleOrder(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeBoard(w, gs)
}

type moveJSON struct {
	Step  int    `json:"step"`
	Cell  *int   `json:"cell,omitempty"`
	Label string `json:"label"`
}

type stateJSON struct {
	ID        string     `json:"id"`
	Board     [9]string  `json:"board"`
	Winner    string     `json:"winner,omitempty"`
	Line      []int      `json:"line,omitempty"`
	Status    string     `json:"status"`
	Next      string     `json:"next"`
	Step      int        `json:"step"`
	Ascending bool       `json:"ascending"`
	Moves     []moveJSON `json:"moves"`
}

func toStateJSON(gs *app.GameState) stateJSON {
	v := gs.View
	out := stateJSON{
		ID:        gs.ID,
		Winner:    v.Outcome.Winner.String(),
		Line:      v.Outcome.Line,
		Status:    v.Status.String(),
		Next:      v.Next.String(),
		Step:      v.Step,
		Ascending: v.Ascending,
		Moves:     make([]moveJSON, 0, len(v.Moves)),
	}
	for i, c := range v.Board {
		out.Board[i] = c.String()
	}
	for _, m := range v.Moves {
		mj := moveJSON{Step: m.Step, Label: m.Label}
		if m.Index >= 0 {
			idx := m.Index
			mj.Cell = &idx
		}
		out.Moves = append(out.Moves, mj)
	}
	return out
}

func (h *handlers) state(w http.ResponseWriter, r *http.Request) {
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(toStateJSON(gs))
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// Non-EventSource requests just get the headers
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub := h.svc.Subscribe(ctx, id)
	defer unsub()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			if len(b) == 0 {
				continue
			}
			writeEvent(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeEvent emits one SSE event; every payload line needs its own data field.
func writeEvent(w io.Writer, event string, data []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(string(data), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}
