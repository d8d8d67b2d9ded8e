package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Passbob/dopamine-travel-front/internal/observability"
	"github.com/Passbob/dopamine-travel-front/internal/selection"
	"github.com/Passbob/dopamine-travel-front/internal/seo"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

type stepKey string

const (
	provinceStep stepKey = "province"
	cityStep     stepKey = "city"
	themeStep    stepKey = "theme"
	courseStep   stepKey = "course"
)

// runFor returns the run backing the frame stream of step. The theme page streams the
// constraint reel when reel=constraint.
func runFor(wf *workflow.Workflow, step stepKey, reel string) (selection.Run, bool) {
	switch step {
	case provinceStep:
		if wf.Province != nil {
			return wf.Province.Run()
		}
	case cityStep:
		if wf.City != nil {
			return wf.City.Run()
		}
	case themeStep:
		if reel == "constraint" {
			if wf.Constraint != nil {
				return wf.Constraint.Run()
			}
		} else if wf.Theme != nil {
			return wf.Theme.Run()
		}
	case courseStep:
		if wf.Course.Shuffle != nil {
			return wf.Course.Shuffle.Run()
		}
	}
	return selection.Run{}, false
}

// framesHandler streams the remaining frames of a running animation as Server-Sent Events.
// A client that joins late resumes from the elapsed time; the stream stops as soon as the
// client disconnects.
func (a *app) framesHandler(step stepKey) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			run selection.Run
			ok  bool
		)
		err := a.update(r, func(wf *workflow.Workflow) error {
			run, ok = runFor(wf, step, r.URL.Query().Get("reel"))
			return nil
		})
		if err != nil {
			a.serverError(w, r, err)
			return
		}
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		flusher, canFlush := w.(http.Flusher)
		if !canFlush {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		send := func(event, data string) error {
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}
		elapsed := run.Elapsed(a.store.Now())
		if err := send("plan", fmt.Sprintf(`{"skin":%q,"durationMs":%d,"degrees":%g,"elapsedMs":%d}`,
			run.Plan.Skin, run.Plan.DurationMS(), run.Plan.Degrees, elapsed.Milliseconds())); err != nil {
			return
		}

		err = a.player.Play(r.Context(), run.Plan, elapsed, func(f selection.Frame) error {
			return send("frame", seo.JSON(f))
		})
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			observability.FromContext(r.Context()).Debug("frame stream closed by client", zap.String("step", string(step)))
			return
		case err != nil:
			return
		}
		_ = send("settled", fmt.Sprintf(`{"index":%d}`, run.Index))
	}
}
