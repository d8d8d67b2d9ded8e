package main

import (
	"errors"
	"net/http"

	mw "github.com/Passbob/dopamine-travel-front/internal/middleware"
	"github.com/Passbob/dopamine-travel-front/internal/workflow"
)

// update runs fn against the session's workflow. A session without a live workflow
// (new visitor, reset, or expired) is given a fresh one.
func (a *app) update(r *http.Request, fn func(*workflow.Workflow) error) error {
	s := mw.GetSession(r)
	if s.WorkflowID != "" {
		err := a.store.Update(s.WorkflowID, fn)
		if !errors.Is(err, workflow.ErrNotFound) {
			return err
		}
	}
	id := a.store.Create()
	s.SetWorkflow(id)
	return a.store.Update(id, fn)
}

// reset discards the session's workflow, cancelling any animation still running.
func (a *app) reset(r *http.Request) {
	s := mw.GetSession(r)
	if s.WorkflowID == "" {
		return
	}
	a.store.Delete(s.WorkflowID)
	s.SetWorkflow("")
}
