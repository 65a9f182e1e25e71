package handlers

import (
	"net/http"
)

// TriggerAutomationHandler runs one full automation pass immediately. It
// serializes with the background loop, so a long scheduled pass makes this
// call wait rather than overlap.
func TriggerAutomationHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Scheduler == nil {
			writeError(w, http.StatusServiceUnavailable, "automation_disabled", "Automation is disabled on this server")
			return
		}
		summary := d.Scheduler.RunOnce(r.Context())
		writeJSON(w, http.StatusOK, summary)
	}
}
