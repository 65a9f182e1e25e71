package workflow

import (
	"context"
	"fmt"
	"log"
)

// AllResult aggregates one combined pass. A failing workflow lands in
// Errors; the remaining workflows still run.
type AllResult struct {
	Workflows map[string]any `json:"workflows"`
	Errors    []string       `json:"errors,omitempty"`
}

// RunAll executes the context-driven workflows enabled in toggles. Chat
// auto-reply is excluded here: it is per-space and runs through
// RunChatAutoReply, and first email draft needs a subject filter from the
// caller.
func (o *Orchestrator) RunAll(ctx context.Context, toggles map[string]bool) *AllResult {
	result := &AllResult{Workflows: map[string]any{}}

	if toggles[SmartInbox] {
		if r, err := o.RunSmartInbox(ctx); err != nil {
			log.Printf("⚠️ Run-all for %s: smart inbox failed: %v", o.userID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", SmartInbox, err))
		} else {
			result.Workflows[SmartInbox] = r
		}
	}

	if toggles[DocumentIntelligence] {
		if r, err := o.RunDocumentIntelligence(ctx); err != nil {
			log.Printf("⚠️ Run-all for %s: document intelligence failed: %v", o.userID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", DocumentIntelligence, err))
		} else {
			result.Workflows[DocumentIntelligence] = r
		}
	}

	return result
}
