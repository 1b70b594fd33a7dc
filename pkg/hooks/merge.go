package hooks

import (
	"time"

	"github.com/grovetools/fleet/pkg/models"
)

// Merge applies an enrichment document onto a discovery-built session
// record. Fields the document does not supply never erase existing data.
// ProjectDir is fill-only: discovery's value wins when already set. Task
// counts apply whenever reported, including an explicit zero. A malformed
// timestamp is ignored rather than propagated.
//
// The record is marked enriched whenever a document was found, even one
// with no usable fields.
func Merge(session *models.SessionRecord, doc *StatusDoc) {
	if session == nil || doc == nil {
		return
	}
	session.HasEnrichment = true

	if doc.CurrentTask != "" {
		session.CurrentTask = doc.CurrentTask
	}
	if doc.CurrentFile != "" {
		session.CurrentFile = doc.CurrentFile
	}
	if doc.ProjectDir != "" && session.ProjectDir == "" {
		session.ProjectDir = doc.ProjectDir
	}
	if doc.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, doc.Timestamp); err == nil {
			session.LastActivity = t
		}
	}
	if doc.TokensEstimate != 0 {
		session.Metrics.TokensUsed = doc.TokensEstimate
	}
	if doc.TasksCompleted != nil {
		session.Metrics.TasksCompleted = *doc.TasksCompleted
	}
	if doc.TasksTotal != nil {
		session.Metrics.TasksTotal = *doc.TasksTotal
	}
}
