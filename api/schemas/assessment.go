package schemas

import (
	"fmt"
	"time"
)

// Assessment is one multi-source threat assessment. The raw source document
// is carried alongside the fields extracted from it.
type Assessment struct {
	AssessmentID   string `json:"assessment_id"`
	AssessedAt     Date   `json:"assessed_at"`
	Type           string `json:"type"`
	Source         string `json:"source"`
	Target         string `json:"target"`
	Method         string `json:"method"`
	Timing         string `json:"timing"`
	OriginalFormat string `json:"original_format"`
	RawContent     string `json:"raw_content"`
}

// RecordID implements Record.
func (a *Assessment) RecordID() string { return a.AssessmentID }

// SortKey implements Record. Assessments are ordered by assessment date.
func (a *Assessment) SortKey() time.Time { return a.AssessedAt.Time }

// Validate implements Record.
func (a *Assessment) Validate() error {
	if a.AssessmentID == "" {
		return fmt.Errorf("assessment: missing assessment_id")
	}
	if a.AssessedAt.IsZero() {
		return fmt.Errorf("assessment %s: missing assessed_at", a.AssessmentID)
	}
	if a.Type == "" {
		return fmt.Errorf("assessment %s: missing type", a.AssessmentID)
	}
	return nil
}
