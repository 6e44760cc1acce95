// Package reporting renders one report record into the human-readable
// Markdown document shown on the detail view.
package reporting

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
)

// Renderer turns one record into a Markdown document.
type Renderer[R schemas.Record] struct {
	tmpl *template.Template
}

// Render executes the template against the record.
func (r *Renderer[R]) Render(rec R) (string, error) {
	var buf strings.Builder
	if err := r.tmpl.Execute(&buf, rec); err != nil {
		return "", fmt.Errorf("render report %s: %w", rec.RecordID(), err)
	}
	return buf.String(), nil
}

// NewFraudRenderer builds the Markdown renderer for fraud reports.
func NewFraudRenderer() (*Renderer[*schemas.FraudReport], error) {
	tmpl, err := template.New("fraud").Funcs(templateFuncs).Parse(fraudTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse fraud report template: %w", err)
	}
	return &Renderer[*schemas.FraudReport]{tmpl: tmpl}, nil
}

// NewAssessmentRenderer builds the Markdown renderer for threat assessments.
func NewAssessmentRenderer() (*Renderer[*schemas.Assessment], error) {
	tmpl, err := template.New("assessment").Funcs(templateFuncs).Parse(assessmentTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse assessment template: %w", err)
	}
	return &Renderer[*schemas.Assessment]{tmpl: tmpl}, nil
}

var templateFuncs = template.FuncMap{
	// money renders a nullable amount/currency pair for the table.
	"money": func(amount *float64, currency *string) string {
		if amount == nil {
			return "-"
		}
		cur := ""
		if currency != nil {
			cur = " " + *currency
		}
		return fmt.Sprintf("%.2f%s", *amount, cur)
	},
}
