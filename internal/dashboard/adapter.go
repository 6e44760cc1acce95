package dashboard

import (
	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/reporting"
)

// Adapter supplies the record-shape-specific pieces of the dashboard API:
// headline statistics, listing rows and the detail-view renderer. One
// adapter exists per store mode.
type Adapter[R schemas.Record] struct {
	// Stats computes the headline metrics shown above the listing.
	Stats func(records []R) map[string]any
	// Row projects one record into a listing table row.
	Row func(rec R) map[string]any
	// Render produces the Markdown document for the detail view.
	Render func(rec R) (string, error)
}

// NewFraudAdapter builds the adapter for transaction-fraud reports.
func NewFraudAdapter() (Adapter[*schemas.FraudReport], error) {
	renderer, err := reporting.NewFraudRenderer()
	if err != nil {
		return Adapter[*schemas.FraudReport]{}, err
	}
	return Adapter[*schemas.FraudReport]{
		Stats:  fraudStats,
		Row:    fraudRow,
		Render: renderer.Render,
	}, nil
}

// NewAssessmentAdapter builds the adapter for threat assessments.
func NewAssessmentAdapter() (Adapter[*schemas.Assessment], error) {
	renderer, err := reporting.NewAssessmentRenderer()
	if err != nil {
		return Adapter[*schemas.Assessment]{}, err
	}
	return Adapter[*schemas.Assessment]{
		Stats:  assessmentStats,
		Row:    assessmentRow,
		Render: renderer.Render,
	}, nil
}

// fraudStats aggregates the metrics row of the fraud dashboard: report
// count, flagged transaction count, overall transaction count and the
// flagged share of the total.
func fraudStats(reports []*schemas.FraudReport) map[string]any {
	totalFraudTx := 0
	totalTx := 0
	for _, r := range reports {
		totalFraudTx += len(r.Transactions)
		totalTx += r.TotalNumberOfTransactions
	}

	fraudPercentage := 0.0
	if totalTx > 0 {
		fraudPercentage = float64(totalFraudTx) / float64(totalTx) * 100
	}

	return map[string]any{
		"total_reports":            len(reports),
		"fraud_percentage":         fraudPercentage,
		"total_fraud_transactions": totalFraudTx,
		"total_transactions":       totalTx,
	}
}

func fraudRow(r *schemas.FraudReport) map[string]any {
	return map[string]any{
		"report_id":    r.ReportID,
		"report_date":  r.ReportDate.String(),
		"prepared_by":  r.PreparedBy,
		"client_name":  r.ClientName,
		"transactions": len(r.Transactions),
	}
}

func assessmentStats(assessments []*schemas.Assessment) map[string]any {
	byType := map[string]int{}
	for _, a := range assessments {
		byType[a.Type]++
	}
	return map[string]any{
		"total_assessments": len(assessments),
		"by_type":           byType,
	}
}

func assessmentRow(a *schemas.Assessment) map[string]any {
	return map[string]any{
		"assessment_id": a.AssessmentID,
		"assessed_at":   a.AssessedAt.String(),
		"type":          a.Type,
		"source":        a.Source,
		"target":        a.Target,
	}
}
