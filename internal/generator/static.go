package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
)

// fraudTypes used by the offline generator.
var fraudTypes = []string{
	"Card-not-present fraud",
	"Account takeover",
	"Phishing-initiated transfer",
	"Merchant collusion",
	"Synthetic identity",
}

// StaticFraudGenerator synthesizes fraud reports entirely offline. It backs
// demos and tests that run without an API key.
type StaticFraudGenerator struct{}

// GenerateOne implements store.Generator.
func (StaticFraudGenerator) GenerateOne(_ context.Context) (*schemas.FraudReport, error) {
	now := time.Now().UTC()
	periodEnd := now.AddDate(0, 0, -rand.IntN(3))
	periodStart := periodEnd.AddDate(0, -1, 0)

	txCount := 2 + rand.IntN(7)
	transactions := make([]schemas.Transaction, 0, txCount)
	for i := 0; i < txCount; i++ {
		amount := float64(100 + rand.IntN(49901))
		currency := "USD"
		transactions = append(transactions, schemas.Transaction{
			TransactionID:      newTransactionID(),
			Datetime:           randomDatetime(periodStart, periodEnd),
			AccountNumber:      gofakeit.Regex(`[A-Z]{2}[0-9]{2}[A-Z0-9]{16}`),
			MerchantRecipient:  gofakeit.Company(),
			Location:           fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
			Amount:             &amount,
			Currency:           &currency,
			DescriptionNotes:   gofakeit.Sentence(8),
			SuspectedFraudType: fraudTypes[rand.IntN(len(fraudTypes))],
			RiskScore:          1 + rand.IntN(100),
		})
	}

	report := &schemas.FraudReport{
		ReportID:                  newReportID(),
		ReportDate:                schemas.DateOf(periodEnd),
		ReportingPeriodStart:      schemas.DateOf(periodStart),
		ReportingPeriodEnd:        schemas.DateOf(periodEnd),
		PreparedBy:                "Fraud Detection Unit",
		ExecutiveSummary:          gofakeit.Paragraph(1, 3, 12, " "),
		Transactions:              transactions,
		Trends:                    gofakeit.Sentence(10),
		Patterns:                  gofakeit.Sentence(10),
		RiskFactors:               gofakeit.Sentence(12),
		ActionsTaken:              gofakeit.Sentence(12),
		Recommendations:           gofakeit.Sentence(12),
		ClientName:                gofakeit.Name(),
		TotalNumberOfTransactions: txCount * (10 + rand.IntN(90)),
	}
	return report, nil
}

// StaticAssessmentGenerator is the offline counterpart for threat
// assessments.
type StaticAssessmentGenerator struct{}

// GenerateOne implements store.Generator.
func (StaticAssessmentGenerator) GenerateOne(_ context.Context) (*schemas.Assessment, error) {
	assessmentType := assessmentTypes[rand.IntN(len(assessmentTypes))]
	format := assessmentFormats[rand.IntN(len(assessmentFormats))]
	source := gofakeit.Company()
	target := gofakeit.City()
	method := gofakeit.HackerVerb() + " " + gofakeit.HackerNoun()
	timing := time.Now().UTC().AddDate(0, 0, rand.IntN(30)).Format("2006-01-02 15:04")

	return &schemas.Assessment{
		AssessmentID:   newReportID(),
		AssessedAt:     schemas.DateOf(time.Now()),
		Type:           assessmentType,
		Source:         source,
		Target:         target,
		Method:         method,
		Timing:         timing,
		OriginalFormat: format,
		RawContent: fmt.Sprintf(
			"threat_actor: %s\nobjective: %s\ntechnique: %s\nwindow: %s\n",
			source, target, method, timing,
		),
	}, nil
}
