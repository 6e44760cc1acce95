package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
)

func TestFraudRenderer(t *testing.T) {
	renderer, err := NewFraudRenderer()
	require.NoError(t, err)

	amount := 1234.5
	currency := "EUR"
	report := &schemas.FraudReport{
		ReportID:             "AB12CD34EF",
		ReportDate:           schemas.NewDate(2025, time.March, 7),
		ReportingPeriodStart: schemas.NewDate(2025, time.February, 7),
		ReportingPeriodEnd:   schemas.NewDate(2025, time.March, 7),
		PreparedBy:           "Fraud Detection Unit",
		ExecutiveSummary:     "Several suspicious card-present transactions.",
		Transactions: []schemas.Transaction{{
			TransactionID:      "1234567890ABCDEF",
			Datetime:           time.Date(2025, time.February, 14, 9, 30, 0, 0, time.UTC),
			AccountNumber:      "DE44ABCDEF1234567890",
			MerchantRecipient:  "ACME GmbH",
			Location:           "Munich, Germany",
			Amount:             &amount,
			Currency:           &currency,
			DescriptionNotes:   "Unusual merchant category",
			SuspectedFraudType: "Card skimming",
		}},
		Trends:                    "Rising card-present fraud.",
		RiskFactors:               "Compromised terminals.",
		ActionsTaken:              "Cards blocked.",
		Recommendations:           "Reissue affected cards.",
		ClientName:                "Jane Doe",
		TotalNumberOfTransactions: 250,
	}

	doc, err := renderer.Render(report)
	require.NoError(t, err)

	assert.Contains(t, doc, "# Fraud Report - 2025-03-07")
	assert.Contains(t, doc, "**Report ID:** AB12CD34EF")
	assert.Contains(t, doc, "**Reporting Period:** 2025-02-07 - 2025-03-07")
	assert.Contains(t, doc, "## Executive Summary")
	assert.Contains(t, doc, "Several suspicious card-present transactions.")
	assert.Contains(t, doc, "**Total number of transactions:** 250")
	assert.Contains(t, doc, "| 1234567890ABCDEF | 2025-02-14 09:30 | `DE44ABCDEF1234567890` | ACME GmbH | Munich, Germany | 1234.50 EUR | Unusual merchant category | Card skimming |")
	assert.Contains(t, doc, "Prepared for Jane Doe")
}

func TestFraudRendererNullableAmount(t *testing.T) {
	renderer, err := NewFraudRenderer()
	require.NoError(t, err)

	report := &schemas.FraudReport{
		ReportID:   "AB12CD34EF",
		ReportDate: schemas.NewDate(2025, time.March, 7),
		Transactions: []schemas.Transaction{{
			TransactionID: "1234567890ABCDEF",
			Datetime:      time.Date(2025, time.February, 14, 9, 30, 0, 0, time.UTC),
		}},
	}

	doc, err := renderer.Render(report)
	require.NoError(t, err)
	assert.Contains(t, doc, "| - |", "missing amounts render as a dash")
}

func TestAssessmentRenderer(t *testing.T) {
	renderer, err := NewAssessmentRenderer()
	require.NoError(t, err)

	doc, err := renderer.Render(&schemas.Assessment{
		AssessmentID:   "AA11BB22CC",
		AssessedAt:     schemas.NewDate(2025, time.April, 1),
		Type:           "Cyber attack on CNI",
		Source:         "APT-00",
		Target:         "Power grid",
		Method:         "Wiper malware",
		Timing:         "Next quarter",
		OriginalFormat: "yaml",
		RawContent:     "threat: wiper\ntarget: grid",
	})
	require.NoError(t, err)

	assert.Contains(t, doc, "# Threat Assessment - 2025-04-01")
	assert.Contains(t, doc, "**Assessment ID:** AA11BB22CC")
	assert.Contains(t, doc, "**Type:** Cyber attack on CNI")
	assert.Contains(t, doc, "*   **Source:** APT-00")
	assert.Contains(t, doc, "threat: wiper")
}
