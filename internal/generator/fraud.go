package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"
	"github.com/donmccasland/gdc-gemini-munich-demo/internal/llmclient"
)

// fraudResponseSchema constrains the model's JSON output to the fraud report
// shape (OpenAPI subset understood by the Gemini endpoint).
const fraudResponseSchema = `{
  "type": "object",
  "properties": {
    "report_id": {"type": "string"},
    "report_date": {"type": "string", "format": "date"},
    "reporting_period_start": {"type": "string", "format": "date"},
    "reporting_period_end": {"type": "string", "format": "date"},
    "prepared_by": {"type": "string"},
    "executive_summary": {"type": "string"},
    "transactions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "transaction_id": {"type": "string"},
          "datetime": {"type": "string", "format": "date-time"},
          "account_number": {"type": "string"},
          "merchant_recipient": {"type": "string"},
          "location": {"type": "string"},
          "amount": {"type": "number", "nullable": true},
          "currency": {"type": "string", "nullable": true},
          "description_notes": {"type": "string"},
          "suspected_fraud_type": {"type": "string"},
          "risk_score": {"type": "integer"}
        },
        "required": ["transaction_id", "datetime", "account_number", "merchant_recipient", "location", "description_notes", "suspected_fraud_type", "risk_score"]
      }
    },
    "trends": {"type": "string"},
    "patterns": {"type": "string"},
    "risk_factors": {"type": "string"},
    "actions_taken": {"type": "string"},
    "recommendations": {"type": "string"},
    "client_name": {"type": "string"},
    "total_number_of_transactions": {"type": "integer"}
  },
  "required": ["report_id", "report_date", "reporting_period_start", "reporting_period_end", "prepared_by", "executive_summary", "transactions", "trends", "patterns", "risk_factors", "actions_taken", "recommendations", "client_name", "total_number_of_transactions"]
}`

// FraudGenerator produces fraud reports through the generation endpoint,
// then overwrites identifiers and transaction details locally so they look
// like real bank data rather than model output.
type FraudGenerator struct {
	client      llmclient.Client
	temperature float32
	logger      *zap.Logger
}

// NewFraudGenerator builds a generator on top of the given client.
func NewFraudGenerator(client llmclient.Client, temperature float32, logger *zap.Logger) *FraudGenerator {
	return &FraudGenerator{
		client:      client,
		temperature: temperature,
		logger:      logger.Named("generator.fraud"),
	}
}

// GenerateOne implements store.Generator.
func (g *FraudGenerator) GenerateOne(ctx context.Context) (*schemas.FraudReport, error) {
	start := time.Now()

	prompt := fmt.Sprintf(
		"Generate an example fraud report following the given schema. "+
			"The report should feature between 2 and 8 fraudulent transactions. "+
			"Current date is %s, make the reports as recent as possible.",
		time.Now().Format(time.RFC3339),
	)

	raw, err := g.client.Generate(ctx, llmclient.GenerationRequest{
		UserPrompt: prompt,
		Options: llmclient.GenerationOptions{
			Temperature:     g.temperature,
			ForceJSONFormat: true,
			ResponseSchema:  json.RawMessage(fraudResponseSchema),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fraud report generation: %w", err)
	}

	var report schemas.FraudReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("decode generated fraud report: %w", err)
	}

	g.anonymize(&report)

	summary, err := g.client.Generate(ctx, llmclient.GenerationRequest{
		UserPrompt: fmt.Sprintf("Generate a summary of the following fraud report: %s", mustJSON(&report)),
		Options:    llmclient.GenerationOptions{Temperature: 0.2},
	})
	if err != nil {
		return nil, fmt.Errorf("fraud report summary: %w", err)
	}
	report.ExecutiveSummary = summary

	g.logger.Info("New fraud report generated",
		zap.String("report_id", report.ReportID),
		zap.Int("transactions", len(report.Transactions)),
		zap.Duration("duration", time.Since(start)),
	)
	return &report, nil
}

// anonymize replaces the model's identifiers and bank details with locally
// synthesized values.
func (g *FraudGenerator) anonymize(report *schemas.FraudReport) {
	report.ReportID = newReportID()
	report.ClientName = gofakeit.Name()

	// The suspicious transactions are a small slice of the client's overall
	// activity in the period.
	divisor := rand.Float64() / 10
	if divisor < 0.001 {
		divisor = 0.001
	}
	report.TotalNumberOfTransactions = int(float64(len(report.Transactions)) / divisor)

	periodStart := report.ReportingPeriodStart.Time
	periodEnd := report.ReportingPeriodEnd.Time
	for i := range report.Transactions {
		tx := &report.Transactions[i]
		tx.TransactionID = newTransactionID()
		tx.Datetime = randomDatetime(periodStart, periodEnd)
		tx.AccountNumber = gofakeit.Regex(`[A-Z]{2}[0-9]{2}[A-Z0-9]{16}`)
		if tx.Amount != nil && *tx.Amount != 0 {
			amount := float64(100 + rand.IntN(49901))
			tx.Amount = &amount
		}
	}
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
