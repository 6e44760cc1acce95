package schemas

import (
	"fmt"
	"time"
)

// Transaction is a single suspected fraudulent transaction within a report.
type Transaction struct {
	TransactionID      string    `json:"transaction_id"`
	Datetime           time.Time `json:"datetime"`
	AccountNumber      string    `json:"account_number"`
	MerchantRecipient  string    `json:"merchant_recipient"`
	Location           string    `json:"location"`
	Amount             *float64  `json:"amount"`
	Currency           *string   `json:"currency"`
	DescriptionNotes   string    `json:"description_notes"`
	SuspectedFraudType string    `json:"suspected_fraud_type"`
	RiskScore          int       `json:"risk_score"`
}

// FraudReport is one transaction-fraud report as stored in the seed file and
// produced by the generator.
type FraudReport struct {
	ReportID                  string        `json:"report_id"`
	ReportDate                Date          `json:"report_date"`
	ReportingPeriodStart      Date          `json:"reporting_period_start"`
	ReportingPeriodEnd        Date          `json:"reporting_period_end"`
	PreparedBy                string        `json:"prepared_by"`
	ExecutiveSummary          string        `json:"executive_summary"`
	Transactions              []Transaction `json:"transactions"`
	Trends                    string        `json:"trends"`
	Patterns                  string        `json:"patterns"`
	RiskFactors               string        `json:"risk_factors"`
	ActionsTaken              string        `json:"actions_taken"`
	Recommendations           string        `json:"recommendations"`
	ClientName                string        `json:"client_name"`
	TotalNumberOfTransactions int           `json:"total_number_of_transactions"`
}

// RecordID implements Record.
func (r *FraudReport) RecordID() string { return r.ReportID }

// SortKey implements Record. Reports are ordered by report date.
func (r *FraudReport) SortKey() time.Time { return r.ReportDate.Time }

// Validate checks the fields the store depends on. Payload fields beyond the
// id and sort key are opaque to the store and not validated here.
func (r *FraudReport) Validate() error {
	if r.ReportID == "" {
		return fmt.Errorf("fraud report: missing report_id")
	}
	if r.ReportDate.IsZero() {
		return fmt.Errorf("fraud report %s: missing report_date", r.ReportID)
	}
	for i, tx := range r.Transactions {
		if tx.TransactionID == "" {
			return fmt.Errorf("fraud report %s: transaction %d missing transaction_id", r.ReportID, i)
		}
	}
	return nil
}
