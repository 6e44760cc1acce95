package reporting

const fraudTemplate = `# Fraud Report - {{ .ReportDate }}

## Report Details

**Report ID:** {{ .ReportID }}

**Reporting Period:** {{ .ReportingPeriodStart }} - {{ .ReportingPeriodEnd }}

**Prepared By:** {{ .PreparedBy }}

## Executive Summary

{{ .ExecutiveSummary }}

## Transactions

**Total number of transactions:** {{ .TotalNumberOfTransactions }}

**Suspicious transactions:** {{ len .Transactions }}

### Suspected Fraudulent Transactions

| Transaction ID | Date | Account Number | Merchant/Recipient | Location | Amount | Description/Notes | Suspected Fraud Type |
| -------------- | ---- | -------------- | ------------------ | -------- | ------ | ----------------- | -------------------- |
{{ range .Transactions -}}
| {{ .TransactionID }} | {{ .Datetime.Format "2006-01-02 15:04" }} | ` + "`{{ .AccountNumber }}`" + ` | {{ .MerchantRecipient }} | {{ .Location }} | {{ money .Amount .Currency }} | {{ .DescriptionNotes }} | {{ .SuspectedFraudType }} |
{{ end }}

## Trends and Patterns

*   **Trends:** {{ .Trends }}
*   **Patterns:** {{ .Patterns }}

## Risk Factors

{{ .RiskFactors }}

## Actions Taken

{{ .ActionsTaken }}

## Recommendations

{{ .Recommendations }}

---

*Prepared for {{ .ClientName }}.*
`

const assessmentTemplate = `# Threat Assessment - {{ .AssessedAt }}

## Assessment Details

**Assessment ID:** {{ .AssessmentID }}

**Type:** {{ .Type }}

**Original Format:** {{ .OriginalFormat }}

## Extracted Signals

*   **Source:** {{ .Source }}
*   **Target:** {{ .Target }}
*   **Method:** {{ .Method }}
*   **Timing:** {{ .Timing }}

## Original Document

{{ .RawContent }}
`
