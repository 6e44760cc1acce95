package chat

import "github.com/donmccasland/gdc-gemini-munich-demo/api/schemas"

// predefinedQuestions offered per page, surfaced as a dropdown in the UI.
var predefinedQuestions = map[schemas.Page][]string{
	schemas.PageReportView: {
		"What are the key trends identified in the transactions?",
		"What are the main risk factors mentioned?",
		"What actions were taken in response to the fraud?",
		"What recommendations are made for future actions?",
		"Can you summarise the executive summary?",
	},
	schemas.PageReportSelection: {
		"Any common patterns in all reports in this list?",
	},
}

// PredefinedQuestions returns the canned question set for a page.
func PredefinedQuestions(page schemas.Page) []string {
	return predefinedQuestions[page]
}
