// Package views renders the HTML fragments returned to HTMX requests and
// the import page. Markup lives in the .templ files; the _templ.go files
// are generated from them with `templ generate`.
package views

import "github.com/JonMunkholm/gazette-import/internal/core"

func batchElementID(id string) string {
	return "batch-" + id
}

func batchPath(id, action string) string {
	return "/api/imports/" + id + "/" + action
}

func outcomeText(o core.Outcome) string {
	switch o {
	case core.OutcomeCleanSuccess:
		return "All notices uploaded"
	case core.OutcomePartialFailure:
		return "Some notices failed"
	case core.OutcomeCancelled:
		return "Upload cancelled"
	default:
		return "Upload finished"
	}
}
