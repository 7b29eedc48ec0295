package notify

import (
	"fmt"
	"strings"

	"learnloop/internal/domain/model"
)

// formatRunSummary renders one run for a human channel. Only the first few
// item errors are listed; the logs hold the rest.
func formatRunSummary(s model.RunSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch run %s finished with failures\n", s.RunID)
	fmt.Fprintf(&sb, "submitted: %d, completed: %d, failed: %d\n", s.Submitted, s.Completed, s.Failed)

	const maxListed = 10
	for i, e := range s.Errors {
		if i == maxListed {
			fmt.Fprintf(&sb, "... and %d more\n", len(s.Errors)-maxListed)
			break
		}
		fmt.Fprintf(&sb, "- [%s] %s: %s\n", e.Provider, e.ItemID, e.Message)
	}
	return strings.TrimRight(sb.String(), "\n")
}
