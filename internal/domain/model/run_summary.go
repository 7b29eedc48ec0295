package model

// ItemError records one failed item during an orchestrator run, for logging
// and the run-summary notification.
type ItemError struct {
	Provider string
	ItemID   string
	Message  string
}

// RunSummary aggregates the outcome of one orchestrator run across all
// providers. Failed counts both items skipped at submission time and items
// marked failed during collection.
type RunSummary struct {
	RunID     string
	DryRun    bool
	Submitted int
	Completed int
	Failed    int
	Errors    []ItemError
}

func (s *RunSummary) AddError(provider, itemID, message string) {
	s.Failed++
	s.Errors = append(s.Errors, ItemError{Provider: provider, ItemID: itemID, Message: message})
}
