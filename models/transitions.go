package models

// statusTransitions maps a status to the statuses it may move to. Every status
// may currently follow every other one; tightening the workflow only means
// editing this table.
var statusTransitions = buildTransitions(func(from, to IssueStatus) bool { return true })

func buildTransitions(allowed func(from, to IssueStatus) bool) map[IssueStatus]map[IssueStatus]bool {
	table := make(map[IssueStatus]map[IssueStatus]bool, len(IssueStatuses))
	for _, from := range IssueStatuses {
		table[from] = make(map[IssueStatus]bool, len(IssueStatuses))
		for _, to := range IssueStatuses {
			if allowed(from, to) {
				table[from][to] = true
			}
		}
	}
	return table
}

// CanTransition reports whether an issue in status from may be moved to status to.
func CanTransition(from, to IssueStatus) bool {
	return statusTransitions[from][to]
}

// IsOpen reports whether the status still needs attention from an authority.
func (s IssueStatus) IsOpen() bool {
	return s != StatusResolved && s != StatusClosed
}
