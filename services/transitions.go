package services

import "urbanfix-be/models"

// TransitionPolicy decides whether an issue may move between two statuses.
type TransitionPolicy interface {
	Allowed(from, to models.IssueStatus) bool
}

// OpenTransitions permits every transition, including regressions such as
// CLOSED to OPEN.
type OpenTransitions struct{}

func (OpenTransitions) Allowed(_, _ models.IssueStatus) bool { return true }

// StrictTransitions is an explicit table of allowed (from, to) pairs.
// Re-entering the current status is always allowed.
type StrictTransitions map[models.IssueStatus][]models.IssueStatus

// DefaultStrictTransitions forbids leaving CLOSED and only lets REJECTED be
// reopened.
var DefaultStrictTransitions = StrictTransitions{
	models.StatusOpen:       {models.StatusInProgress, models.StatusResolved, models.StatusClosed, models.StatusRejected},
	models.StatusInProgress: {models.StatusOpen, models.StatusResolved, models.StatusClosed, models.StatusRejected},
	models.StatusResolved:   {models.StatusInProgress, models.StatusClosed},
	models.StatusClosed:     {},
	models.StatusRejected:   {models.StatusOpen},
}

func (t StrictTransitions) Allowed(from, to models.IssueStatus) bool {
	if from == to {
		return true
	}
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}
