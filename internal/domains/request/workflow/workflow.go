package workflow

import (
	"hms/internal/domains/request/model"
	"hms/shared/constant"
	"hms/shared/failure"
)

// Actions a deciding role can take on a booking request.
const (
	ActionApprove    = "approve"
	ActionReject     = "reject"
	ActionReconsider = "reconsider"
)

// Rule describes one legal transition: the status it starts from, the status
// it lands on, the note column the acting role writes, and whether the action
// carries a priority.
type Rule struct {
	From         string
	To           string
	NoteField    string
	SetsPriority bool
}

// rules is the full transition table, keyed by role then action. Reception
// acts first on pending requests, administration acts second on
// reception-approved ones. Anything not in this table is an invalid
// transition, students never decide.
var rules = map[string]map[string]Rule{
	constant.RoleReception: {
		ActionApprove: {
			From:         model.StatusPending,
			To:           model.StatusReceptionApproved,
			NoteField:    model.FieldReceptionNote,
			SetsPriority: true,
		},
		ActionReject: {
			From:         model.StatusPending,
			To:           model.StatusRejected,
			NoteField:    model.FieldReceptionNote,
			SetsPriority: true,
		},
	},
	constant.RoleAdmin: {
		ActionApprove: {
			From:      model.StatusReceptionApproved,
			To:        model.StatusApproved,
			NoteField: model.FieldAdminNote,
		},
		ActionReconsider: {
			From:      model.StatusReceptionApproved,
			To:        model.StatusReconsidered,
			NoteField: model.FieldAdminNote,
		},
	},
}

// Transition resolves the rule for the given role, action and current status.
// It fails with an invalid-transition failure when the combination is not in
// the table.
func Transition(role, action, fromStatus string) (Rule, error) {
	byAction, ok := rules[role]
	if !ok {
		return Rule{}, failure.InvalidTransition(role, action, fromStatus) //nolint:wrapcheck
	}

	rule, ok := byAction[action]
	if !ok || rule.From != fromStatus {
		return Rule{}, failure.InvalidTransition(role, action, fromStatus) //nolint:wrapcheck
	}

	return rule, nil
}

// IsResolved reports whether a status is terminal. Reconsidered is excluded
// on purpose: it signals "needs resubmission" and the workflow defines no way
// out of it, but the request was not resolved.
func IsResolved(status string) bool {
	return status == model.StatusApproved || status == model.StatusRejected
}
