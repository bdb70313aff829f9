package orders

import (
	"fmt"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// transitions is the authoritative table of legal lifecycle moves,
// keyed by current state and the role proposing the change. Anything
// not listed here is rejected: stages never move backward and are never
// skipped, and denied/completed orders are terminal except for the
// teamlead-driven reset of a denied csr-stage order.
var transitions = map[State]map[shared.Role][]State{
	{StageCSR, StatusPending}: {
		shared.RoleTeamLead: {
			{StageCSR, StatusApproved},
			{StageCSR, StatusDenied},
		},
	},
	{StageCSR, StatusApproved}: {
		shared.RoleProcurement: {
			{StageProcurement, StatusPending},
		},
	},
	{StageCSR, StatusDenied}: {
		// Corrective re-submission: back to the head of the pipeline.
		shared.RoleTeamLead: {
			{StageCSR, StatusPending},
		},
	},
	{StageProcurement, StatusPending}: {
		shared.RoleProcurement: {
			{StageWarehouse, StatusPending},
			{StageProcurement, StatusDenied},
		},
	},
	{StageWarehouse, StatusPending}: {
		shared.RoleWarehouse: {
			{StageWarehouse, StatusCompleted},
			{StageWarehouse, StatusDenied},
		},
	},
	{StageWarehouse, StatusCompleted}: {
		shared.RoleAccounting: {
			{StageAccounting, StatusPending},
		},
	},
	{StageAccounting, StatusPending}: {
		shared.RoleAccounting: {
			{StageAccounting, StatusInvoiced},
			{StageAccounting, StatusDenied},
		},
	},
	{StageAccounting, StatusInvoiced}: {
		shared.RoleAccounting: {
			{StageAccounting, StatusCompleted},
		},
	},
}

// IllegalTransitionError carries the attempted move and the set of
// moves that would have been allowed, for caller diagnostics.
type IllegalTransitionError struct {
	Current   State
	Role      shared.Role
	Attempted State
	Allowed   []State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("orders: %s may not move %s to %s (allowed: %v)", e.Role, e.Current, e.Attempted, e.Allowed)
}

// Is makes the error match shared.ErrIllegalTransition.
func (e *IllegalTransitionError) Is(target error) bool {
	return target == shared.ErrIllegalTransition
}

// AllowedTargets returns the states the role may move the order to from
// the current state. The result is deterministic and never shares the
// table's backing slices.
func AllowedTargets(current State, role shared.Role) []State {
	byRole, ok := transitions[current]
	if !ok {
		return nil
	}
	return append([]State(nil), byRole[role]...)
}

// Validate decides whether role may move an order from current to
// target. It is a pure function of its arguments.
func Validate(current State, role shared.Role, target State) error {
	allowed := AllowedTargets(current, role)
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return &IllegalTransitionError{Current: current, Role: role, Attempted: target, Allowed: allowed}
}
