package orders

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

func TestValidateHappyPath(t *testing.T) {
	steps := []struct {
		current State
		role    shared.Role
		target  State
	}{
		{State{StageCSR, StatusPending}, shared.RoleTeamLead, State{StageCSR, StatusApproved}},
		{State{StageCSR, StatusApproved}, shared.RoleProcurement, State{StageProcurement, StatusPending}},
		{State{StageProcurement, StatusPending}, shared.RoleProcurement, State{StageWarehouse, StatusPending}},
		{State{StageWarehouse, StatusPending}, shared.RoleWarehouse, State{StageWarehouse, StatusCompleted}},
		{State{StageWarehouse, StatusCompleted}, shared.RoleAccounting, State{StageAccounting, StatusPending}},
		{State{StageAccounting, StatusPending}, shared.RoleAccounting, State{StageAccounting, StatusInvoiced}},
		{State{StageAccounting, StatusInvoiced}, shared.RoleAccounting, State{StageAccounting, StatusCompleted}},
	}
	for _, step := range steps {
		require.NoError(t, Validate(step.current, step.role, step.target),
			"%s should move %s to %s", step.role, step.current, step.target)
	}
}

func TestValidateDenials(t *testing.T) {
	denials := []struct {
		current State
		role    shared.Role
	}{
		{State{StageCSR, StatusPending}, shared.RoleTeamLead},
		{State{StageProcurement, StatusPending}, shared.RoleProcurement},
		{State{StageWarehouse, StatusPending}, shared.RoleWarehouse},
		{State{StageAccounting, StatusPending}, shared.RoleAccounting},
	}
	for _, d := range denials {
		target := State{d.current.Stage, StatusDenied}
		require.NoError(t, Validate(d.current, d.role, target))
	}
}

func TestValidateRejectsWrongRole(t *testing.T) {
	err := Validate(State{StageCSR, StatusPending}, shared.RoleWarehouse, State{StageCSR, StatusApproved})
	require.Error(t, err)
	require.ErrorIs(t, err, shared.ErrIllegalTransition)

	err = Validate(State{StageWarehouse, StatusPending}, shared.RoleCSR, State{StageWarehouse, StatusCompleted})
	require.ErrorIs(t, err, shared.ErrIllegalTransition)
}

func TestValidateRejectsSkippedStage(t *testing.T) {
	// csr/approved may not jump straight to the warehouse.
	err := Validate(State{StageCSR, StatusApproved}, shared.RoleWarehouse, State{StageWarehouse, StatusPending})
	require.ErrorIs(t, err, shared.ErrIllegalTransition)

	err = Validate(State{StageCSR, StatusApproved}, shared.RoleAccounting, State{StageAccounting, StatusPending})
	require.ErrorIs(t, err, shared.ErrIllegalTransition)
}

func TestValidateNeverMovesBackward(t *testing.T) {
	for current, byRole := range transitions {
		for role, targets := range byRole {
			for _, target := range targets {
				require.GreaterOrEqual(t, target.Stage.Index(), 0)
				require.GreaterOrEqual(t, target.Stage.Index(), current.Stage.Index(),
					"%s: %s -> %s moves backward", role, current, target)
			}
		}
	}
}

func TestValidateTerminalStates(t *testing.T) {
	terminals := []State{
		{StageProcurement, StatusDenied},
		{StageWarehouse, StatusDenied},
		{StageAccounting, StatusDenied},
		{StageAccounting, StatusCompleted},
	}
	roles := []shared.Role{
		shared.RoleCSR, shared.RoleTeamLead, shared.RoleProcurement,
		shared.RoleWarehouse, shared.RoleAccounting, shared.RoleAdmin,
	}
	for _, terminal := range terminals {
		require.True(t, terminal.Terminal())
		for _, role := range roles {
			require.Empty(t, AllowedTargets(terminal, role), "%s should be terminal for %s", terminal, role)
		}
	}
}

func TestDeniedCSRResetIsAllowed(t *testing.T) {
	current := State{StageCSR, StatusDenied}
	require.False(t, current.Terminal())
	require.NoError(t, Validate(current, shared.RoleTeamLead, State{StageCSR, StatusPending}))
	require.ErrorIs(t, Validate(current, shared.RoleCSR, State{StageCSR, StatusPending}), shared.ErrIllegalTransition)
}

func TestIllegalTransitionErrorCarriesContext(t *testing.T) {
	err := Validate(State{StageCSR, StatusPending}, shared.RoleTeamLead, State{StageAccounting, StatusCompleted})
	var illegal *IllegalTransitionError
	require.True(t, errors.As(err, &illegal))
	require.Equal(t, State{StageCSR, StatusPending}, illegal.Current)
	require.Equal(t, shared.RoleTeamLead, illegal.Role)
	require.Len(t, illegal.Allowed, 2)
}

func TestAllowedTargetsCopiesSlice(t *testing.T) {
	first := AllowedTargets(State{StageCSR, StatusPending}, shared.RoleTeamLead)
	require.Len(t, first, 2)
	first[0] = State{StageAccounting, StatusCompleted}
	second := AllowedTargets(State{StageCSR, StatusPending}, shared.RoleTeamLead)
	require.Equal(t, State{StageCSR, StatusApproved}, second[0])
}
