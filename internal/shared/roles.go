package shared

// Role identifies what an actor is allowed to do in the pipeline.
type Role string

const (
	RoleCSR         Role = "csr"
	RoleTeamLead    Role = "teamlead"
	RoleProcurement Role = "procurement"
	RoleWarehouse   Role = "warehouse"
	RoleAccounting  Role = "accounting"
	RoleAdmin       Role = "admin"
)

// Valid reports whether the role is one of the known pipeline roles.
// Unknown roles are rejected outright; there is no fallback role.
func (r Role) Valid() bool {
	switch r {
	case RoleCSR, RoleTeamLead, RoleProcurement, RoleWarehouse, RoleAccounting, RoleAdmin:
		return true
	}
	return false
}
