package auth

import "timestudy/models"

// Capability names one class of request a role may make
type Capability string

const (
	// Operator capabilities
	CapListGrantedProcesses Capability = "processes.granted"
	CapRecordTimings        Capability = "timings.record"

	// Admin capabilities
	CapManageUsers     Capability = "users.manage"
	CapManageProcesses Capability = "processes.manage"
	CapViewReports     Capability = "reports.view"
)

// CapabilitySet is a set of capabilities
type CapabilitySet map[Capability]struct{}

// Has reports whether c is in the set
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

func newSet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// The two sets are disjoint: an admin does not time operations and an operator does
// not administer the catalog.
var (
	AdminCapabilities    = newSet(CapManageUsers, CapManageProcesses, CapViewReports)
	OperatorCapabilities = newSet(CapListGrantedProcesses, CapRecordTimings)
)

// CapabilitiesFor returns the capability set of a role; unknown roles get none
func CapabilitiesFor(role models.Role) CapabilitySet {
	switch role {
	case models.RoleAdmin:
		return AdminCapabilities
	case models.RoleOperator:
		return OperatorCapabilities
	default:
		return CapabilitySet{}
	}
}

// Allows reports whether a role holds capability c
func Allows(role models.Role, c Capability) bool {
	return CapabilitiesFor(role).Has(c)
}
