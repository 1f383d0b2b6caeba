package auth

const (
	RoleAdmin                = "admin"
	RolePhysician            = "physician"
	RoleNurse                = "nurse"
	RoleRespiratoryTherapist = "respiratory_therapist"
	RoleViewer               = "viewer"
)

var roles = map[string]bool{
	RoleAdmin:                true,
	RolePhysician:            true,
	RoleNurse:                true,
	RoleRespiratoryTherapist: true,
	RoleViewer:               false,
}

// ValidRole reports whether role is known
func ValidRole(role string) bool {
	_, ok := roles[role]
	return ok
}

// CanAct reports whether role may change alarm state or patient limits
func CanAct(role string) bool {
	return roles[role]
}

// ActingRoles lists the roles allowed to mutate
func ActingRoles() []string {
	return []string{RoleAdmin, RolePhysician, RoleNurse, RoleRespiratoryTherapist}
}
