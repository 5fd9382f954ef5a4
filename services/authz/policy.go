package authz

// AuthorizeRole reports whether the actor's primary role equals role.
// Roles are flat: an admin does not satisfy a librarian check.
func AuthorizeRole(actor Actor, role Role) bool {
	return role.Valid() && actor.Role == role
}

// AuthorizeAnyRole reports whether the actor holds one of roles.
func AuthorizeAnyRole(actor Actor, roles ...Role) bool {
	for _, r := range roles {
		if AuthorizeRole(actor, r) {
			return true
		}
	}
	return false
}

// AuthorizePermission reports whether perm is registered and granted.
// Roles play no part here.
func AuthorizePermission(actor Actor, perm Permission) bool {
	return KnownPermission(perm) && actor.HasPermission(perm)
}

// AuthorizeOwnership decides whether actor may perform action on res.
// Reads are always allowed. Updates and deletes require the actor to be
// the recorded owner; un-owned resources reject every mutating actor.
func AuthorizeOwnership(actor Actor, res Resource, action Action) bool {
	switch action {
	case ActionRead:
		return true
	case ActionUpdate, ActionDelete:
		return res.Owner != nil && *res.Owner == actor.ID
	default:
		return false
	}
}
