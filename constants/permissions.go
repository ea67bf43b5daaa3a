package constants

// Roles carried in the JWT "role" claim. Authentication happens upstream;
// the backend only checks the role string.
const (
	RoleUser         = "user"
	RoleEventCreator = "event_creator"
	RoleAdmin        = "admin"

	// RoleAny accepts any authenticated caller.
	RoleAny = "any"
)

// EventManagerRoles may create, reschedule and cancel rallies.
var EventManagerRoles = []string{
	RoleEventCreator,
	RoleAdmin,
}
