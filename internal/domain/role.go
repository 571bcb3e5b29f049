package domain

type Role string

const (
	RoleNone      Role = ""
	RoleInitiator Role = "initiator"
	RoleResponder Role = "responder"
)

// RoleFor derives the role from room token presence: joining an existing
// rendezvous means answering, otherwise this side starts the call.
func RoleFor(hasToken bool) Role {
	if hasToken {
		return RoleResponder
	}
	return RoleInitiator
}

func (r Role) Initiator() bool { return r == RoleInitiator }
