package httpapi

import "fmt"

// Role is a connection's capability set within the session.
type Role int

const (
	// RoleViewer receives the feed and may send control commands.
	RoleViewer Role = iota
	// RoleListener supplies the audio stream in addition to control.
	RoleListener
)

// ParseRole normalizes the role query parameter. "candidate" is a synonym
// for listener kept for older clients.
func ParseRole(s string) (Role, error) {
	switch s {
	case "viewer":
		return RoleViewer, nil
	case "listener", "candidate":
		return RoleListener, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleListener:
		return "listener"
	default:
		return "viewer"
	}
}
