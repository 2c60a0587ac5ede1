package domain

// RoleKind discriminates the role a connection currently holds.
type RoleKind int

const (
	RoleUnassigned RoleKind = iota
	RoleHost
	RoleViewer
)

func (k RoleKind) String() string {
	switch k {
	case RoleHost:
		return "host"
	case RoleViewer:
		return "viewer"
	default:
		return "unassigned"
	}
}

// Role is a tagged variant: a connection is either unassigned, hosting
// exactly one stream, or viewing exactly one stream. Stream is set for
// host and viewer; Viewer is set for viewers only.
type Role struct {
	Kind   RoleKind
	Stream StreamID
	Viewer ViewerInfo
}

func HostRole(id StreamID) Role {
	return Role{Kind: RoleHost, Stream: id}
}

func ViewerRole(id StreamID, info ViewerInfo) Role {
	return Role{Kind: RoleViewer, Stream: id, Viewer: info}
}
