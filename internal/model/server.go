package model

// Server status values reported by the inventory service. Anything other
// than ACTIVE counts as still provisioning.
const (
	ServerStatusActive = "ACTIVE"
	ServerStatusBuild  = "BUILD"
)

// ServerRecord is one live compute instance owned by a tenant. GroupID is
// derived from the instance's scaling-group metadata tag and is empty for
// untagged instances.
type ServerRecord struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	FlavorID string `json:"flavor_id"`
	ImageID  string `json:"image_id"`
	GroupID  string `json:"group_id"`
}
