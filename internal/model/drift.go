package model

// ServerConfig identifies one observed flavor/image combination.
type ServerConfig struct {
	FlavorID string `json:"flavor_id"`
	ImageID  string `json:"image_id"`
}

// GroupDrift reports a group whose live servers disagree on flavor or image.
// Configs lists the distinct combinations, always more than one.
type GroupDrift struct {
	TenantID string         `json:"tenant_id"`
	GroupID  string         `json:"group_id"`
	Configs  []ServerConfig `json:"configs"`
}
