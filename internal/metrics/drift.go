package metrics

import "capmetrics-agent/internal/model"

// DetectDrift reports the distinct flavor/image combinations among a
// group's live servers when there is more than one. Combinations are listed
// in order of first appearance.
func DetectDrift(tenantID, groupID string, servers []model.ServerRecord) (model.GroupDrift, bool) {
	seen := make(map[model.ServerConfig]struct{})
	var configs []model.ServerConfig
	for _, s := range servers {
		c := model.ServerConfig{FlavorID: s.FlavorID, ImageID: s.ImageID}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		configs = append(configs, c)
	}
	if len(configs) <= 1 {
		return model.GroupDrift{}, false
	}
	return model.GroupDrift{TenantID: tenantID, GroupID: groupID, Configs: configs}, true
}

// DetectAllDrift checks every group that has live servers. A group with no
// tagged servers cannot drift and is skipped.
func DetectAllDrift(tenants []TenantGroups, servers map[string]map[string][]model.ServerRecord) []model.GroupDrift {
	var out []model.GroupDrift
	for _, tg := range tenants {
		grouped := servers[tg.TenantID]
		for _, g := range tg.Groups {
			live, ok := grouped[g.GroupID]
			if !ok {
				continue
			}
			if d, drifted := DetectDrift(tg.TenantID, g.GroupID, live); drifted {
				out = append(out, d)
			}
		}
	}
	return out
}
