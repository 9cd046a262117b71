package metrics

import (
	"encoding/json"

	"capmetrics-agent/internal/model"
)

// LaunchConfigColumn is the extra store column holding a group's launch
// configuration JSON.
const LaunchConfigColumn = "launch_config"

const lbPoolMetadataKey = "lb_pool"

type launchConfig struct {
	Args struct {
		Server struct {
			Metadata map[string]string `json:"metadata"`
		} `json:"server"`
	} `json:"args"`
}

// PoolPins reports groups whose launch configuration pins new servers to a
// load balancer pool. Records without the column, or with launch config
// that does not parse, are skipped.
func PoolPins(records []model.ScalingGroupRecord) []model.LaunchPoolPin {
	var out []model.LaunchPoolPin
	for _, r := range records {
		raw := r.ExtraString(LaunchConfigColumn)
		if raw == "" {
			continue
		}
		var lc launchConfig
		if err := json.Unmarshal([]byte(raw), &lc); err != nil {
			continue
		}
		pool := lc.Args.Server.Metadata[lbPoolMetadataKey]
		if pool == "" {
			continue
		}
		out = append(out, model.LaunchPoolPin{TenantID: r.TenantID, GroupID: r.GroupID, Pool: pool})
	}
	return out
}
