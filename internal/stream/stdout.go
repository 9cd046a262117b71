package stream

import (
	"fmt"
	"io"
	"os"
	"strings"

	"capmetrics-agent/internal/model"
)

// StdoutSink renders each report as text, for operators running one-shot
// passes from a shell.
type StdoutSink struct {
	w io.Writer
}

func NewStdoutSink(w io.Writer) *StdoutSink {
	if w == nil {
		w = os.Stdout
	}
	return &StdoutSink{w: w}
}

func (s *StdoutSink) SendReport(_ Context, report model.CapacityReport) error {
	_, err := io.WriteString(s.w, FormatReport(report))
	return err
}

func (s *StdoutSink) Close(Context) error {
	return nil
}

// FormatReport renders the totals line, the divergence-sorted group list,
// and any drift or pool-pin findings.
func FormatReport(r model.CapacityReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s region %s\n", r.RunID, r.Region)
	fmt.Fprintf(&b, "total desired: %d, total actual: %d\n", r.TotalDesired, r.TotalActual)
	for _, g := range r.Groups {
		fmt.Fprintf(&b, "tenant %s group %s desired=%d actual=%d pending=%d\n",
			g.TenantID, g.GroupID, g.Desired, g.Actual, g.Pending)
	}
	for _, d := range r.Drifts {
		fmt.Fprintf(&b, "tenant %s group %s diff configs: %s\n", d.TenantID, d.GroupID, formatConfigs(d.Configs))
	}
	for _, p := range r.PoolPins {
		fmt.Fprintf(&b, "tenant %s group %s lb pool: %s\n", p.TenantID, p.GroupID, p.Pool)
	}
	return b.String()
}

func formatConfigs(configs []model.ServerConfig) string {
	parts := make([]string, 0, len(configs))
	for _, c := range configs {
		parts = append(parts, fmt.Sprintf("(%s,%s)", c.FlavorID, c.ImageID))
	}
	return strings.Join(parts, " ")
}
