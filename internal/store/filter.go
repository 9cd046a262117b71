package store

import "capmetrics-agent/internal/model"

// Predicate accepts or rejects one scanned record.
type Predicate func(model.ScalingGroupRecord) bool

// StatusColumn is the extra column carrying a group's lifecycle status.
const StatusColumn = "status"

const statusDisabled = "DISABLED"

// NotDisabled drops groups whose status column says DISABLED. Records
// scanned without the status column pass.
func NotDisabled(r model.ScalingGroupRecord) bool {
	s, ok := r.Extra[StatusColumn].(string)
	return !ok || s != statusDisabled
}

func hasDesired(r model.ScalingGroupRecord) bool {
	return r.Desired != nil
}

func hasCreatedAt(r model.ScalingGroupRecord) bool {
	return r.CreatedAt != nil
}

// Filter drops records failing any predicate, preserving input order. A
// dropped record is not an error. The built-in null checks for desired and
// created_at run before the caller's predicates, in that order and with
// short-circuit evaluation, so caller predicates can rely on both fields
// being present.
func Filter(records []model.ScalingGroupRecord, extra ...Predicate) []model.ScalingGroupRecord {
	preds := make([]Predicate, 0, 2+len(extra))
	preds = append(preds, hasDesired, hasCreatedAt)
	preds = append(preds, extra...)

	out := make([]model.ScalingGroupRecord, 0, len(records))
	for _, r := range records {
		if passesAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

func passesAll(r model.ScalingGroupRecord, preds []Predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}
