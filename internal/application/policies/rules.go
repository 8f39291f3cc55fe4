package policies

import "github.com/google/uuid"

// Rule decides whether actor may act on resource. Rules are plain functions
// and compose with All, Any and Not.
type Rule[R any] func(actor uuid.UUID, resource R) bool

// All allows only when every rule allows. An empty All allows.
func All[R any](rules ...Rule[R]) Rule[R] {
	return func(actor uuid.UUID, resource R) bool {
		for _, rule := range rules {
			if !rule(actor, resource) {
				return false
			}
		}
		return true
	}
}

// Any allows when at least one rule allows. An empty Any denies.
func Any[R any](rules ...Rule[R]) Rule[R] {
	return func(actor uuid.UUID, resource R) bool {
		for _, rule := range rules {
			if rule(actor, resource) {
				return true
			}
		}
		return false
	}
}

func Not[R any](rule Rule[R]) Rule[R] {
	return func(actor uuid.UUID, resource R) bool {
		return !rule(actor, resource)
	}
}
