package main

import (
	"aiswitch/internal/model"
)

// applyProviderBias puts prefer at the front of order (adding it if the
// configured order lacks it), leaving the rest of the configured order
// intact. An empty or unrecognized prefer returns order unchanged. Used by --prefer to bias a
// single invocation without touching the persisted configuration.
func applyProviderBias(order []model.Provider, prefer string) []model.Provider {
	if prefer == "" {
		return order
	}
	p, ok := model.ParseProvider(prefer)
	if !ok {
		return order
	}
	biased := make([]model.Provider, 0, len(order))
	biased = append(biased, p)
	for _, existing := range order {
		if existing != p {
			biased = append(biased, existing)
		}
	}
	return biased
}
