// Package pricing computes the unit price of one order line from the
// product's pricing rule and the customer's option selections. All money
// is integer cents. The engine never errors: cardinality policy (how many
// flavors a rule allows) belongs to the caller, which reads FlavorCount
// and HasFlavorSelection off the result.
package pricing

import (
	"strings"

	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

// SelectedGroup is one option group with the price deltas of the items the
// customer picked in it.
type SelectedGroup struct {
	Name   string
	Deltas []int64
}

type Result struct {
	UnitPriceCents     int64
	FlavorBaseCents    *int64
	ExtrasCents        int64
	HasFlavorSelection bool
	FlavorCount        int
}

// IsFlavorGroup matches the specially-treated "flavors" group, ignoring
// case and any whitespace in the name.
func IsFlavorGroup(name string) bool {
	return strings.EqualFold(strings.Join(strings.Fields(name), ""), "flavors")
}

// Quote prices one unit of a product.
//
// SUM: base price plus every selected delta, flavors included.
// MAX_OPTION: the highest flavor delta replaces the base; extras add on.
// HALF_SUM: each flavor contributes floor(delta/2); extras add on.
func Quote(rule models.PricingRule, basePriceCents int64, groups []SelectedGroup) Result {
	var flavorDeltas []int64
	var extras int64

	for _, g := range groups {
		if rule != models.PricingRuleSum && IsFlavorGroup(g.Name) {
			flavorDeltas = append(flavorDeltas, g.Deltas...)
			continue
		}
		for _, d := range g.Deltas {
			extras += d
		}
	}

	res := Result{
		ExtrasCents:        extras,
		FlavorCount:        len(flavorDeltas),
		HasFlavorSelection: len(flavorDeltas) > 0,
	}

	switch rule {
	case models.PricingRuleMaxOption:
		var flavorBase int64
		for _, d := range flavorDeltas {
			if d > flavorBase {
				flavorBase = d
			}
		}
		if res.HasFlavorSelection {
			res.FlavorBaseCents = &flavorBase
		}
		res.UnitPriceCents = flavorBase + extras

	case models.PricingRuleHalfSum:
		var flavorBase int64
		if len(flavorDeltas) == 1 {
			flavorBase = flavorDeltas[0]
		} else {
			// Floor division happens per flavor, then the halves are
			// summed: 301/501 prices as 150+250=400, not floor(802/2)=401.
			for _, d := range flavorDeltas {
				flavorBase += d / 2
			}
		}
		if res.HasFlavorSelection {
			res.FlavorBaseCents = &flavorBase
		}
		res.UnitPriceCents = flavorBase + extras

	default: // SUM
		res.UnitPriceCents = basePriceCents + extras
	}

	return res
}
