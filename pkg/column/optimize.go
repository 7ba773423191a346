package column

import (
	"fmt"

	"github.com/aretw0/tower/pkg/domain"
)

// Product selects the column outlet a purity target applies to.
type Product string

const (
	ProductTop    Product = "top"
	ProductBottom Product = "bottom"
)

// PuritySpec asks for at least MinFraction of Component in Product.
type PuritySpec struct {
	Component   string  `json:"component" yaml:"component"`
	MinFraction float64 `json:"min_fraction" yaml:"min_fraction"`
	Product     Product `json:"product" yaml:"product"`
}

// Met reports whether res satisfies the spec.
func (p PuritySpec) Met(res *domain.Result) bool {
	stream := res.Top
	if p.Product == ProductBottom {
		stream = res.Bottom
	}
	return stream.MoleFraction(p.Component) >= p.MinFraction
}

// Builder returns a fully fed column with the given number of trays.
type Builder func(trays int) (*Column, error)

// OptimalTrayCount solves columns with 1..maxTrays trays and returns the first count whose
// converged solution meets spec, together with that solution. It returns -1 and the last
// result when no count qualifies.
func OptimalTrayCount(build Builder, spec PuritySpec, maxTrays int) (int, *domain.Result, error) {
	if maxTrays < 1 {
		return -1, nil, &domain.ConfigError{Field: "max_trays", Value: maxTrays, Reason: "must be at least 1"}
	}
	if spec.Product != ProductTop && spec.Product != ProductBottom {
		return -1, nil, &domain.ConfigError{Field: "product", Value: spec.Product, Reason: "must be top or bottom"}
	}

	var last *domain.Result
	for trays := 1; trays <= maxTrays; trays++ {
		col, err := build(trays)
		if err != nil {
			return -1, nil, fmt.Errorf("failed to build column with %d trays: %w", trays, err)
		}
		res, err := col.Run()
		if err != nil {
			return -1, nil, fmt.Errorf("failed to solve column with %d trays: %w", trays, err)
		}
		last = res
		if res.Diagnostics.Converged && spec.Met(res) {
			col.logger.Info("tray count found", "trays", trays, "component", spec.Component,
				"fraction", spec.fraction(res))
			return trays, res, nil
		}
		col.logger.Debug("tray count rejected", "trays", trays, "converged", res.Diagnostics.Converged,
			"fraction", spec.fraction(res))
	}
	return -1, last, nil
}

func (p PuritySpec) fraction(res *domain.Result) float64 {
	if p.Product == ProductBottom {
		return res.Bottom.MoleFraction(p.Component)
	}
	return res.Top.MoleFraction(p.Component)
}
