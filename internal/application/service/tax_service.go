package service

import (
	"context"
	"fmt"
	"math"

	"github.com/clearhr/claimflow/internal/domain/entity"
)

// Tax regimes supported by the computation endpoint
const (
	TaxRegimeOld = "OLD"
	TaxRegimeNew = "NEW"
)

// Standard deduction applied to salaried income before slabbing
const (
	standardDeductionOld = 50000.0
	standardDeductionNew = 75000.0
)

// Health and education cess applied on the slab tax
const cessRate = 0.04

// TaxSlab is one progressive bracket. UpTo of zero means unbounded.
type TaxSlab struct {
	UpTo float64 `json:"up_to"`
	Rate float64 `json:"rate"`
}

// TaxComputeInput carries the figures for one computation
type TaxComputeInput struct {
	GrossAnnualIncome float64
	Deductions        float64
	Regime            string
}

// TaxBreakup is the full result of a computation
type TaxBreakup struct {
	Regime            string  `json:"regime"`
	GrossAnnualIncome float64 `json:"gross_annual_income"`
	StandardDeduction float64 `json:"standard_deduction"`
	Deductions        float64 `json:"deductions"`
	TaxableIncome     float64 `json:"taxable_income"`
	SlabTax           float64 `json:"slab_tax"`
	Cess              float64 `json:"cess"`
	TotalTax          float64 `json:"total_tax"`
	MonthlyTDS        float64 `json:"monthly_tds"`
}

var oldRegimeSlabs = []TaxSlab{
	{UpTo: 250000, Rate: 0},
	{UpTo: 500000, Rate: 0.05},
	{UpTo: 1000000, Rate: 0.20},
	{UpTo: 0, Rate: 0.30},
}

var newRegimeSlabs = []TaxSlab{
	{UpTo: 300000, Rate: 0},
	{UpTo: 700000, Rate: 0.05},
	{UpTo: 1000000, Rate: 0.10},
	{UpTo: 1200000, Rate: 0.15},
	{UpTo: 1500000, Rate: 0.20},
	{UpTo: 0, Rate: 0.30},
}

// TaxService computes income tax under the selected regime. It is pure: no
// persistence, identical input always gives identical output.
type TaxService interface {
	Compute(ctx context.Context, actor entity.Actor, input TaxComputeInput) (*TaxBreakup, error)
	Slabs(regime string) ([]TaxSlab, error)
}

type taxServiceImpl struct {
	logger Logger
}

// NewTaxService creates a new TaxService
func NewTaxService(logger Logger) TaxService {
	return &taxServiceImpl{logger: logger}
}

func (s *taxServiceImpl) Compute(ctx context.Context, actor entity.Actor, input TaxComputeInput) (*TaxBreakup, error) {
	if input.GrossAnnualIncome < 0 {
		return nil, fmt.Errorf("%w: gross income is negative", ErrValidation)
	}
	if input.Deductions < 0 {
		return nil, fmt.Errorf("%w: deductions are negative", ErrValidation)
	}

	slabs, err := s.Slabs(input.Regime)
	if err != nil {
		return nil, err
	}

	standard := standardDeductionOld
	claimed := input.Deductions
	if input.Regime == TaxRegimeNew {
		standard = standardDeductionNew
		// Chapter VI-A deductions are not available under the new regime
		claimed = 0
	}

	taxable := input.GrossAnnualIncome - standard - claimed
	if taxable < 0 {
		taxable = 0
	}

	slabTax := applySlabs(taxable, slabs)
	cess := round2(slabTax * cessRate)
	total := round2(slabTax + cess)

	return &TaxBreakup{
		Regime:            input.Regime,
		GrossAnnualIncome: input.GrossAnnualIncome,
		StandardDeduction: standard,
		Deductions:        claimed,
		TaxableIncome:     taxable,
		SlabTax:           slabTax,
		Cess:              cess,
		TotalTax:          total,
		MonthlyTDS:        round2(total / 12),
	}, nil
}

func (s *taxServiceImpl) Slabs(regime string) ([]TaxSlab, error) {
	switch regime {
	case TaxRegimeOld:
		return oldRegimeSlabs, nil
	case TaxRegimeNew:
		return newRegimeSlabs, nil
	default:
		return nil, fmt.Errorf("%w: unknown tax regime %q", ErrValidation, regime)
	}
}

// applySlabs walks the progressive brackets and taxes each band at its rate
func applySlabs(taxable float64, slabs []TaxSlab) float64 {
	var tax float64
	var lower float64
	for _, slab := range slabs {
		upper := slab.UpTo
		if upper == 0 || upper > taxable {
			upper = taxable
		}
		if upper > lower {
			tax += (upper - lower) * slab.Rate
		}
		if slab.UpTo == 0 || taxable <= slab.UpTo {
			break
		}
		lower = slab.UpTo
	}
	return math.Round(tax*100) / 100
}
