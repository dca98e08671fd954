// Package splitcv splits member CV between plan A and RO by country.
package splitcv

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/salesboard/salesboard/internal/platform/httpx"
)

// Input column headers.
const (
	ColMemberID   = "MEMBER ID"
	ColMemberName = "MEMBER NAME"
	ColCountry    = "COUNTRY"
	ColCVPlanA    = "CV PLAN A"
	ColCVRO       = "CV RO"
	ColTotalCVCF  = "TOTAL CV C/F"
	ColBalanceCF  = "BALANCE C/F"
	ColGrandTotal = "GRAND TOTAL"
)

// Computed column headers.
const (
	ColSplitPlanA = "SPLIT PLAN A"
	ColSplitRO    = "SPLIT RO"
	ColBalanceBF  = "BALANCE B/F"
)

// RequiredColumns must all be present in the header row.
var RequiredColumns = []string{
	ColMemberID, ColMemberName, ColCountry, ColCVPlanA, ColCVRO, ColTotalCVCF, ColBalanceCF, ColGrandTotal,
}

// DisplayColumns is the result table order.
var DisplayColumns = []string{
	ColMemberID, ColMemberName, ColCountry, ColCVPlanA, ColCVRO, ColSplitPlanA, ColSplitRO,
	ColTotalCVCF, ColBalanceBF, ColBalanceCF, ColGrandTotal,
}

// MissingColumnsError lists required headers absent from the upload.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// Is matches httpx.ErrValidation.
func (e *MissingColumnsError) Is(target error) bool { return target == httpx.ErrValidation }

// ValueError reports a cell that is not a number.
type ValueError struct {
	Line   int
	Column string
	Value  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("row %d, %s: %q is not a number", e.Line, e.Column, e.Value)
}

// Is matches httpx.ErrValidation.
func (e *ValueError) Is(target error) bool { return target == httpx.ErrValidation }

// Ratio is the plan A / RO share applied to a country.
type Ratio struct {
	PlanA decimal.Decimal
	RO    decimal.Decimal
}

var (
	ratioID = Ratio{PlanA: decimal.RequireFromString("0.6"), RO: decimal.RequireFromString("0.4")}
	ratioMY = Ratio{PlanA: decimal.RequireFromString("0.5"), RO: decimal.RequireFromString("0.5")}
)

// RatioFor returns the split for a country code. Unknown countries use the ID split.
func RatioFor(country string) Ratio {
	if strings.ToUpper(strings.TrimSpace(country)) == "MY" {
		return ratioMY
	}
	return ratioID
}

// Row is one computed member line.
type Row struct {
	MemberID   string
	MemberName string
	Country    string
	CVPlanA    decimal.Decimal
	CVRO       decimal.Decimal
	SplitPlanA decimal.Decimal
	SplitRO    decimal.Decimal
	TotalCVCF  decimal.Decimal
	BalanceBF  decimal.Decimal
	BalanceCF  decimal.Decimal
	GrandTotal decimal.Decimal
}

// Totals sums the computed columns.
type Totals struct {
	SplitPlanA decimal.Decimal
	SplitRO    decimal.Decimal
	BalanceBF  decimal.Decimal
	GrandTotal decimal.Decimal
}

// Result is a computed sheet.
type Result struct {
	Rows   []Row
	Totals Totals
}

// Calculate applies the country split to every record of sheet.
func Calculate(sheet *Sheet) (Result, error) {
	res := Result{Rows: make([]Row, 0, len(sheet.Records))}
	for i, rec := range sheet.Records {
		line := i + 2
		row := Row{
			MemberID:   sheet.Value(rec, ColMemberID),
			MemberName: sheet.Value(rec, ColMemberName),
			Country:    strings.ToUpper(sheet.Value(rec, ColCountry)),
		}
		var err error
		for _, f := range []struct {
			col string
			dst *decimal.Decimal
		}{
			{ColCVPlanA, &row.CVPlanA},
			{ColCVRO, &row.CVRO},
			{ColTotalCVCF, &row.TotalCVCF},
			{ColBalanceCF, &row.BalanceCF},
			{ColGrandTotal, &row.GrandTotal},
		} {
			raw := sheet.Value(rec, f.col)
			if *f.dst, err = parseAmount(raw); err != nil {
				return Result{}, &ValueError{Line: line, Column: f.col, Value: raw}
			}
		}

		ratio := RatioFor(row.Country)
		row.SplitPlanA = row.CVPlanA.Mul(ratio.PlanA)
		row.SplitRO = row.CVRO.Mul(ratio.RO)
		row.BalanceBF = row.BalanceCF

		res.Totals.SplitPlanA = res.Totals.SplitPlanA.Add(row.SplitPlanA)
		res.Totals.SplitRO = res.Totals.SplitRO.Add(row.SplitRO)
		res.Totals.BalanceBF = res.Totals.BalanceBF.Add(row.BalanceBF)
		res.Totals.GrandTotal = res.Totals.GrandTotal.Add(row.GrandTotal)
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
