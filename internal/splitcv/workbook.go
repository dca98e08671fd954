package splitcv

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/salesboard/salesboard/internal/platform/httpx"
)

// ResultSheet is the worksheet name of the downloadable result.
const ResultSheet = "Hasil Split CV"

// ErrUnreadable is returned for uploads excelize cannot open.
var ErrUnreadable = fmt.Errorf("splitcv: not a readable .xlsx workbook: %w", httpx.ErrValidation)

// Sheet is the first worksheet of an upload with raw cell values.
type Sheet struct {
	Header  []string
	Records [][]string
	index   map[string]int
}

// Value returns the cell of rec under column, or "".
func (s *Sheet) Value(rec []string, column string) string {
	i, ok := s.index[column]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// ReadSheet opens an .xlsx upload and checks the header row.
func ReadSheet(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ErrUnreadable
	}
	defer func() { _ = f.Close() }()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrUnreadable
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("splitcv: read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, &MissingColumnsError{Columns: RequiredColumns}
	}

	sheet := &Sheet{Header: rows[0], index: make(map[string]int, len(rows[0]))}
	for i, h := range rows[0] {
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, dup := sheet.index[key]; !dup {
			sheet.index[key] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := sheet.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	for _, rec := range rows[1:] {
		if emptyRecord(rec) {
			continue
		}
		sheet.Records = append(sheet.Records, rec)
	}
	return sheet, nil
}

// WriteResult writes the upload's columns plus the computed ones to w as .xlsx.
func WriteResult(w io.Writer, sheet *Sheet, res Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ResultSheet); err != nil {
		return fmt.Errorf("splitcv: rename sheet: %w", err)
	}

	header := make([]any, 0, len(sheet.Header)+3)
	for _, h := range sheet.Header {
		header = append(header, h)
	}
	header = append(header, ColSplitPlanA, ColSplitRO, ColBalanceBF)
	if err := f.SetSheetRow(ResultSheet, "A1", &header); err != nil {
		return fmt.Errorf("splitcv: write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("splitcv: header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(ResultSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("splitcv: header style: %w", err)
	}

	numeric := map[int]func(Row) float64{
		sheet.index[ColCVPlanA]:    func(r Row) float64 { return r.CVPlanA.InexactFloat64() },
		sheet.index[ColCVRO]:       func(r Row) float64 { return r.CVRO.InexactFloat64() },
		sheet.index[ColTotalCVCF]:  func(r Row) float64 { return r.TotalCVCF.InexactFloat64() },
		sheet.index[ColBalanceCF]:  func(r Row) float64 { return r.BalanceCF.InexactFloat64() },
		sheet.index[ColGrandTotal]: func(r Row) float64 { return r.GrandTotal.InexactFloat64() },
	}
	for i, row := range res.Rows {
		rec := sheet.Records[i]
		values := make([]any, 0, len(header))
		for c := range sheet.Header {
			switch {
			case numeric[c] != nil:
				values = append(values, numeric[c](row))
			case c < len(rec):
				values = append(values, rec[c])
			default:
				values = append(values, "")
			}
		}
		values = append(values, row.SplitPlanA.InexactFloat64(), row.SplitRO.InexactFloat64(), row.BalanceBF.InexactFloat64())
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ResultSheet, cell, &values); err != nil {
			return fmt.Errorf("splitcv: write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(ResultSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("splitcv: freeze header: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("splitcv: write workbook: %w", err)
	}
	return nil
}

// ResultFilename names the downloadable workbook at t.
func ResultFilename(t time.Time) string {
	return "hasil_split_cv_" + t.Format("20060102_150405") + ".xlsx"
}

func emptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
