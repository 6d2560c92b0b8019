package businessflow

import (
	"context"
	"strconv"

	"github.com/amirphl/crud-project/utils"
	"github.com/xuri/excelize/v2"
)

const demoExportFilename = "demos.xlsx"

// Export renders the demos matching search as an xlsx workbook
func (f *DemoFlowImpl) Export(ctx context.Context, search string) (string, []byte, error) {
	demos, err := f.list(ctx, search)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_DEMOS_FAILED", "Failed to fetch demos for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := utils.ExportSheetName
	if err := xl.SetSheetName(xl.GetSheetName(0), sheet); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to prepare Excel sheet", err)
	}

	header := []string{"id", "name", "description", "price", "category"}
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel header", err)
	}

	for i, d := range demos {
		record := []any{
			d.ID,
			d.Name,
			d.Description,
			d.Price,
			d.Category,
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to address row "+strconv.Itoa(i+2), err)
		}
		if err := xl.SetSheetRow(sheet, cellRef, &record); err != nil {
			return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel row", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return demoExportFilename, buf.Bytes(), nil
}
