package workbook

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// WriteSample generates a small workbook in the expected layout:
// config cell in A1, headers in row 2, a handful of product rows with
// two days of seeded history. Useful as a starting point and in
// documentation.
func WriteSample(path string, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	yesterday := now.AddDate(0, 0, -1).Format(dateCellLabel)
	dayBefore := now.AddDate(0, 0, -2).Format(dateCellLabel)

	if err := f.SetCellValue(sheet, "A1", "link_column=0;var1_column=1;var2_column=2;discount_column=3"); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}

	header := []interface{}{"Link", "Phân loại 1", "Phân loại 2", "% Giảm giá", dayBefore, yesterday}
	if err := f.SetSheetRow(sheet, "A2", &header); err != nil {
		return fmt.Errorf("write sample header: %w", err)
	}

	rows := [][]interface{}{
		{"https://shopee.vn/iPhone-14-Pro-Max-128GB-i.88201679.18932132659", "Đen", "128GB", "", 27600000, 27500000},
		{"https://shopee.vn/Apple-MacBook-Air-13-M2-2022-i.88201679.10882029466", "Xám", "256GB", "", 21600000, 21500000},
		{"https://shopee.vn/Tai-nghe-Apple-AirPods-Pro-2-i.88201679.11893691238", "", "", "", 5600000, 5590000},
		{"https://shopee.vn/Apple-iPad-Gen-10-10.9-inch-i.88201679.19848766397", "Bạc", "64GB", "", 9300000, 9200000},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, firstDataRow+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write sample row %d: %w", firstDataRow+i, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save sample workbook: %w", err)
	}
	return nil
}
