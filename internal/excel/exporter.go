// internal/excel/exporter.go
package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"go_5_review_keep/internal/model"
)

const sheetName = "Items"

var headers = []string{"No", "Name", "State", "Frequency", "Next Reminder", "Awaiting Review", "Image URL", "Created At"}

// Export はアイテム一覧を xlsx ワークブックに書き出します。
// 1行目はヘッダ、以降はアイテムを並び順のまま出力します
func Export(items []model.Item, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("excel.Export: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("excel.Export: %w", err)
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("excel.Export: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("excel.Export: %w", err)
		}
	}

	for row, item := range items {
		seq := ""
		state := string(model.StateActive)
		if item.Archived {
			state = string(model.StateArchived)
			if item.ArchiveSeq != nil {
				seq = fmt.Sprintf("%d", *item.ArchiveSeq)
			}
		} else if item.ActiveSeq != nil {
			seq = fmt.Sprintf("%d", *item.ActiveSeq)
		}

		values := []interface{}{
			seq,
			item.Name,
			state,
			item.FrequencyName,
			item.NextReminder.In(loc).Format("2006-01-02"),
			item.AwaitingReview,
			item.ImageURL,
			item.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("excel.Export: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("excel.Export: %w", err)
			}
		}
	}

	return f, nil
}
