package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// ExcelExporter маршрутный лист в формате XLSX
type ExcelExporter struct {
	BaseExporter
}

// NewExcelExporter создаёт новый экспортёр
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Format возвращает формат экспортёра
func (g *ExcelExporter) Format() string {
	return FormatXLSX
}

// Export генерирует книгу из двух листов: сводка прогона и таблица шагов
func (g *ExcelExporter) Export(ctx context.Context, data *RouteData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	g.writeSummarySheet(f, data, headerStyle)
	g.writeStepsSheet(f, data, headerStyle)

	// Удаляем дефолтный лист после создания своих
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExportFailure, "failed to write xlsx workbook")
	}

	return buf.Bytes(), nil
}

func (g *ExcelExporter) writeSummarySheet(f *excelize.File, data *RouteData, headerStyle int) {
	sheetName := "Route Summary"
	f.NewSheet(sheetName)

	row := 1

	// Заголовок
	f.SetCellValue(sheetName, cellAddr("A", row), g.Title(data))
	f.MergeCell(sheetName, cellAddr("A", row), cellAddr("D", row))
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), g.Subtitle(data))
	f.MergeCell(sheetName, cellAddr("A", row), cellAddr("D", row))
	row += 2

	// Информация о прогоне
	f.SetCellValue(sheetName, cellAddr("A", row), "Route Information")
	f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Generated")
	f.SetCellValue(sheetName, cellAddr("B", row), g.FormatTimestamp(g.GeneratedAt(data)))
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Mode")
	f.SetCellValue(sheetName, cellAddr("B", row), data.Mode)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Start Node")
	f.SetCellValue(sheetName, cellAddr("B", row), data.StartNode)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "End Node")
	f.SetCellValue(sheetName, cellAddr("B", row), data.EndNode)
	row++

	f.SetCellValue(sheetName, cellAddr("A", row), "Route Type")
	f.SetCellValue(sheetName, cellAddr("B", row), g.FormatClosed(data.Closed))
	row += 2

	// Привязка конечных точек
	if data.StartSnap != nil || data.EndSnap != nil {
		f.SetCellValue(sheetName, cellAddr("A", row), "Endpoint Snapping")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("E", row), headerStyle)
		row++

		headers := []string{"Point", "Requested", "Snapped Node", "Distance", "Strategy"}
		for i, h := range headers {
			f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), row), h)
		}
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("E", row), headerStyle)
		row++

		if rec := data.StartSnap; rec != nil {
			g.writeSnapRow(f, sheetName, row, "start", rec)
			row++
		}
		if rec := data.EndSnap; rec != nil {
			g.writeSnapRow(f, sheetName, row, "end", rec)
			row++
		}
		row++
	}

	// Итоги обхода
	if s := data.Summary; s != nil {
		f.SetCellValue(sheetName, cellAddr("A", row), "Totals")
		f.SetCellStyle(sheetName, cellAddr("A", row), cellAddr("B", row), headerStyle)
		row++

		totals := []struct {
			name  string
			value any
		}{
			{"Steps", s.Steps},
			{"Required Steps", s.RequiredSteps},
			{"Connector Steps", s.ConnectorSteps},
			{"Duplicate Steps", s.DuplicateSteps},
			{"Total Length", g.FormatKilometers(s.TotalLength)},
			{"Required Length", g.FormatKilometers(s.RequiredLength)},
			{"Connector Length", g.FormatKilometers(s.ConnectorLength)},
			{"Duplicate Length", g.FormatKilometers(s.DuplicateLength)},
			{"Overhead", g.FormatPercent(s.Overhead)},
		}
		for _, t := range totals {
			f.SetCellValue(sheetName, cellAddr("A", row), t.name)
			f.SetCellValue(sheetName, cellAddr("B", row), t.value)
			row++
		}
	}

	f.SetColWidth(sheetName, "A", "E", 22)
}

func (g *ExcelExporter) writeSnapRow(f *excelize.File, sheetName string, row int, label string, rec *domain.SnapRecord) {
	f.SetCellValue(sheetName, cellAddr("A", row), label)
	f.SetCellValue(sheetName, cellAddr("B", row), fmt.Sprintf("(%.6f, %.6f)", rec.RequestedLat, rec.RequestedLon))
	f.SetCellValue(sheetName, cellAddr("C", row), rec.NodeID)
	f.SetCellValue(sheetName, cellAddr("D", row), g.FormatMeters(rec.Distance))
	f.SetCellValue(sheetName, cellAddr("E", row), string(rec.Strategy))
}

func (g *ExcelExporter) writeStepsSheet(f *excelize.File, data *RouteData, headerStyle int) {
	sheetName := "Steps"
	f.NewSheet(sheetName)

	headers := []string{"#", "From", "To", "Kind", "Street", "Highway", "Length (m)", "Way ID"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", "H1", headerStyle)

	for i, step := range data.Steps {
		row := i + 2
		f.SetCellValue(sheetName, cellAddr("A", row), i+1)
		f.SetCellValue(sheetName, cellAddr("B", row), step.From)
		f.SetCellValue(sheetName, cellAddr("C", row), step.To)
		f.SetCellValue(sheetName, cellAddr("D", row), string(step.Kind))
		f.SetCellValue(sheetName, cellAddr("E", row), g.StreetName(step))
		f.SetCellValue(sheetName, cellAddr("F", row), step.Attrs.Highway)
		f.SetCellValue(sheetName, cellAddr("G", row), step.Attrs.Length)
		f.SetCellValue(sheetName, cellAddr("H", row), step.Attrs.WayID)
	}

	f.SetColWidth(sheetName, "A", "A", 6)
	f.SetColWidth(sheetName, "B", "C", 14)
	f.SetColWidth(sheetName, "D", "D", 12)
	f.SetColWidth(sheetName, "E", "E", 28)
	f.SetColWidth(sheetName, "F", "H", 14)
}

// cellAddr формирует адрес ячейки
func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
