package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"everystreet/pkg/apperror"
)

// CSVExporter плоская выгрузка маршрутного листа
type CSVExporter struct {
	BaseExporter
}

// NewCSVExporter создаёт новый экспортёр
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Format возвращает формат экспортёра
func (g *CSVExporter) Format() string {
	return FormatCSV
}

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record []string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() {
	if cw.err != nil {
		return
	}
	cw.w.Flush()
	cw.err = cw.w.Error()
}

func (cw *csvWriter) Error() error {
	return cw.err
}

// Export генерирует CSV маршрутный лист
func (g *CSVExporter) Export(ctx context.Context, data *RouteData) ([]byte, error) {
	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	g.writeHeader(cw, data)
	g.writeSummary(cw, data)
	g.writeSteps(cw, data)

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExportFailure, "csv write error")
	}

	return buf.Bytes(), nil
}

func (g *CSVExporter) writeHeader(w *csvWriter, data *RouteData) {
	w.Write([]string{"# " + g.Title(data)})
	w.Write([]string{""})

	w.Write([]string{"Route Information"})
	w.Write([]string{"Run", data.RunID})
	w.Write([]string{"Mode", data.Mode})
	w.Write([]string{"Generated", g.FormatTimestamp(g.GeneratedAt(data))})
	w.Write([]string{"Start Node", fmt.Sprintf("%d", data.StartNode)})
	w.Write([]string{"End Node", fmt.Sprintf("%d", data.EndNode)})
	w.Write([]string{"Route Type", g.FormatClosed(data.Closed)})

	if rec := data.StartSnap; rec != nil {
		w.Write([]string{"Start Snap", rec.String()})
	}
	if rec := data.EndSnap; rec != nil {
		w.Write([]string{"End Snap", rec.String()})
	}
	w.Write([]string{""})
}

func (g *CSVExporter) writeSummary(w *csvWriter, data *RouteData) {
	s := data.Summary
	if s == nil {
		return
	}

	w.Write([]string{"Totals"})
	w.Write([]string{"Steps", fmt.Sprintf("%d", s.Steps)})
	w.Write([]string{"Required Steps", fmt.Sprintf("%d", s.RequiredSteps)})
	w.Write([]string{"Connector Steps", fmt.Sprintf("%d", s.ConnectorSteps)})
	w.Write([]string{"Duplicate Steps", fmt.Sprintf("%d", s.DuplicateSteps)})
	w.Write([]string{"Total Length (m)", g.FormatFloat(s.TotalLength, 1)})
	w.Write([]string{"Required Length (m)", g.FormatFloat(s.RequiredLength, 1)})
	w.Write([]string{"Connector Length (m)", g.FormatFloat(s.ConnectorLength, 1)})
	w.Write([]string{"Duplicate Length (m)", g.FormatFloat(s.DuplicateLength, 1)})
	w.Write([]string{"Overhead", g.FormatFloat(s.Overhead, 4)})
	w.Write([]string{""})
}

func (g *CSVExporter) writeSteps(w *csvWriter, data *RouteData) {
	if len(data.Steps) == 0 {
		return
	}

	w.Write([]string{"Steps"})
	w.Write([]string{"#", "From", "To", "Kind", "Street", "Highway", "Length (m)", "Way ID"})
	for i, step := range data.Steps {
		w.Write([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", step.From),
			fmt.Sprintf("%d", step.To),
			string(step.Kind),
			g.StreetName(step),
			step.Attrs.Highway,
			g.FormatFloat(step.Attrs.Length, 1),
			wayID(step.Attrs.WayID),
		})
	}
}

func wayID(id int64) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprintf("%d", id)
}
