// Package export выгружает готовый обход в форматы GPX, XLSX, PDF, HTML и CSV.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"everystreet/pkg/apperror"
	"everystreet/pkg/config"
	"everystreet/pkg/domain"
)

// Поддерживаемые форматы выгрузки.
const (
	FormatGPX  = "gpx"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
	FormatHTML = "html"
	FormatCSV  = "csv"
)

// RouteData данные для выгрузки маршрута
type RouteData struct {
	RunID       string
	Area        string
	Mode        string
	GeneratedAt time.Time

	// Steps шаги обхода в порядке следования
	Steps   []domain.RouteStep
	Summary *domain.RouteSummary

	// Nodes координаты всех узлов, встречающихся в шагах
	Nodes map[int64]domain.Node

	StartNode int64
	EndNode   int64
	Closed    bool

	// StartSnap и EndSnap записи привязки, nil если точка не запрашивалась
	StartSnap *domain.SnapRecord
	EndSnap   *domain.SnapRecord
}

// Node возвращает узел по идентификатору
func (d *RouteData) Node(id int64) (domain.Node, bool) {
	n, ok := d.Nodes[id]
	return n, ok
}

// Exporter интерфейс выгрузки маршрута
type Exporter interface {
	Export(ctx context.Context, data *RouteData) ([]byte, error)
	Format() string
}

// New создаёт экспортёр для указанного формата
func New(format string, cfg config.ExportConfig) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatGPX:
		return NewGPXExporter(cfg.GPX), nil
	case FormatXLSX:
		return NewExcelExporter(), nil
	case FormatPDF:
		return NewPDFExporter(cfg.PDF), nil
	case FormatHTML:
		return NewHTMLExporter(), nil
	case FormatCSV:
		return NewCSVExporter(), nil
	default:
		return nil, apperror.New(apperror.CodeUnsupportedFormat,
			fmt.Sprintf("unsupported export format %q", format))
	}
}

// BaseExporter базовые утилиты для экспортёров
type BaseExporter struct{}

// Title возвращает заголовок документа
func (b *BaseExporter) Title(data *RouteData) string {
	if data.Area != "" {
		return fmt.Sprintf("Every Street Route: %s", data.Area)
	}
	return "Every Street Route"
}

// Subtitle возвращает строку метаданных прогона
func (b *BaseExporter) Subtitle(data *RouteData) string {
	return fmt.Sprintf("mode=%s | run=%s", data.Mode, data.RunID)
}

// StreetName возвращает название улицы шага или заглушку
func (b *BaseExporter) StreetName(step domain.RouteStep) string {
	if step.Attrs.Name != "" {
		return step.Attrs.Name
	}
	return "(unnamed)"
}

// FormatFloat форматирует число с заданной точностью
func (b *BaseExporter) FormatFloat(v float64, precision int) string {
	return fmt.Sprintf("%.*f", precision, v)
}

// FormatMeters форматирует длину в метрах
func (b *BaseExporter) FormatMeters(v float64) string {
	return fmt.Sprintf("%.1f m", v)
}

// FormatKilometers форматирует длину в километрах
func (b *BaseExporter) FormatKilometers(v float64) string {
	return fmt.Sprintf("%.2f km", v/1000)
}

// FormatPercent форматирует долю как процент
func (b *BaseExporter) FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// FormatTimestamp форматирует время
func (b *BaseExporter) FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// FormatClosed возвращает человекочитаемый вид признака замкнутости
func (b *BaseExporter) FormatClosed(closed bool) string {
	if closed {
		return "closed loop"
	}
	return "open route"
}

// GeneratedAt возвращает время генерации, по умолчанию текущее
func (b *BaseExporter) GeneratedAt(data *RouteData) time.Time {
	if data.GeneratedAt.IsZero() {
		return time.Now()
	}
	return data.GeneratedAt
}
