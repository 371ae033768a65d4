package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	mcfg "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"everystreet/pkg/apperror"
	"everystreet/pkg/config"
	"everystreet/pkg/domain"
)

// PDFExporter печатная маршрутная книжка
type PDFExporter struct {
	BaseExporter
	cfg config.PDFConfig
}

// NewPDFExporter создаёт новый экспортёр
func NewPDFExporter(cfg config.PDFConfig) *PDFExporter {
	return &PDFExporter{cfg: cfg}
}

// Format возвращает формат экспортёра
func (g *PDFExporter) Format() string {
	return FormatPDF
}

// Стили
var (
	// Цвета
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	warningColor   = &props.Color{Red: 243, Green: 156, Blue: 18}  // #f39c12
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	// Стили текста
	titleStyle = props.Text{
		Size:  24,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   5,
	}

	normalStyle = props.Text{
		Size: 10,
	}

	boldStyle = props.Text{
		Size:  10,
		Style: fontstyle.Bold,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  9,
		Align: align.Center,
		Color: darkGrayColor,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}

	tableCellTextStyle = props.Text{
		Size:  9,
		Align: align.Center,
	}
)

// Export генерирует PDF маршрутную книжку
func (g *PDFExporter) Export(ctx context.Context, data *RouteData) ([]byte, error) {
	m := maroto.New(g.buildConfig())

	g.addHeader(m, data)
	g.addOverview(m, data)
	g.addEndpoints(m, data)
	g.addSteps(m, data)
	g.addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExportFailure, "failed to render pdf route book")
	}

	return doc.GetBytes(), nil
}

func (g *PDFExporter) buildConfig() *entity.Config {
	builder := mcfg.NewBuilder().
		WithPageSize(g.pageSize()).
		WithOrientation(g.pageOrientation())

	if g.cfg.EnablePageNumbers {
		builder = builder.WithPageNumber()
	}
	if g.cfg.MarginTop > 0 {
		builder = builder.WithTopMargin(g.cfg.MarginTop)
	}
	if g.cfg.MarginBottom > 0 {
		builder = builder.WithBottomMargin(g.cfg.MarginBottom)
	}
	if g.cfg.MarginLeft > 0 {
		builder = builder.WithLeftMargin(g.cfg.MarginLeft)
	}
	if g.cfg.MarginRight > 0 {
		builder = builder.WithRightMargin(g.cfg.MarginRight)
	}

	return builder.Build()
}

func (g *PDFExporter) pageSize() pagesize.Type {
	switch strings.ToLower(g.cfg.PageSize) {
	case "letter":
		return pagesize.Letter
	case "legal":
		return pagesize.Legal
	case "a3":
		return pagesize.A3
	default:
		return pagesize.A4
	}
}

func (g *PDFExporter) pageOrientation() orientation.Type {
	if strings.ToLower(g.cfg.Orientation) == "landscape" {
		return orientation.Horizontal
	}
	return orientation.Vertical
}

func (g *PDFExporter) addHeader(m core.Maroto, data *RouteData) {
	m.AddRow(15,
		text.NewCol(12, g.Title(data), titleStyle),
	)

	m.AddRow(5,
		line.NewCol(12),
	)

	// Метаданные прогона
	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Run: %s", data.RunID), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", g.FormatTimestamp(g.GeneratedAt(data))),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)

	m.AddRow(5,
		text.NewCol(12, fmt.Sprintf("Service mode: %s | %s", data.Mode, g.FormatClosed(data.Closed)), smallStyle),
	)

	m.AddRow(8) // Отступ
}

func (g *PDFExporter) addOverview(m core.Maroto, data *RouteData) {
	s := data.Summary
	if s == nil {
		return
	}

	g.addSection(m, "Route Overview")

	g.addMetricCards(m, []metricCard{
		{Label: "Total Length", Value: g.FormatKilometers(s.TotalLength), Highlight: true},
		{Label: "Overhead", Value: g.FormatPercent(s.Overhead), Highlight: true},
	})

	m.AddRow(5)
	g.addMetricCards(m, []metricCard{
		{Label: "Steps", Value: fmt.Sprintf("%d", s.Steps)},
		{Label: "Required", Value: fmt.Sprintf("%d", s.RequiredSteps)},
		{Label: "Connectors", Value: fmt.Sprintf("%d", s.ConnectorSteps)},
		{Label: "Duplicates", Value: fmt.Sprintf("%d", s.DuplicateSteps)},
	})

	m.AddRow(5)
	g.addKeyValueTable(m, []keyValue{
		{"Required Length", g.FormatKilometers(s.RequiredLength)},
		{"Connector Length", g.FormatKilometers(s.ConnectorLength)},
		{"Duplicate Length", g.FormatKilometers(s.DuplicateLength)},
	})
}

func (g *PDFExporter) addEndpoints(m core.Maroto, data *RouteData) {
	g.addSection(m, "Endpoints")

	items := []keyValue{
		{"Start Node", fmt.Sprintf("%d", data.StartNode)},
		{"End Node", fmt.Sprintf("%d", data.EndNode)},
	}
	if data.StartSnap != nil {
		items = append(items, keyValue{"Start Snap", data.StartSnap.String()})
	}
	if data.EndSnap != nil {
		items = append(items, keyValue{"End Snap", data.EndSnap.String()})
	}
	g.addKeyValueTable(m, items)
}

func (g *PDFExporter) addSteps(m core.Maroto, data *RouteData) {
	if len(data.Steps) == 0 {
		return
	}

	g.addSection(m, "Turn-by-turn Steps")

	// Заголовок таблицы
	m.AddRow(8,
		text.NewCol(1, "#", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "From", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "To", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Kind", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Street", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(2, "Length", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)

	// Данные (ограничиваем количество для PDF)
	maxRows := 40
	for i, step := range data.Steps {
		if i >= maxRows {
			m.AddRow(6,
				text.NewCol(12, fmt.Sprintf("... and %d more steps", len(data.Steps)-maxRows), smallStyle),
			)
			break
		}

		kindStyle := tableCellTextStyle
		switch step.Kind {
		case domain.KindRequired:
			kindStyle.Color = successColor
		case domain.KindConnector:
			kindStyle.Color = warningColor
		case domain.KindDuplicate:
			kindStyle.Color = dangerColor
		}

		m.AddRow(6,
			text.NewCol(1, fmt.Sprintf("%d", i+1), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, fmt.Sprintf("%d", step.From), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, fmt.Sprintf("%d", step.To), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, string(step.Kind), kindStyle).WithStyle(tableCellStyle),
			text.NewCol(3, g.StreetName(step), tableCellTextStyle).WithStyle(tableCellStyle),
			text.NewCol(2, g.FormatMeters(step.Attrs.Length), tableCellTextStyle).WithStyle(tableCellStyle),
		)
	}
}

// === Вспомогательные методы ===

type metricCard struct {
	Label     string
	Value     string
	Highlight bool
}

func (g *PDFExporter) addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}

	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	var cols []core.Col
	for _, card := range cards {
		valueStyle := metricValueStyle
		if !card.Highlight {
			valueStyle.Size = 14
		}

		cols = append(cols,
			col.New(colSize).Add(
				text.New(card.Value, valueStyle),
				text.New(card.Label, metricLabelStyle),
			),
		)
	}

	m.AddRow(20, cols...)
}

type keyValue struct {
	Key   string
	Value string
}

func (g *PDFExporter) addKeyValueTable(m core.Maroto, items []keyValue) {
	for _, item := range items {
		m.AddRow(6,
			text.NewCol(4, item.Key, boldStyle),
			text.NewCol(8, item.Value, normalStyle),
		)
	}
}

func (g *PDFExporter) addSection(m core.Maroto, title string) {
	m.AddRow(10,
		text.NewCol(12, title, h2Style),
	)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: primaryColor}),
	)
	m.AddRow(5)
}

func (g *PDFExporter) addFooter(m core.Maroto, data *RouteData) {
	m.AddRow(10)
	m.AddRow(2,
		line.NewCol(12, props.Line{Color: lightGrayColor}),
	)
	m.AddRow(6,
		text.NewCol(12,
			fmt.Sprintf("Generated by everystreet | run %s | %s", data.RunID, g.FormatTimestamp(g.GeneratedAt(data))),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}
