package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"everystreet/pkg/apperror"
	"everystreet/pkg/domain"
)

// HTMLExporter интерактивная страница с Mermaid диаграммой порядка обхода
type HTMLExporter struct {
	BaseExporter
}

// NewHTMLExporter создаёт новый экспортёр
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{}
}

// Format возвращает формат экспортёра
func (g *HTMLExporter) Format() string {
	return FormatHTML
}

// Export генерирует HTML страницу обхода
func (g *HTMLExporter) Export(ctx context.Context, data *RouteData) ([]byte, error) {
	if len(data.Steps) == 0 {
		return nil, apperror.New(apperror.CodeExportFailure, "route has no steps to export")
	}

	tmpl, err := template.New("route").Funcs(template.FuncMap{
		"formatFloat":   func(v float64, p int) string { return fmt.Sprintf("%.*f", p, v) },
		"formatPercent": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
		"formatKm":      func(v float64) string { return fmt.Sprintf("%.2f km", v/1000) },
	}).Parse(htmlTemplate)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExportFailure, "failed to parse html template")
	}

	templateData := map[string]any{
		"Title":     g.Title(data),
		"RunID":     data.RunID,
		"Mode":      data.Mode,
		"Generated": g.FormatTimestamp(g.GeneratedAt(data)),
		"RouteType": g.FormatClosed(data.Closed),
		"StartNode": data.StartNode,
		"EndNode":   data.EndNode,
		"Summary":   data.Summary,
		"StartSnap": data.StartSnap,
		"EndSnap":   data.EndSnap,
		// Диаграмма собрана из чисел и фиксированных меток, экранировать нечего
		"Diagram":  template.HTML(mermaidDiagram(data.Steps)),
		"Sequence": traversalSequence(data.Steps),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExportFailure, "failed to execute html template")
	}

	return buf.Bytes(), nil
}

// mermaidDiagram строит текст flowchart по шагам обхода. Узлы получают
// короткие идентификаторы n0, n1, ... в порядке первого появления, стрелки
// подписываются номером шага и происхождением ребра.
func mermaidDiagram(steps []domain.RouteStep) string {
	ids := make(map[int64]string)
	var order []int64
	assign := func(node int64) {
		if _, ok := ids[node]; !ok {
			ids[node] = fmt.Sprintf("n%d", len(order))
			order = append(order, node)
		}
	}
	for _, step := range steps {
		assign(step.From)
		assign(step.To)
	}

	var b strings.Builder
	b.WriteString("flowchart LR\n")
	for _, node := range order {
		fmt.Fprintf(&b, "  %s[\"%d\"]\n", ids[node], node)
	}
	for i, step := range steps {
		fmt.Fprintf(&b, "  %s -->|\"%d: %s\"| %s\n", ids[step.From], i+1, step.Kind, ids[step.To])
	}
	return b.String()
}

// traversalSequence возвращает порядок узлов обхода одной строкой
func traversalSequence(steps []domain.RouteStep) string {
	nodes := domain.RouteNodes(steps)
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = strconv.FormatInt(n, 10)
	}
	return strings.Join(parts, " → ")
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * { box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            border-radius: 8px;
            padding: 30px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
            margin-bottom: 20px;
        }
        h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
        h2 { color: #34495e; border-bottom: 1px solid #ecf0f1; padding-bottom: 8px; margin-top: 30px; }
        .meta { color: #7f8c8d; font-size: 0.9em; margin-bottom: 20px; }
        .metric-box {
            display: inline-block;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 15px 25px;
            border-radius: 8px;
            margin: 5px;
            min-width: 150px;
        }
        .metric-box .label { font-size: 0.85em; opacity: 0.9; }
        .metric-box .value { font-size: 1.8em; font-weight: bold; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 15px; }
        .card {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 8px;
            border: 1px solid #e9ecef;
        }
        .card-label { font-size: 0.85em; color: #6c757d; }
        .card-value { font-size: 1.2em; font-weight: 600; color: #495057; }
        .sequence {
            font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, monospace;
            font-size: 13px;
            line-height: 1.6;
            word-break: break-word;
        }
        .footer {
            margin-top: 40px;
            padding-top: 20px;
            border-top: 1px solid #ecf0f1;
            color: #7f8c8d;
            font-size: 0.85em;
            text-align: center;
        }
    </style>
    <script src="https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"></script>
    <script>
      mermaid.initialize({ startOnLoad: true });
    </script>
</head>
<body>
<div class="container">
    <h1>{{.Title}}</h1>
    <div class="meta">
        <p><strong>Run:</strong> {{.RunID}} | <strong>Mode:</strong> {{.Mode}} | <strong>Generated:</strong> {{.Generated}}</p>
        {{if .StartSnap}}<p><strong>Start snap:</strong> {{.StartSnap}}</p>{{end}}
        {{if .EndSnap}}<p><strong>End snap:</strong> {{.EndSnap}}</p>{{end}}
    </div>

    {{if .Summary}}
    <div>
        <div class="metric-box">
            <div class="label">Total Length</div>
            <div class="value">{{formatKm .Summary.TotalLength}}</div>
        </div>
        <div class="metric-box">
            <div class="label">Overhead</div>
            <div class="value">{{formatPercent .Summary.Overhead}}</div>
        </div>
    </div>

    <div class="grid" style="margin-top: 20px;">
        <div class="card">
            <div class="card-label">Steps</div>
            <div class="card-value">{{.Summary.Steps}}</div>
        </div>
        <div class="card">
            <div class="card-label">Required</div>
            <div class="card-value">{{.Summary.RequiredSteps}}</div>
        </div>
        <div class="card">
            <div class="card-label">Connectors</div>
            <div class="card-value">{{.Summary.ConnectorSteps}}</div>
        </div>
        <div class="card">
            <div class="card-label">Duplicates</div>
            <div class="card-value">{{.Summary.DuplicateSteps}}</div>
        </div>
        <div class="card">
            <div class="card-label">Start Node</div>
            <div class="card-value">{{.StartNode}}</div>
        </div>
        <div class="card">
            <div class="card-label">End Node</div>
            <div class="card-value">{{.EndNode}}</div>
        </div>
        <div class="card">
            <div class="card-label">Route Type</div>
            <div class="card-value">{{.RouteType}}</div>
        </div>
    </div>
    {{end}}
</div>

<div class="container">
    <h2>Traversal Diagram</h2>
    <div class="mermaid">
{{.Diagram}}
    </div>
</div>

<div class="container">
    <h2>Node Traversal Sequence</h2>
    <div class="sequence">{{.Sequence}}</div>
</div>

<div class="footer">
    <p>Generated by everystreet | {{.Generated}}</p>
</div>
</body>
</html>`
