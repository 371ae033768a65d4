package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"everystreet/internal/algorithms"
	"everystreet/internal/graph"
	"everystreet/pkg/apperror"
	"everystreet/pkg/cache"
	"everystreet/pkg/config"
	"everystreet/pkg/domain"
	"everystreet/pkg/logger"
	"everystreet/pkg/metrics"
	"everystreet/pkg/telemetry"
)

// Solver проводит полный цикл решения: валидация графов, сшивка компонент,
// привязка точек старта и конца, ремонт чётности или баланса степеней и
// финальный эйлеров обход. Результат либо покрывает все обязательные рёбра,
// либо Solve возвращает ошибку; частичных маршрутов не бывает.
type Solver struct {
	cfg       config.SolverConfig
	pathCache *cache.PathCache
	metrics   *metrics.Metrics
	tracker   *metrics.RequestTracker
}

// NewSolver создаёт решатель. pathCache может быть nil, тогда матрицы
// расстояний считаются с нуля при каждом запуске.
func NewSolver(cfg config.SolverConfig, pathCache *cache.PathCache) *Solver {
	s := &Solver{
		cfg:       cfg,
		pathCache: pathCache,
		metrics:   metrics.Get(),
	}
	if s.metrics != nil {
		s.tracker = metrics.NewRequestTracker(s.metrics.SolvesInFlight)
	}
	return s
}

// Coordinate точка запроса в WGS84.
type Coordinate struct {
	Lat float64
	Lon float64
}

// SolveRequest входные данные одного запуска.
type SolveRequest struct {
	// Drive полный дорожный граф, подложка кратчайших путей.
	Drive *graph.RoutingGraph

	// Required подграф обязательных рёбер. Режим решения определяется его
	// направленностью.
	Required *graph.RoutingGraph

	// Start и End необязательные координаты конечных точек. End без Start
	// не принимается; совпадающие или отсутствующие точки дают замкнутый
	// маршрут. Без Start обход начинается с наименьшего id рабочего графа.
	Start *Coordinate
	End   *Coordinate

	// Strategy переопределяет область привязки; пустая строка выбирает
	// значение по режиму.
	Strategy domain.SnapStrategy
}

// SolveResult итог запуска.
type SolveResult struct {
	RunID string

	Steps   []domain.RouteStep
	Summary *domain.RouteSummary

	StartNode int64
	EndNode   int64
	Closed    bool

	// StartSnap и EndSnap записи привязки, nil если координата не задавалась.
	StartSnap *domain.SnapRecord
	EndSnap   *domain.SnapRecord

	Connectors int
	Parity     *ParityStats
	Imbalance  *ImbalanceStats

	// Stages длительности этапов по именам спанов.
	Stages  map[string]time.Duration
	Elapsed time.Duration
}

// Solve решает задачу покрытия обязательных рёбер для пары графов.
func (s *Solver) Solve(ctx context.Context, req SolveRequest) (*SolveResult, error) {
	started := time.Now()
	mode := "undirected"
	if req.Required != nil && req.Required.Directed() {
		mode = "directed"
	}

	ctx, span := telemetry.StartSpan(ctx, "solver.Solve",
		telemetry.WithAttributes(attribute.String("solver.mode", mode)))
	defer span.End()

	if s.tracker != nil {
		s.tracker.Start(mode)
		defer s.tracker.End(mode)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	result, err := s.run(ctx, req, mode)

	elapsed := time.Since(started)
	totalLength := 0.0
	if result != nil && result.Summary != nil {
		totalLength = result.Summary.TotalLength
	}
	// Записываем метрики запуска независимо от исхода
	if s.metrics != nil {
		s.metrics.RecordSolve(mode, err == nil, elapsed, totalLength)
	}
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	result.Elapsed = elapsed
	telemetry.SetAttributes(ctx, telemetry.RouteAttributes(
		len(result.Steps), result.Summary.TotalLength, result.Summary.Overhead, result.Closed)...)
	return result, nil
}

func (s *Solver) run(ctx context.Context, req SolveRequest, mode string) (*SolveResult, error) {
	if req.Drive == nil || req.Required == nil {
		return nil, apperror.New(apperror.CodeNilInput, "solve: nil input graph")
	}
	if req.End != nil && req.Start == nil {
		return nil, apperror.New(apperror.CodeInvalidArgument, "solve: end coordinate given without start")
	}
	if req.Required.Directed() && !req.Drive.Directed() {
		return nil, apperror.New(apperror.CodeInvalidArgument,
			"solve: directed required subgraph needs a directed routing graph")
	}
	if req.Required.EdgeCount() == 0 {
		return nil, apperror.New(apperror.CodeEmptyGraph, "solve: required subgraph has no edges")
	}

	result := &SolveResult{
		RunID:  uuid.New().String(),
		Stages: make(map[string]time.Duration),
	}
	log := logger.WithRunID(result.RunID)
	log.Info("solve started",
		"mode", mode,
		"drive_nodes", req.Drive.NodeCount(),
		"drive_edges", req.Drive.EdgeCount(),
		"required_edges", req.Required.EdgeCount(),
	)
	telemetry.SetAttributes(ctx, telemetry.GraphAttributes(
		req.Drive.NodeCount(), req.Drive.EdgeCount(), req.Required.EdgeCount(), mode)...)

	// Валидация входных графов: наружу уходит общий код, детали в цепочке
	if err := s.stage(ctx, result, "validate", func(ctx context.Context) error {
		if ve := graph.Validate(req.Drive); ve.HasErrors() {
			return apperror.Wrap(ve.AsError(), apperror.CodeInvalidGraph, "solve: routing graph failed validation")
		}
		if ve := graph.Validate(req.Required); ve.HasErrors() {
			return apperror.Wrap(ve.AsError(), apperror.CodeInvalidGraph, "solve: required subgraph failed validation")
		}
		if ve := graph.ValidateSubset(req.Drive, req.Required); ve.HasErrors() {
			return apperror.Wrap(ve.AsError(), apperror.CodeInvalidGraph, "solve: required subgraph inconsistent with routing graph")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// Проверка достижимости в направленном режиме: обязательные вершины
	// должны лежать в одной компоненте сильной связности подложки
	if mode == "directed" {
		if err := s.stage(ctx, result, "feasibility", func(ctx context.Context) error {
			report, err := AnalyzeDirectedFeasibility(req.Drive, req.Required)
			if err != nil {
				return err
			}
			return report.Check()
		}); err != nil {
			return nil, err
		}
	}

	// Сшивка компонент обязательного подграфа и сборка рабочего графа
	var work *graph.RoutingGraph
	if err := s.stage(ctx, result, "connect", func(ctx context.Context) error {
		connectors, err := ConnectRequired(ctx, req.Drive, req.Required)
		if err != nil {
			return err
		}
		result.Connectors = len(connectors)
		telemetry.SetAttributes(ctx,
			attribute.Int(telemetry.AttrComponents, len(connectors)+1),
			attribute.Int(telemetry.AttrConnectorsAdded, len(connectors)),
		)
		work, err = BuildWorkGraph(req.Drive, req.Required, connectors)
		return err
	}); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordConnectors(mode, result.Connectors)
		s.metrics.RecordGraphSize("work", work.NodeCount(), work.EdgeCount())
	}

	// Привязка конечных точек к рабочему графу
	if err := s.stage(ctx, result, "snap", func(ctx context.Context) error {
		return s.resolveEndpoints(ctx, req, work, result, log)
	}); err != nil {
		return nil, err
	}
	result.Closed = result.StartNode == result.EndNode

	// Ремонт: чётность степеней либо баланс входов и выходов
	repairStage := "parity"
	if mode == "directed" {
		repairStage = "imbalance"
	}
	if err := s.stage(ctx, result, repairStage, func(ctx context.Context) error {
		opts := RepairOptions{
			Workers:            s.cfg.Workers,
			PathCache:          s.pathCache,
			ExactMatchingLimit: s.cfg.ExactMatchingLimit,
			ImprovementSweeps:  s.cfg.ImprovementSweeps,
		}
		edgesBefore := work.EdgeCount()
		var err error
		if mode == "directed" {
			result.Imbalance, err = RepairImbalance(ctx, work, req.Drive, result.StartNode, result.EndNode, opts)
			if err != nil {
				return err
			}
			telemetry.SetAttributes(ctx, attribute.Int(telemetry.AttrImbalanceTotal, result.Imbalance.FlowUnits))
		} else {
			result.Parity, err = RepairParity(ctx, work, req.Drive, result.StartNode, result.EndNode, opts)
			if err != nil {
				return err
			}
			telemetry.SetAttributes(ctx, attribute.Int(telemetry.AttrOddNodes, result.Parity.OddNodes))
		}
		telemetry.SetAttributes(ctx, attribute.Int(telemetry.AttrDuplicatesAdded, work.EdgeCount()-edgesBefore))
		return nil
	}); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		var matrix algorithms.MatrixStats
		if mode == "directed" {
			matrix = result.Imbalance.Matrix
		} else {
			matrix = result.Parity.Matrix
		}
		s.metrics.RecordMatrixPairs("computed", matrix.Computed)
		s.metrics.RecordMatrixPairs("cached", matrix.CacheHits)
	}

	// Эйлеров обход отремонтированного рабочего графа
	if err := s.stage(ctx, result, "traverse", func(ctx context.Context) error {
		engine := algorithms.NewEulerEngine(work, result.StartNode, result.EndNode)
		if err := engine.Verify(); err != nil {
			return err
		}
		steps, err := engine.Traverse()
		if err != nil {
			return err
		}
		result.Steps = steps
		result.Summary = domain.SummarizeRoute(steps)
		return nil
	}); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordOverhead(mode, result.Summary.Overhead)
	}
	log.Info("solve finished",
		"steps", result.Summary.Steps,
		"total_m", result.Summary.TotalLength,
		"required_m", result.Summary.RequiredLength,
		"overhead", result.Summary.Overhead,
		"connectors", result.Connectors,
		"closed", result.Closed,
	)
	return result, nil
}

// resolveEndpoints выбирает стартовую и конечную вершины обхода. Без явной
// координаты берётся наименьший id рабочего графа: выбор произвольный, но
// воспроизводимый между запусками.
func (s *Solver) resolveEndpoints(ctx context.Context, req SolveRequest, work *graph.RoutingGraph, result *SolveResult, log *slog.Logger) error {
	if req.Start == nil {
		nodes := work.GetSortedNodes()
		if len(nodes) == 0 {
			return apperror.New(apperror.CodeEmptyGraph, "solve: work graph has no nodes")
		}
		result.StartNode = nodes[0]
		result.EndNode = nodes[0]
		return nil
	}

	snapper := NewSnapper(work, req.Drive)
	rec, err := snapper.Snap(SnapRequest{
		Lat:         req.Start.Lat,
		Lon:         req.Start.Lon,
		Strategy:    req.Strategy,
		MaxDistance: s.cfg.MaxSnapDistance,
	})
	if err != nil {
		return err
	}
	result.StartSnap = rec
	result.StartNode = rec.NodeID
	result.EndNode = rec.NodeID
	log.Info("start snapped", "record", rec.String())
	telemetry.AddEvent(ctx, "start_snapped", telemetry.SnapAttributes(string(rec.Strategy), rec.Distance)...)
	if s.metrics != nil {
		s.metrics.RecordSnap(string(rec.Strategy), rec.Distance)
	}

	if req.End == nil {
		return nil
	}
	rec, err = snapper.Snap(SnapRequest{
		Lat:         req.End.Lat,
		Lon:         req.End.Lon,
		Strategy:    req.Strategy,
		MaxDistance: s.cfg.MaxSnapDistance,
	})
	if err != nil {
		return err
	}
	result.EndSnap = rec
	result.EndNode = rec.NodeID
	log.Info("end snapped", "record", rec.String())
	telemetry.AddEvent(ctx, "end_snapped", telemetry.SnapAttributes(string(rec.Strategy), rec.Distance)...)
	if s.metrics != nil {
		s.metrics.RecordSnap(string(rec.Strategy), rec.Distance)
	}
	return nil
}

// RoutingSignature вычисляет подпись дорожного графа для ключей кэша путей.
// Кратчайшие пути зависят только от подложки, поэтому подпись строится по ней,
// а не по рабочему графу.
func RoutingSignature(drive *graph.RoutingGraph) string {
	mode := "undirected"
	if drive.Directed() {
		mode = "directed"
	}
	digests := make([]cache.EdgeDigest, 0, drive.EdgeCount())
	for _, e := range drive.AllEdges() {
		digests = append(digests, cache.EdgeDigest{From: e.From, To: e.To, Length: e.Attrs.Length})
	}
	return cache.GraphSignature(mode, digests)
}

// stage выполняет один этап под собственным спаном, учитывает длительность и
// проверяет дедлайн перед запуском.
func (s *Solver) stage(ctx context.Context, result *SolveResult, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return apperror.Wrap(err, apperror.CodeTimeout, "solve deadline exceeded before stage "+name)
	}

	ctx, span := telemetry.StartSpan(ctx, "solver."+name)
	defer span.End()

	started := time.Now()
	err := fn(ctx)
	duration := time.Since(started)

	result.Stages[name] = duration
	if s.metrics != nil {
		s.metrics.RecordStage(name, duration)
	}
	if err != nil {
		telemetry.SetError(ctx, err)
		return err
	}
	return nil
}
