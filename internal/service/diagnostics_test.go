package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everystreet/pkg/apperror"
)

// twoSCCFixture: cycle {1,2,3} and cycle {4,5} joined by a single one-way
// arc 3->4, with required arcs on both sides plus the crossing arc itself.
func twoSCCFixture() (*FeasibilityReport, error) {
	drive := buildDrive(true, [][3]float64{
		{1, 2, 10}, {2, 3, 10}, {3, 1, 10},
		{4, 5, 10}, {5, 4, 10},
		{3, 4, 10},
	})
	required := buildRequired(true, [][3]float64{{1, 2, 10}, {4, 5, 10}, {3, 4, 10}})
	return AnalyzeDirectedFeasibility(drive, required)
}

func TestAnalyzeDirectedFeasibility(t *testing.T) {
	report, err := twoSCCFixture()
	require.NoError(t, err)

	assert.Equal(t, 6, report.DriveEdges)
	assert.Equal(t, 3, report.RequiredEdges)
	assert.Equal(t, 2, report.SCCCount)
	assert.Equal(t, 3, report.LargestSCCSize)

	assert.Equal(t, []int64{4, 5}, report.NodesOutside)

	// (4,5) has both endpoints outside, (3,4) one; (1,2) is clean.
	require.Len(t, report.BlockingEdges, 2)
	assert.Equal(t, int64(4), report.BlockingEdges[0].From)
	assert.Equal(t, int64(3), report.BlockingEdges[1].From)

	require.Len(t, report.CrossingEdges, 1)
	assert.Equal(t, int64(3), report.CrossingEdges[0].From)
	assert.Equal(t, int64(4), report.CrossingEdges[0].To)
}

func TestFeasibilityCheck_Fails(t *testing.T) {
	report, err := twoSCCFixture()
	require.NoError(t, err)

	assert.False(t, report.Feasible())
	err = report.Check()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeRequiredOutsideSCC))
}

func TestFeasibilityCheck_Passes(t *testing.T) {
	drive := buildDrive(true, [][3]float64{
		{1, 2, 10}, {2, 3, 10}, {3, 1, 10},
		{3, 4, 10}, // dangling spur, no requirement on it
	})
	required := buildRequired(true, [][3]float64{{1, 2, 10}, {2, 3, 10}})

	report, err := AnalyzeDirectedFeasibility(drive, required)
	require.NoError(t, err)
	assert.True(t, report.Feasible())
	assert.NoError(t, report.Check())
}

func TestFeasibilityCheck_UnknownRequiredNode(t *testing.T) {
	drive := buildDrive(true, [][3]float64{{1, 2, 10}, {2, 1, 10}})
	required := buildRequired(true, [][3]float64{{1, 2, 10}, {2, 1, 10}, {1, 99, 10}})

	report, err := AnalyzeDirectedFeasibility(drive, required)
	require.NoError(t, err)

	err = report.Check()
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeRequiredOutsideSCC))

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "unknown_nodes_sample")
}

func TestFeasibilityReport_WriteTo(t *testing.T) {
	report, err := twoSCCFixture()
	require.NoError(t, err)

	var sb strings.Builder
	n, err := report.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, int64(sb.Len()), n)

	out := sb.String()
	assert.Contains(t, out, "# directed feasibility diagnostics\n")
	assert.Contains(t, out, "scc_count=2\n")
	assert.Contains(t, out, "largest_scc_size=3\n")
	assert.Contains(t, out, "required_nodes_outside_largest_scc=2\n")
	assert.Contains(t, out, "required_edges_outside_largest_scc=2\n")
	assert.Contains(t, out, "required_edges_crossing_sccs=1\n")
	assert.Contains(t, out, "[required_nodes_outside_largest_scc]\n")
	assert.Contains(t, out, "[required_edges_crossing_sccs]\n")

	// One line per blocking edge with both component ids.
	assert.Regexp(t, `(?m)^3,4,scc_u=\d+,scc_v=\d+$`, out)
}

func TestDropBlockers(t *testing.T) {
	drive := buildDrive(true, [][3]float64{
		{1, 2, 10}, {2, 3, 10}, {3, 1, 10},
		{4, 5, 10}, {5, 4, 10},
		{3, 4, 10},
	})
	required := buildRequired(true, [][3]float64{{1, 2, 10}, {4, 5, 10}, {3, 4, 10}})

	report, err := AnalyzeDirectedFeasibility(drive, required)
	require.NoError(t, err)

	filtered, dropped := DropBlockers(required, report)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, 1, filtered.EdgeCount())
	assert.False(t, filtered.HasNode(5), "nodes isolated by the drop must go too")

	// The filtered requirement set is solvable.
	after, err := AnalyzeDirectedFeasibility(drive, filtered)
	require.NoError(t, err)
	assert.True(t, after.Feasible())

	// Nothing to drop is a no-op returning the same graph.
	same, none := DropBlockers(filtered, after)
	assert.Zero(t, none)
	assert.Same(t, filtered, same)
}

func TestAnalyzeDirectedFeasibility_RejectsUndirected(t *testing.T) {
	drive := buildDrive(false, [][3]float64{{1, 2, 10}})
	required := buildRequired(false, [][3]float64{{1, 2, 10}})

	_, err := AnalyzeDirectedFeasibility(drive, required)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
}
