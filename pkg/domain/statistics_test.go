package domain

import (
	"testing"
)

func routeFixture() []RouteStep {
	return []RouteStep{
		{From: 1, To: 2, Kind: KindRequired, Attrs: EdgeAttrs{Length: 100}},
		{From: 2, To: 3, Kind: KindConnector, Attrs: EdgeAttrs{Length: 50}},
		{From: 3, To: 4, Kind: KindRequired, Attrs: EdgeAttrs{Length: 200}},
		{From: 4, To: 1, Kind: KindDuplicate, Attrs: EdgeAttrs{Length: 150}},
	}
}

func TestSummarizeRoute(t *testing.T) {
	s := SummarizeRoute(routeFixture())

	if s.Steps != 4 {
		t.Errorf("Steps = %d, want 4", s.Steps)
	}
	if s.RequiredSteps != 2 || s.ConnectorSteps != 1 || s.DuplicateSteps != 1 {
		t.Errorf("step counts = (%d, %d, %d), want (2, 1, 1)",
			s.RequiredSteps, s.ConnectorSteps, s.DuplicateSteps)
	}
	if !FloatEquals(s.TotalLength, 500) {
		t.Errorf("TotalLength = %v, want 500", s.TotalLength)
	}
	if !FloatEquals(s.RequiredLength, 300) {
		t.Errorf("RequiredLength = %v, want 300", s.RequiredLength)
	}
	if !FloatEquals(s.ConnectorLength, 50) || !FloatEquals(s.DuplicateLength, 150) {
		t.Errorf("extra lengths = (%v, %v), want (50, 150)", s.ConnectorLength, s.DuplicateLength)
	}
	// (500-300)/300
	if !FloatEquals(s.Overhead, 200.0/300.0) {
		t.Errorf("Overhead = %v, want %v", s.Overhead, 200.0/300.0)
	}
	if s.StartNode != 1 || s.EndNode != 1 || !s.Closed {
		t.Errorf("endpoints = (%d, %d, closed=%v), want (1, 1, true)", s.StartNode, s.EndNode, s.Closed)
	}
}

func TestSummarizeRouteEmpty(t *testing.T) {
	s := SummarizeRoute(nil)
	if s.Steps != 0 || s.TotalLength != 0 || s.Closed {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestSummarizeRouteOpen(t *testing.T) {
	steps := routeFixture()[:3]
	s := SummarizeRoute(steps)

	if s.StartNode != 1 || s.EndNode != 4 {
		t.Errorf("endpoints = (%d, %d), want (1, 4)", s.StartNode, s.EndNode)
	}
	if s.Closed {
		t.Error("open route must not report Closed")
	}
}

func TestRouteNodes(t *testing.T) {
	nodes := RouteNodes(routeFixture())
	if !int64SliceEqual(nodes, []int64{1, 2, 3, 4, 1}) {
		t.Errorf("RouteNodes() = %v, want [1 2 3 4 1]", nodes)
	}
	if RouteNodes(nil) != nil {
		t.Error("RouteNodes(nil) must be nil")
	}
}
