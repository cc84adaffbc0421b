package chart

import (
	"errors"
	"strings"
	"testing"

	"stockintel/internal/dashboard"
)

type surface struct {
	w, h    int
	frame   string
	cleared int
}

func (s *surface) Size() (int, int)  { return s.w, s.h }
func (s *surface) Draw(frame string) { s.frame = frame }
func (s *surface) Clear()            { s.frame = ""; s.cleared++ }

func TestNewChartDraws(t *testing.T) {
	s := &surface{w: 80, h: 15}
	c, err := Factory{Precision: 2}.NewChart(s,
		[]string{"2024-01-01", "2024-01-02", "2024-01-03"},
		[]float64{100, 105, 102})
	if err != nil {
		t.Fatalf("NewChart: %v", err)
	}
	if s.frame == "" {
		t.Fatal("surface was not drawn")
	}
	if !strings.Contains(s.frame, "2024-01-01 → 2024-01-03 (3 days)") {
		t.Errorf("frame missing caption:\n%s", s.frame)
	}
	if !strings.Contains(s.frame, "105.00") {
		t.Errorf("frame missing max label:\n%s", s.frame)
	}

	c.Release()
	c.Release()
	if s.cleared != 1 {
		t.Errorf("cleared = %d, want 1", s.cleared)
	}
}

func TestNewChartSinglePoint(t *testing.T) {
	s := &surface{w: 10, h: 3}
	if _, err := (Factory{}).NewChart(s, []string{"2024-01-01"}, []float64{42}); err != nil {
		t.Fatalf("NewChart: %v", err)
	}
	if !strings.Contains(s.frame, "2024-01-01") {
		t.Errorf("frame missing caption:\n%s", s.frame)
	}
}

func TestNewChartErrors(t *testing.T) {
	f := Factory{}
	if _, err := f.NewChart(nil, []string{"a"}, []float64{1}); err == nil {
		t.Error("nil surface: want error")
	}
	if _, err := f.NewChart(&surface{}, nil, nil); err == nil {
		t.Error("empty series: want error")
	}
	_, err := f.NewChart(&surface{}, []string{"a", "b"}, []float64{1})
	if !errors.Is(err, dashboard.ErrMisaligned) {
		t.Errorf("misaligned err = %v, want ErrMisaligned", err)
	}
}

func TestCaption(t *testing.T) {
	if got := caption(nil); got != "" {
		t.Errorf("caption(nil) = %q, want empty", got)
	}
	if got := caption([]string{"d"}); got != "d" {
		t.Errorf("caption(one) = %q, want %q", got, "d")
	}
}
