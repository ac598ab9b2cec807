package visibility

import (
	"testing"
)

func TestCentralBand(t *testing.T) {
	tests := []struct {
		name   string
		height float64
		margin float64
		rect   Rect
		want   bool
	}{
		{name: "Fully Inside", height: 1000, margin: 0.1, rect: Rect{Top: 200, Bottom: 800}, want: true},
		{name: "Only Top Margin", height: 1000, margin: 0.1, rect: Rect{Top: -500, Bottom: 100}, want: false},
		{name: "Touches Band Top", height: 1000, margin: 0.1, rect: Rect{Top: -500, Bottom: 100.5}, want: true},
		{name: "Only Bottom Margin", height: 1000, margin: 0.1, rect: Rect{Top: 900, Bottom: 1500}, want: false},
		{name: "Below Viewport", height: 1000, margin: 0.1, rect: Rect{Top: 1200, Bottom: 2000}, want: false},
		{name: "Spans Viewport", height: 1000, margin: 0.1, rect: Rect{Top: -1000, Bottom: 3000}, want: true},
		{name: "Empty Rect", height: 1000, margin: 0.1, rect: Rect{Top: 500, Bottom: 500}, want: false},
		{name: "Invalid Margin Falls Back", height: 1000, margin: 0.7, rect: Rect{Top: 50, Bottom: 99}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CentralBand(tt.height, tt.margin).Intersects(tt.rect)
			if got != tt.want {
				t.Errorf("Intersects(%+v) = %v, want %v", tt.rect, got, tt.want)
			}
		})
	}
}

func TestObserver_Report(t *testing.T) {
	o := NewObserver([]string{"hero", "t1", "t2"}, DefaultMargin)
	var calls [][]string
	o.SetListener(func(ids []string) { calls = append(calls, ids) })

	o.Report("t1", true)
	o.Report("hero", true)
	o.Report("hero", true) // no change, no call
	o.Report("ghost", true)

	if len(calls) != 2 {
		t.Fatalf("expected 2 listener calls, got %d", len(calls))
	}
	last := calls[len(calls)-1]
	if len(last) != 2 || last[0] != "hero" || last[1] != "t1" {
		t.Errorf("expected [hero t1] in registry order, got %v", last)
	}

	o.Report("hero", false)
	if got := o.InView(); len(got) != 1 || got[0] != "t1" {
		t.Errorf("expected [t1], got %v", got)
	}
}

func TestObserver_Measure(t *testing.T) {
	o := NewObserver([]string{"a", "b", "c"}, DefaultMargin)
	var last []string
	calls := 0
	o.SetListener(func(ids []string) {
		calls++
		last = ids
	})

	// Boundary between a and b sits mid-viewport: both in view.
	o.Measure(1000, map[string]Rect{
		"a": {Top: -600, Bottom: 400},
		"b": {Top: 400, Bottom: 1400},
		"c": {Top: 1400, Bottom: 2400},
	})
	if calls != 1 || len(last) != 2 || last[0] != "a" || last[1] != "b" {
		t.Fatalf("expected [a b] after first measure, got %v (calls=%d)", last, calls)
	}

	// Same geometry: no new signal.
	o.Measure(1000, map[string]Rect{
		"a": {Top: -600, Bottom: 400},
		"b": {Top: 400, Bottom: 1400},
	})
	if calls != 1 {
		t.Errorf("expected no listener call for unchanged set, got %d calls", calls)
	}

	// a scrolled into the top margin only.
	o.Measure(1000, map[string]Rect{
		"a": {Top: -950, Bottom: 50},
		"b": {Top: 50, Bottom: 1050},
	})
	if len(last) != 1 || last[0] != "b" {
		t.Errorf("expected [b], got %v", last)
	}
}
