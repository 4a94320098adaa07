package histogram

import (
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"
)

func TestAggregateScenario(t *testing.T) {
	rows := []Row{{1, 1, 5}, {1, 2, 3}, {2, 2, 7}}
	s := Aggregate(rows)

	wantE := []int{2, 3, 4}
	wantC := []float64{5, 3, 7}
	if !slices.Equal(s.Energies(), wantE) {
		t.Fatalf("energies = %v, want %v", s.Energies(), wantE)
	}
	if !slices.Equal(s.Counts(), wantC) {
		t.Fatalf("counts = %v, want %v", s.Counts(), wantC)
	}
	if s.Total() != 15 {
		t.Fatalf("total = %v, want 15", s.Total())
	}
}

func TestAggregateGroupsEqualEnergies(t *testing.T) {
	// (0,3), (1,2), (2,1), (3,0) all land on energy 3.
	rows := []Row{{0, 3, 1}, {3, 0, 2}, {1, 2, 4}, {2, 1, 8}, {5, 5, 1}}
	s := Aggregate(rows)
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	if got := s.At(0); got != (Bin{Energy: 3, Count: 15}) {
		t.Fatalf("bin 0 = %+v, want {3 15}", got)
	}
	if got := s.At(1); got != (Bin{Energy: 10, Count: 1}) {
		t.Fatalf("bin 1 = %+v, want {10 1}", got)
	}
}

func TestAggregateConservesCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := range 20 {
		rows := make([]Row, 1+rng.Intn(500))
		var total float64
		for i := range rows {
			rows[i] = Row{CH1: rng.Intn(256), CH2: rng.Intn(256), Counts: float64(rng.Intn(50))}
			total += rows[i].Counts
		}

		s := Aggregate(rows)
		if s.Total() != total {
			t.Fatalf("trial %d: total = %v, want %v", trial, s.Total(), total)
		}
		e := s.Energies()
		for i := 1; i < len(e); i++ {
			if e[i] <= e[i-1] {
				t.Fatalf("trial %d: energies not strictly ascending at %d: %v", trial, i, e[i-1:i+1])
			}
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
	if _, _, ok := s.Span(); ok {
		t.Fatal("expected no span for empty series")
	}
}

func TestAggregateTableMissingColumns(t *testing.T) {
	tbl := Table{
		Columns: []string{"CH1(ch)", "Time"},
		Values:  [][]float64{{1, 2}},
	}
	_, err := AggregateTable(tbl, DefaultSchema())
	if !errors.Is(err, ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema", err)
	}

	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %T, want *SchemaError", err)
	}
	want := []string{"CH2(ch)", "Counts"}
	if !slices.Equal(se.Missing, want) {
		t.Fatalf("missing = %v, want %v", se.Missing, want)
	}
}

func TestAggregateTableColumnOrder(t *testing.T) {
	tbl := Table{
		Columns: []string{"Counts", "Time", "CH2(ch)", "CH1(ch)"},
		Values: [][]float64{
			{5, 0.1, 1, 1},
			{3, 0.2, 2, 1},
			{7, 0.3, 2, 2},
		},
	}
	s, err := AggregateTable(tbl, DefaultSchema())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(s.Energies(), []int{2, 3, 4}) {
		t.Fatalf("energies = %v", s.Energies())
	}
	if !slices.Equal(s.Counts(), []float64{5, 3, 7}) {
		t.Fatalf("counts = %v", s.Counts())
	}
}

func TestSchemaRowsRejectsBadValues(t *testing.T) {
	cols := []string{"CH1(ch)", "CH2(ch)", "Counts"}
	tests := []struct {
		name string
		row  []float64
		want error
	}{
		{name: "negative count", row: []float64{1, 2, -1}, want: ErrNegativeCount},
		{name: "fractional channel", row: []float64{1.5, 2, 1}, want: ErrNonIntegralChannel},
		{name: "nan count", row: []float64{1, 2, math.NaN()}, want: ErrNotFinite},
		{name: "inf channel", row: []float64{math.Inf(1), 2, 1}, want: ErrNotFinite},
		{name: "short row", row: []float64{1, 2}, want: ErrSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultSchema().Rows(Table{Columns: cols, Values: [][]float64{tt.row}})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSchemaCheckCustomNames(t *testing.T) {
	s := Schema{CH1: "a", CH2: "b", Counts: "n"}
	if err := s.Check([]string{"n", "b", "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Check([]string{"a", "b"}); !errors.Is(err, ErrSchema) {
		t.Fatalf("err = %v, want ErrSchema", err)
	}
}
