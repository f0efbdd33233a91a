package dataset

import (
	"strings"
	"testing"
)

func TestReadRegression(t *testing.T) {
	csv := `sepal_length,sepal_width,price
5.1,3.5,10.5
4.9,3.0,9.25
`
	ds, err := Read(strings.NewReader(csv), Options{PredictField: "price"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if ds.InputCount() != 2 {
		t.Fatalf("input count = %d, want 2", ds.InputCount())
	}
	if ds.OutputCount() != 1 {
		t.Fatalf("output count = %d, want 1", ds.OutputCount())
	}
	if len(ds.Inputs) != 2 || len(ds.Ideals) != 2 {
		t.Fatalf("rows = %d/%d, want 2/2", len(ds.Inputs), len(ds.Ideals))
	}
	if ds.Inputs[0][0] != 5.1 || ds.Inputs[0][1] != 3.5 {
		t.Fatalf("inputs[0] = %v", ds.Inputs[0])
	}
	if ds.Ideals[0][0] != 10.5 || ds.Ideals[1][0] != 9.25 {
		t.Fatalf("ideals = %v", ds.Ideals)
	}
	if len(ds.Classes) != 0 {
		t.Fatalf("regression dataset has classes: %v", ds.Classes)
	}
	if ds.InputNames[0] != "sepal_length" || ds.InputNames[1] != "sepal_width" {
		t.Fatalf("input names = %v", ds.InputNames)
	}
}

func TestReadClassificationOneOfN(t *testing.T) {
	csv := `x,y,species
1,2,setosa
3,4,versicolor
5,6,setosa
7,8,virginica
`
	ds, err := Read(strings.NewReader(csv), Options{PredictField: "species", Classify: true})
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	// First-seen label order.
	want := []string{"setosa", "versicolor", "virginica"}
	if len(ds.Classes) != len(want) {
		t.Fatalf("classes = %v, want %v", ds.Classes, want)
	}
	for i := range want {
		if ds.Classes[i] != want[i] {
			t.Fatalf("classes = %v, want %v", ds.Classes, want)
		}
	}

	if ds.OutputCount() != 3 {
		t.Fatalf("output count = %d, want 3", ds.OutputCount())
	}
	wantIdeals := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{1, 0, 0},
		{0, 0, 1},
	}
	for row, ideal := range wantIdeals {
		ones := 0
		for col := range ideal {
			if ds.Ideals[row][col] != ideal[col] {
				t.Fatalf("ideals[%d] = %v, want %v", row, ds.Ideals[row], ideal)
			}
			if ds.Ideals[row][col] == 1 {
				ones++
			}
		}
		if ones != 1 {
			t.Fatalf("ideals[%d] = %v, want exactly one 1", row, ds.Ideals[row])
		}
	}
}

func TestReadPredictFieldCaseInsensitive(t *testing.T) {
	csv := `X,Y,Target
1,2,3
`
	ds, err := Read(strings.NewReader(csv), Options{PredictField: "target"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if ds.Ideals[0][0] != 3 {
		t.Fatalf("ideals = %v", ds.Ideals)
	}
}

func TestReadErrors(t *testing.T) {
	cases := []struct {
		name    string
		csv     string
		opts    Options
		errPart string
	}{
		{
			"missing predict field",
			"a,b\n1,2\n",
			Options{PredictField: "c"},
			"predict field not found: c",
		},
		{
			"empty predict field",
			"a,b\n1,2\n",
			Options{},
			"predict field is required",
		},
		{
			"no input columns",
			"target\n1\n",
			Options{PredictField: "target"},
			"no input columns",
		},
		{
			"non-numeric input",
			"a,target\noops,1\n",
			Options{PredictField: "target"},
			"parse dataset row 2",
		},
		{
			"non-numeric regression target",
			"a,target\n1,oops\n",
			Options{PredictField: "target"},
			"predict field",
		},
		{
			"no data rows",
			"a,target\n",
			Options{PredictField: "target"},
			"no data rows",
		},
		{
			"single class",
			"a,target\n1,same\n2,same\n",
			Options{PredictField: "target", Classify: true},
			"at least 2 classes",
		},
	}
	for _, tc := range cases {
		_, err := Read(strings.NewReader(tc.csv), tc.opts)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.errPart) {
			t.Errorf("%s: error %q does not mention %q", tc.name, err, tc.errPart)
		}
	}
}
