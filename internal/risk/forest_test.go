package risk

import (
	"os"
	"path/filepath"
	"testing"
)

// 三特征三分类的小森林：只按里程（特征 0）在 20000/60000 处分裂。
func testForest() *Forest {
	return &Forest{
		NumFeatures: 3,
		NumClasses:  3,
		Trees: []decisionTree{
			{
				ChildrenLeft:  []int{1, -1, 3, -1, -1},
				ChildrenRight: []int{2, -1, 4, -1, -1},
				Feature:       []int{0, -2, 0, -2, -2},
				Threshold:     []float64{20000, -2, 60000, -2, -2},
				Value: [][]float64{
					{40, 35, 25},
					{38, 2, 0},
					{2, 33, 25},
					{2, 30, 3},
					{0, 3, 22},
				},
			},
		},
	}
}

func TestForestPredict(t *testing.T) {
	f := testForest()
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := []struct {
		km   float64
		want int
	}{
		{5000, 0},
		{20000, 0}, // 阈值上取左子树
		{30000, 1},
		{70000, 2},
	}
	for _, tc := range cases {
		got, err := f.Predict([3]float64{tc.km, 0.2, 90})
		if err != nil {
			t.Fatalf("Predict(km=%v): %v", tc.km, err)
		}
		if got != tc.want {
			t.Fatalf("Predict(km=%v) = %d, want %d", tc.km, got, tc.want)
		}
	}
}

func TestForestPredictTieBreaksLow(t *testing.T) {
	f := &Forest{
		NumFeatures: 3,
		NumClasses:  3,
		Trees: []decisionTree{
			{
				ChildrenLeft:  []int{-1},
				ChildrenRight: []int{-1},
				Feature:       []int{-2},
				Threshold:     []float64{-2},
				Value:         [][]float64{{5, 5, 0}},
			},
		},
	}
	got, err := f.Predict([3]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != 0 {
		t.Fatalf("tie should resolve to the lower label, got %d", got)
	}
}

func TestForestValidateRejectsMalformed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Forest)
	}{
		{"no features", func(f *Forest) { f.NumFeatures = 0 }},
		{"no classes", func(f *Forest) { f.NumClasses = 0 }},
		{"no trees", func(f *Forest) { f.Trees = nil }},
		{"inconsistent lengths", func(f *Forest) { f.Trees[0].ChildrenRight = f.Trees[0].ChildrenRight[:2] }},
		{"half leaf", func(f *Forest) { f.Trees[0].ChildrenRight[1] = 4 }},
		{"backward child", func(f *Forest) { f.Trees[0].ChildrenLeft[2] = 0 }},
		{"child out of range", func(f *Forest) { f.Trees[0].ChildrenRight[2] = 9 }},
		{"feature out of range", func(f *Forest) { f.Trees[0].Feature[0] = 5 }},
		{"value width", func(f *Forest) { f.Trees[0].Value[3] = []float64{1, 2} }},
	}
	for _, tc := range cases {
		f := testForest()
		tc.mutate(f)
		if err := f.Validate(); err == nil {
			t.Fatalf("%s: Validate should fail", tc.name)
		}
	}
}

func TestForestPredictEmptyLeaf(t *testing.T) {
	f := testForest()
	f.Trees[0].Value[1] = []float64{0, 0, 0}
	if _, err := f.Predict([3]float64{1000, 0.1, 100}); err == nil {
		t.Fatalf("empty leaf distribution should fail")
	}
}

func TestLoadForest(t *testing.T) {
	f, err := LoadForest(filepath.Join("testdata", "forest.json"))
	if err != nil {
		t.Fatalf("LoadForest: %v", err)
	}
	if f.NumFeatures != 3 || f.NumClasses != 3 {
		t.Fatalf("unexpected dimensions: %d features, %d classes", f.NumFeatures, f.NumClasses)
	}
	label, err := f.Predict([3]float64{150000, 0.7, 40})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if label != 2 {
		t.Fatalf("Predict high mileage = %d, want 2", label)
	}
}

func TestLoadForestErrors(t *testing.T) {
	if _, err := LoadForest(filepath.Join("testdata", "no-such-file.json")); err == nil {
		t.Fatalf("missing file should fail")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if _, err := LoadForest(bad); err == nil {
		t.Fatalf("malformed json should fail")
	}

	truncated := filepath.Join(t.TempDir(), "truncated.json")
	if err := os.WriteFile(truncated, []byte(`{"n_features":3,"n_classes":3,"trees":[]}`), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if _, err := LoadForest(truncated); err == nil {
		t.Fatalf("forest without trees should fail")
	}
}
