package risk

import (
	"encoding/json"
	"fmt"
	"os"
)

// decisionTree 单棵决策树，数组下标即节点编号。
// 叶子节点 children_left/children_right 为 -1，feature 为 -2（离线导出脚本的约定）。
type decisionTree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"` // 每个节点的类别样本计数
}

// Forest 离线训练的随机森林分类器（JSON 导出）。
// 启动时加载一次，之后只读，可并发调用 Predict。
type Forest struct {
	NumFeatures int            `json:"n_features"`
	NumClasses  int            `json:"n_classes"`
	Trees       []decisionTree `json:"trees"`
}

// LoadForest 从文件加载模型。加载失败属于启动期错误，调用方应直接退出。
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file %s: %w", path, err)
	}
	f := &Forest{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse model file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("model file %s: %w", path, err)
	}
	return f, nil
}

// Validate 校验树结构完整性，避免推理期下标越界。
func (f *Forest) Validate() error {
	if f == nil {
		return fmt.Errorf("forest is nil")
	}
	if f.NumFeatures <= 0 {
		return fmt.Errorf("n_features must be positive, got %d", f.NumFeatures)
	}
	if f.NumClasses <= 0 {
		return fmt.Errorf("n_classes must be positive, got %d", f.NumClasses)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for i, t := range f.Trees {
		n := len(t.ChildrenLeft)
		if n == 0 {
			return fmt.Errorf("tree %d is empty", i)
		}
		if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
			return fmt.Errorf("tree %d has inconsistent array lengths", i)
		}
		for node := 0; node < n; node++ {
			left, right := t.ChildrenLeft[node], t.ChildrenRight[node]
			if (left == -1) != (right == -1) {
				return fmt.Errorf("tree %d node %d: half-leaf", i, node)
			}
			if left != -1 {
				if left <= node || left >= n || right <= node || right >= n {
					return fmt.Errorf("tree %d node %d: child index out of range", i, node)
				}
				if t.Feature[node] < 0 || t.Feature[node] >= f.NumFeatures {
					return fmt.Errorf("tree %d node %d: feature index %d out of range", i, node, t.Feature[node])
				}
			}
			if len(t.Value[node]) != f.NumClasses {
				return fmt.Errorf("tree %d node %d: value width %d, want %d", i, node, len(t.Value[node]), f.NumClasses)
			}
		}
	}
	return nil
}

// Predict 返回类别编号。各树叶子分布归一化后求平均，取概率最大的类别。
func (f *Forest) Predict(features [3]float64) (int, error) {
	if f == nil || len(f.Trees) == 0 {
		return 0, fmt.Errorf("forest not loaded")
	}
	if f.NumFeatures != len(features) {
		return 0, fmt.Errorf("model expects %d features, got %d", f.NumFeatures, len(features))
	}

	probs := make([]float64, f.NumClasses)
	for i := range f.Trees {
		leaf, err := f.Trees[i].leafValue(features[:])
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		total := 0.0
		for _, v := range leaf {
			total += v
		}
		if total <= 0 {
			return 0, fmt.Errorf("tree %d: empty leaf distribution", i)
		}
		for c, v := range leaf {
			probs[c] += v / total
		}
	}

	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return best, nil
}

func (t *decisionTree) leafValue(features []float64) ([]float64, error) {
	node := 0
	for steps := 0; steps <= len(t.ChildrenLeft); steps++ {
		if t.ChildrenLeft[node] == -1 {
			return t.Value[node], nil
		}
		if features[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return nil, fmt.Errorf("walk did not terminate")
}
