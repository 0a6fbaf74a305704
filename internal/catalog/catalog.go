package catalog

import (
	"fmt"
	"math/rand"
)

// Scenario は名前付きの合成シナリオ
type Scenario struct {
	Name   string  // シナリオ名
	Target string  // 対象エンドポイントのパス
	Weight float64 // 選択確率に効く重み
}

// Catalog は読み取り専用のシナリオ一覧
// 初期化後は不変なので同期は不要
type Catalog struct {
	scenarios  []Scenario
	cumulative []float64
	total      float64
}

// New はシナリオ一覧からカタログを作成する
// 空のカタログ、負の重み、正の重みが1つもない場合はエラー
func New(scenarios []Scenario) (*Catalog, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("scenario catalog is empty")
	}

	c := &Catalog{
		scenarios:  make([]Scenario, len(scenarios)),
		cumulative: make([]float64, len(scenarios)),
	}
	copy(c.scenarios, scenarios)

	for i, s := range c.scenarios {
		if s.Name == "" {
			return nil, fmt.Errorf("scenario %d has no name", i)
		}
		if s.Weight < 0 {
			return nil, fmt.Errorf("scenario %q has negative weight %v", s.Name, s.Weight)
		}
		c.total += s.Weight
		c.cumulative[i] = c.total
	}

	if c.total <= 0 {
		return nil, fmt.Errorf("at least one scenario must have positive weight")
	}

	return c, nil
}

// Scenarios はシナリオ一覧を定義順で返す
func (c *Catalog) Scenarios() []Scenario {
	out := make([]Scenario, len(c.scenarios))
	copy(out, c.scenarios)
	return out
}

// Len はシナリオ数を返す
func (c *Catalog) Len() int {
	return len(c.scenarios)
}

// Pick は重み付きランダムでシナリオを1つ選ぶ
// [0, total) の一様乱数を引き、累積重みが初めて超えるシナリオを返す
func (c *Catalog) Pick(rng *rand.Rand) Scenario {
	draw := rng.Float64() * c.total
	for i, cum := range c.cumulative {
		if draw < cum {
			return c.scenarios[i]
		}
	}
	// 丸め誤差で末尾に落ちた場合
	return c.scenarios[len(c.scenarios)-1]
}
