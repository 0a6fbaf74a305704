package catalog

// Default は本番シミュレーション向けのバランス型シナリオ一覧を返す
// 成功系の操作と障害トリガーを混在させる
func Default() []Scenario {
	return []Scenario{
		// 成功系の操作
		{Name: "list-users", Target: "/api/v1/users", Weight: 3},
		{Name: "get-user", Target: "/api/v1/users/1", Weight: 3},
		{Name: "health-check", Target: "/health", Weight: 2},
		{Name: "get-weather", Target: "/api/v1/weather/Tokyo", Weight: 2},

		// 障害トリガー
		{Name: "division-by-zero", Target: "/test/division_by_zero", Weight: 1},
		{Name: "key-error", Target: "/test/key_error", Weight: 1},
		{Name: "type-error", Target: "/test/type_error", Weight: 1},
		{Name: "validation-error", Target: "/test/validation", Weight: 1},
		{Name: "business-logic-error", Target: "/test/business_logic", Weight: 1},
		{Name: "user-not-found", Target: "/test/user_not_found", Weight: 1},
		{Name: "payment-failure", Target: "/test/payment", Weight: 1},
		{Name: "external-api-error", Target: "/test/external_api", Weight: 1},
		{Name: "db-timeout", Target: "/test/db_timeout", Weight: 1},
		{Name: "slow-query", Target: "/test/slow_query", Weight: 1},
	}
}

// Stress は障害密度を最大化するシナリオ一覧を返す
// 成功系の重みを下げ、障害トリガーの重みを広げる
func Stress() []Scenario {
	scenarios := Default()
	for i, s := range scenarios {
		if isFailureScenario(s) {
			scenarios[i].Weight = s.Weight * 9
		} else {
			scenarios[i].Weight = 1
		}
	}
	return scenarios
}

// isFailureScenario は障害トリガーかどうかを判定する
func isFailureScenario(s Scenario) bool {
	return len(s.Target) >= 6 && s.Target[:6] == "/test/"
}
