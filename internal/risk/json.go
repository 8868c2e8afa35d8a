package risk

import (
	"encoding/json"
	"math"
)

// encoding/json refuses infinities, so infinite health factors travel as the
// string "Infinity".

func (s HealthFactorStatus) MarshalJSON() ([]byte, error) {
	type plain HealthFactorStatus
	return json.Marshal(struct {
		plain
		Value               any `json:"value"`
		BufferToLiquidation any `json:"buffer_to_liquidation"`
	}{plain(s), jsonFloat(s.Value), jsonFloat(s.BufferToLiquidation)})
}

func (r LiquidationRisk) MarshalJSON() ([]byte, error) {
	type plain LiquidationRisk
	return json.Marshal(struct {
		plain
		HealthFactor any `json:"health_factor"`
	}{plain(r), jsonFloat(r.HealthFactor)})
}

func jsonFloat(v float64) any {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return nil
	}
	return v
}
