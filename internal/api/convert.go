package api

import (
	"math/big"
	"net/http"

	"github.com/atmx/lending-risk/internal/fixedpoint"
	"github.com/atmx/lending-risk/internal/rates"
)

const defaultDecimals = fixedpoint.WadDecimals

// ToWeiRequest is the JSON body for POST /convert/to-wei.
type ToWeiRequest struct {
	Amount   string `json:"amount"`
	Decimals *int   `json:"decimals,omitempty"` // default 18
}

// FromWeiRequest is the JSON body for POST /convert/from-wei.
type FromWeiRequest struct {
	Value    string `json:"value"`
	Decimals *int   `json:"decimals,omitempty"` // default 18
}

// ConversionResponse carries both sides of a wei conversion.
type ConversionResponse struct {
	Amount   string `json:"amount"`
	Wei      string `json:"wei"`
	Decimals int    `json:"decimals"`
}

// RayRequest converts either a percentage or a ray rate. Exactly one of the
// fields must be set.
type RayRequest struct {
	Percent *float64 `json:"percent,omitempty"`
	Ray     string   `json:"ray,omitempty"`
}

// RayResponse describes a ray rate in its common renderings.
type RayResponse struct {
	Ray     string  `json:"ray"`
	Decimal string  `json:"decimal"` // ray / 1e27
	Percent float64 `json:"percent"` // whole percent, truncated
	Display string  `json:"display"` // two decimals
	APY     float64 `json:"apy"`
}

func decimalsOrDefault(d *int) int {
	if d == nil {
		return defaultDecimals
	}
	return *d
}

// ConvertToWei handles POST /api/v1/convert/to-wei
func (s *Service) ConvertToWei(w http.ResponseWriter, r *http.Request) {
	var req ToWeiRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	decimals := decimalsOrDefault(req.Decimals)
	wei, err := fixedpoint.ToWei(req.Amount, decimals)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConversionResponse{Amount: req.Amount, Wei: wei.String(), Decimals: decimals})
}

// ConvertFromWei handles POST /api/v1/convert/from-wei
func (s *Service) ConvertFromWei(w http.ResponseWriter, r *http.Request) {
	var req FromWeiRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	value, err := parseInt("value", req.Value)
	if err != nil {
		writeErr(w, err)
		return
	}
	decimals := decimalsOrDefault(req.Decimals)
	amount, err := fixedpoint.FromWei(value, decimals)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConversionResponse{Amount: amount, Wei: value.String(), Decimals: decimals})
}

// ConvertRay handles POST /api/v1/convert/ray
func (s *Service) ConvertRay(w http.ResponseWriter, r *http.Request) {
	var req RayRequest
	if err := decode(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if (req.Percent == nil) == (req.Ray == "") {
		writeErr(w, badRequest("exactly one of percent or ray is required"))
		return
	}

	var value *big.Int
	if req.Percent != nil {
		v, err := fixedpoint.PercentToRay(*req.Percent)
		if err != nil {
			writeErr(w, err)
			return
		}
		value = v
	} else {
		v, err := parseInt("ray", req.Ray)
		if err != nil {
			writeErr(w, err)
			return
		}
		value = v
	}

	dec, err := fixedpoint.FromRay(value)
	if err != nil {
		writeErr(w, err)
		return
	}
	apy := rates.RayToAPY(value)
	if err := finite("apy", apy); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RayResponse{
		Ray:     value.String(),
		Decimal: dec,
		Percent: fixedpoint.RayToPercent(value),
		Display: rates.RayToPercentString(value),
		APY:     apy,
	})
}
