package handlers

import (
	"net/http"

	"pantrypos/internal/units"
)

type unitClassResponse struct {
	Class    units.Class `json:"class"`
	BaseUnit string      `json:"base_unit"`
	Units    []string    `json:"units"`
}

// Units lists the unit vocabulary grouped by compatibility class.
func Units(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	classes := units.Classes()
	resp := make([]unitClassResponse, 0, len(classes))
	for _, class := range classes {
		resp = append(resp, unitClassResponse{
			Class:    class,
			BaseUnit: units.BaseUnit(class),
			Units:    units.UnitsOf(class),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
