package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/sidak/internal/aggregate"
	"github.com/erazemk/sidak/internal/policy"
	"github.com/erazemk/sidak/internal/store"
)

// DashboardHandler serves aggregate figures over the assets a user can see.
type DashboardHandler struct {
	DB     *sql.DB
	Policy policy.Policy
}

type dashboardResponse struct {
	Totals     aggregate.Totals           `json:"totals"`
	Series     []aggregate.YearPoint      `json:"series"`
	Conditions aggregate.ConditionSummary `json:"conditions"`
	Units      []aggregate.UnitSummary    `json:"units"`
}

// Get handles GET /api/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	u := GetUser(r.Context()).Principal()
	assets, err := visibleAssets(r.Context(), h.DB, h.Policy, u, store.AssetFilter{
		Unit: r.URL.Query().Get("unit"),
	})
	if err != nil {
		slog.Error("failed to list assets", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	resp := dashboardResponse{
		Totals:     aggregate.ComputeTotals(assets),
		Series:     aggregate.ComputeYearlySeries(assets),
		Conditions: aggregate.ComputeConditionSummary(assets),
		Units:      aggregate.ComputeUnitSummary(assets),
	}
	jsonResponse(w, http.StatusOK, resp)
}
