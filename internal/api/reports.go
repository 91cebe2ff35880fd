package api

import (
	"bytes"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/sidak/internal/policy"
	"github.com/erazemk/sidak/internal/report"
	"github.com/erazemk/sidak/internal/store"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportSize   = 32 << 20
)

// ReportsHandler serves spreadsheet exports.
type ReportsHandler struct {
	DB     *sql.DB
	Policy policy.Policy
}

// ExportAssets handles GET /api/reports/assets.xlsx.
func (h *ReportsHandler) ExportAssets(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid kind")
		return
	}

	user := GetUser(r.Context())
	assets, err := visibleAssets(r.Context(), h.DB, h.Policy, user.Principal(), store.AssetFilter{
		Unit: r.URL.Query().Get("unit"),
	})
	if err != nil {
		slog.Error("failed to list assets", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export assets")
		return
	}
	assets = filterKind(assets, kind)

	var buf bytes.Buffer
	if err := report.Export(&buf, assets); err != nil {
		slog.Error("failed to export assets", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to export assets")
		return
	}

	slog.Info("assets exported", "user", user.Username, "count", len(assets), "kind", kind)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="register-aset.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Import handles POST /api/assets/import. Each row is checked against the
// access policy on its own; the response lists created IDs and rejected rows.
func (h *AssetsHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	im := &report.Importer{DB: h.DB, Policy: h.Policy, Codes: h.Codes}

	h.codeMu.Lock()
	result, err := im.Import(r.Context(), GetUser(r.Context()).Principal(), file)
	h.codeMu.Unlock()

	switch {
	case errors.Is(err, report.ErrImportNotPermitted):
		jsonError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, report.ErrBadWorkbook):
		jsonError(w, http.StatusBadRequest, "could not read workbook")
	case err != nil:
		created := 0
		if result != nil {
			created = len(result.Created)
		}
		slog.Error("import aborted", "error", err, "created", created)
		jsonError(w, http.StatusInternalServerError, "import aborted")
	default:
		jsonResponse(w, http.StatusOK, result)
	}
}
