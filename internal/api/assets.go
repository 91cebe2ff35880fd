package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/erazemk/sidak/internal/classify"
	"github.com/erazemk/sidak/internal/model"
	"github.com/erazemk/sidak/internal/policy"
	"github.com/erazemk/sidak/internal/store"
)

// AssetsHandler handles asset CRUD endpoints. Every response goes through
// the access policy: assets a user may not view are reported as missing.
type AssetsHandler struct {
	DB     *sql.DB
	Policy policy.Policy
	Codes  *classify.CodeGenerator

	// codeMu serialises code allocation with the insert or update that uses it.
	codeMu   sync.Mutex
	inflight singleflight.Group
}

// assetView is an asset as the frontend sees it: the stored record, its
// classification and what the current user may do with it.
type assetView struct {
	model.Asset
	classify.Result
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

func (h *AssetsHandler) view(u model.Principal, a *model.Asset) assetView {
	return assetView{
		Asset:     *a,
		Result:    classify.Classify(a),
		CanEdit:   h.Policy.CanEdit(u, a),
		CanDelete: h.Policy.CanDelete(u, a),
	}
}

// visibleAssets lists the assets matching f that u may view.
func visibleAssets(ctx context.Context, db *sql.DB, p policy.Policy, u model.Principal, f store.AssetFilter) ([]model.Asset, error) {
	assets, err := store.ListAssets(ctx, db, f)
	if err != nil {
		return nil, err
	}
	return p.FilterVisible(u, assets), nil
}

// parseKind reads an optional kind query parameter.
func parseKind(r *http.Request) (model.Kind, bool) {
	switch k := model.Kind(r.URL.Query().Get("kind")); k {
	case "", model.KindItem, model.KindLand, model.KindBuilding:
		return k, true
	default:
		return "", false
	}
}

func filterKind(assets []model.Asset, kind model.Kind) []model.Asset {
	if kind == "" {
		return assets
	}
	out := make([]model.Asset, 0, len(assets))
	for _, a := range assets {
		if classify.KindOf(a.JenisInventaris) == kind {
			out = append(out, a)
		}
	}
	return out
}

// List handles GET /api/assets.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid kind")
		return
	}

	u := GetUser(r.Context()).Principal()
	q := r.URL.Query()
	assets, err := visibleAssets(r.Context(), h.DB, h.Policy, u, store.AssetFilter{
		Unit:  q.Get("unit"),
		Jenis: q.Get("jenis"),
		Query: q.Get("q"),
	})
	if err != nil {
		slog.Error("failed to list assets", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}

	assets = filterKind(assets, kind)
	views := make([]assetView, len(assets))
	for i := range assets {
		views[i] = h.view(u, &assets[i])
	}
	jsonResponse(w, http.StatusOK, views)
}

// lookup loads the asset named in the path and checks that u may see it.
// It writes the error response itself and returns nil when the request
// should stop.
func (h *AssetsHandler) lookup(w http.ResponseWriter, r *http.Request, u model.Principal) *model.Asset {
	a, err := store.GetAsset(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get asset", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get asset")
		return nil
	}
	if a == nil || a.DeletedAt != nil || !h.Policy.CanView(u, a) {
		jsonError(w, http.StatusNotFound, "asset not found")
		return nil
	}
	return a
}

// Get handles GET /api/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	u := GetUser(r.Context()).Principal()
	a := h.lookup(w, r, u)
	if a == nil {
		return
	}
	jsonResponse(w, http.StatusOK, h.view(u, a))
}

type createResult struct {
	asset   *model.Asset
	created bool
}

// Create handles POST /api/assets. An Idempotency-Key header makes retries
// return the asset created by the first request.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	u := user.Principal()
	if !h.Policy.CanCreate(u) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var a model.Asset
	if err := decodeJSON(r, &a); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.Policy.CanEdit(u, &a) {
		jsonError(w, http.StatusForbidden, "no access to unit")
		return
	}

	var token string
	if key := strings.TrimSpace(r.Header.Get("Idempotency-Key")); key != "" {
		token = fmt.Sprintf("%d:%s", user.ID, key)
	}

	// Duplicates share one call, so it must outlive the request that started it.
	ctx := context.WithoutCancel(r.Context())
	create := func() (any, error) { return h.create(ctx, u, &a, token) }
	var v any
	var err error
	if token != "" {
		v, err, _ = h.inflight.Do(token, create)
	} else {
		v, err = create()
	}
	if err != nil {
		slog.Error("failed to create asset", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create asset")
		return
	}

	res := v.(createResult)
	status := http.StatusCreated
	if !res.created {
		status = http.StatusOK
	}
	jsonResponse(w, status, h.view(u, res.asset))
}

func (h *AssetsHandler) create(ctx context.Context, u model.Principal, a *model.Asset, token string) (createResult, error) {
	if token != "" {
		existing, err := store.GetAssetByClientToken(ctx, h.DB, token)
		if err != nil {
			return createResult{}, err
		}
		if existing != nil {
			return createResult{asset: existing}, nil
		}
	}

	h.codeMu.Lock()
	defer h.codeMu.Unlock()

	if err := h.assignCode(ctx, a); err != nil {
		return createResult{}, err
	}
	if _, err := store.EnsureUnit(ctx, h.DB, a.Unit); err != nil {
		return createResult{}, err
	}
	created, err := store.CreateAsset(ctx, h.DB, a, token)
	if err != nil {
		return createResult{}, err
	}

	code := classify.Code(created)
	if err := store.RecordEvent(ctx, h.DB, created.ID, model.EventCreated, u.Username,
		strings.TrimSpace(code+" "+created.NamaBarang)); err != nil {
		return createResult{}, err
	}

	slog.Info("asset created", "user", u.Username, "id", created.ID, "code", code, "unit", created.Unit)
	return createResult{asset: created, created: true}, nil
}

// assignCode gives an item without a code the next free one. Callers hold codeMu.
func (h *AssetsHandler) assignCode(ctx context.Context, a *model.Asset) error {
	if !classify.NeedsCode(a) {
		return nil
	}
	existing, err := store.ListAssetCodes(ctx, h.DB)
	if err != nil {
		return err
	}
	a.NoKodeBarang = h.Codes.Next(a.JenisInventaris, existing)
	return nil
}

// Update handles PUT /api/assets/{id}.
func (h *AssetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	u := GetUser(r.Context()).Principal()
	current := h.lookup(w, r, u)
	if current == nil {
		return
	}
	if !h.Policy.CanEdit(u, current) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	var a model.Asset
	if err := decodeJSON(r, &a); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.ID = current.ID
	a.KeepCodes(current)
	if !h.Policy.CanEdit(u, &a) {
		jsonError(w, http.StatusForbidden, "no access to unit")
		return
	}

	updated, err := h.update(r.Context(), u, current, &a)
	if err != nil {
		slog.Error("failed to update asset", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update asset")
		return
	}
	jsonResponse(w, http.StatusOK, h.view(u, updated))
}

func (h *AssetsHandler) update(ctx context.Context, u model.Principal, before, a *model.Asset) (*model.Asset, error) {
	h.codeMu.Lock()
	defer h.codeMu.Unlock()

	if err := h.assignCode(ctx, a); err != nil {
		return nil, err
	}
	if _, err := store.EnsureUnit(ctx, h.DB, a.Unit); err != nil {
		return nil, err
	}
	if err := store.UpdateAsset(ctx, h.DB, a); err != nil {
		return nil, err
	}

	summary := changeSummary(before, a)
	if err := store.RecordEvent(ctx, h.DB, a.ID, model.EventUpdated, u.Username, summary); err != nil {
		return nil, err
	}
	slog.Info("asset updated", "user", u.Username, "id", a.ID, "changes", summary)

	return store.GetAsset(ctx, h.DB, a.ID)
}

// changeSummary names the headline fields that differ between two versions
// of an asset.
func changeSummary(before, after *model.Asset) string {
	fields := []struct {
		name     string
		old, new string
	}{
		{"unit", before.Unit, after.Unit},
		{"jenis", before.JenisInventaris, after.JenisInventaris},
		{"nama", before.NamaBarang, after.NamaBarang},
		{"kode", classify.Code(before), classify.Code(after)},
		{"kondisi", classify.Condition(before), classify.Condition(after)},
		{"jumlah", fmt.Sprint(before.JumlahBarang), fmt.Sprint(after.JumlahBarang)},
	}
	var parts []string
	for _, f := range fields {
		if f.old != f.new {
			parts = append(parts, fmt.Sprintf("%s: %q -> %q", f.name, f.old, f.new))
		}
	}
	if len(parts) == 0 {
		return "details updated"
	}
	return strings.Join(parts, "; ")
}

// Delete handles DELETE /api/assets/{id}.
func (h *AssetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u := GetUser(r.Context()).Principal()
	a := h.lookup(w, r, u)
	if a == nil {
		return
	}
	if !h.Policy.CanDelete(u, a) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	if err := store.DeleteAsset(r.Context(), h.DB, a.ID); err != nil {
		slog.Error("failed to delete asset", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete asset")
		return
	}
	if err := store.RecordEvent(r.Context(), h.DB, a.ID, model.EventDeleted, u.Username, a.NamaBarang); err != nil {
		slog.Error("failed to record asset event", "error", err)
	}

	slog.Info("asset deleted", "user", u.Username, "id", a.ID, "code", classify.Code(a))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "asset deleted"})
}

// History handles GET /api/assets/{id}/history.
func (h *AssetsHandler) History(w http.ResponseWriter, r *http.Request) {
	u := GetUser(r.Context()).Principal()
	a := h.lookup(w, r, u)
	if a == nil {
		return
	}

	events, err := store.GetAssetHistory(r.Context(), h.DB, a.ID)
	if err != nil {
		slog.Error("failed to get asset history", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get asset history")
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(events))
}
