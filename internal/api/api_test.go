package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/sidak/internal/classify"
	"github.com/erazemk/sidak/internal/db"
	"github.com/erazemk/sidak/internal/model"
	"github.com/erazemk/sidak/internal/policy"
	"github.com/erazemk/sidak/internal/report"
	"github.com/erazemk/sidak/internal/store"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "password123"
)

type testEnv struct {
	server *httptest.Server
	db     *sql.DB
	admin  string // admin token
}

func setupTestServer(t *testing.T, cfg policy.Config) *testEnv {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(Config{DB: database, JWTSecret: testJWTSecret, Policy: policy.New(cfg)})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	env := &testEnv{server: server, db: database}
	createTestUser(t, database, "admin", model.RoleAdmin)
	env.admin = env.login(t, "admin")
	return env
}

func createTestUser(t *testing.T, database *sql.DB, username, role string, units ...string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if _, err := store.CreateUser(context.Background(), database, username, string(hash), role, units); err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
}

func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	var resp loginResponse
	status := e.do(t, "POST", "/api/auth/login", "", map[string]string{
		"username": username,
		"password": testPassword,
	}, &resp)
	if status != http.StatusOK {
		t.Fatalf("login %s failed: %d", username, status)
	}
	if resp.Token == "" {
		t.Fatal("empty token from login")
	}
	return resp.Token
}

// do sends a JSON request and decodes the response into out when out is non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	return e.doWithHeaders(t, method, path, token, nil, body, out)
}

func (e *testEnv) doWithHeaders(t *testing.T, method, path, token string, headers map[string]string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type assetResponse struct {
	ID              string `json:"id"`
	Unit            string `json:"unit"`
	JenisInventaris string `json:"jenisInventaris"`
	NamaBarang      string `json:"namaBarang"`
	Kind            string `json:"kind"`
	Code            string `json:"code"`
	Condition       string `json:"condition"`
	CanEdit         bool   `json:"can_edit"`
	CanDelete       bool   `json:"can_delete"`
}

func (e *testEnv) createAsset(t *testing.T, token string, body map[string]any) assetResponse {
	t.Helper()
	var a assetResponse
	if status := e.do(t, "POST", "/api/assets", token, body, &a); status != http.StatusCreated {
		t.Fatalf("creating asset: expected 201, got %d", status)
	}
	return a
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t, policy.Config{})

	status := env.do(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "admin", "password": "wrong",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", status)
	}

	status = env.do(t, "POST", "/api/auth/login", "", map[string]string{"username": "admin"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", status)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	token := env.login(t, "admin")

	if status := env.do(t, "POST", "/api/auth/logout", token, nil, nil); status != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", status)
	}
	if status := env.do(t, "GET", "/api/me", token, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}

	// Other sessions stay valid.
	if status := env.do(t, "GET", "/api/me", env.admin, nil, nil); status != http.StatusOK {
		t.Errorf("expected 200 for other session, got %d", status)
	}
}

func TestMe(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	createTestUser(t, env.db, "eve", model.RoleEditor, "Dinas A")
	createTestUser(t, env.db, "vic", model.RoleViewer)

	var me meResponse
	env.do(t, "GET", "/api/me", env.login(t, "eve"), nil, &me)
	if me.Username != "eve" || me.Role != model.RoleEditor {
		t.Errorf("unexpected identity: %+v", me)
	}
	if !me.CanCreate || me.CanManageUsers {
		t.Errorf("editor capabilities wrong: %+v", me)
	}
	if len(me.AllowedUnits) != 1 || me.AllowedUnits[0] != "Dinas A" {
		t.Errorf("expected allowed units [Dinas A], got %v", me.AllowedUnits)
	}

	me = meResponse{}
	env.do(t, "GET", "/api/me", env.login(t, "vic"), nil, &me)
	if me.CanCreate {
		t.Error("viewer should not be able to create")
	}
	if me.AllowedUnits == nil {
		t.Error("allowed_units should be an empty list, not null")
	}
}

func TestAssetScoping(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	createTestUser(t, env.db, "eve", model.RoleEditor, "Dinas A")
	createTestUser(t, env.db, "vic", model.RoleViewer)
	editor := env.login(t, "eve")
	viewer := env.login(t, "vic")

	inA := env.createAsset(t, env.admin, map[string]any{
		"unit": "Dinas A", "jenisInventaris": "Elektronik", "namaBarang": "Laptop", "jumlahBarang": 2,
	})
	inB := env.createAsset(t, env.admin, map[string]any{
		"unit": "Dinas B", "jenisInventaris": "Tanah", "namaBarang": "Lahan", "kodeTanah": "T-1",
	})

	// Editor sees only their unit.
	var list []assetResponse
	env.do(t, "GET", "/api/assets", editor, nil, &list)
	if len(list) != 1 || list[0].ID != inA.ID {
		t.Fatalf("editor should see only the Dinas A asset, got %+v", list)
	}
	if !list[0].CanEdit || list[0].CanDelete {
		t.Errorf("editor flags wrong: %+v", list[0])
	}

	// Invisible assets look missing.
	if status := env.do(t, "GET", "/api/assets/"+inB.ID, editor, nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for asset outside scope, got %d", status)
	}

	// A viewer with no grants sees everything under the default policy.
	list = nil
	env.do(t, "GET", "/api/assets", viewer, nil, &list)
	if len(list) != 2 {
		t.Errorf("unscoped viewer should see 2 assets, got %d", len(list))
	}
	for _, a := range list {
		if a.CanEdit || a.CanDelete {
			t.Errorf("viewer should not edit or delete: %+v", a)
		}
	}

	// Kind filter.
	list = nil
	env.do(t, "GET", "/api/assets?kind=land", env.admin, nil, &list)
	if len(list) != 1 || list[0].Kind != string(model.KindLand) || list[0].Code != "T-1" {
		t.Errorf("kind=land filter wrong: %+v", list)
	}
	if status := env.do(t, "GET", "/api/assets?kind=boat", env.admin, nil, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown kind, got %d", status)
	}

	// Viewers cannot create.
	status := env.do(t, "POST", "/api/assets", viewer, map[string]any{"unit": "Dinas A", "namaBarang": "Meja"}, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for viewer create, got %d", status)
	}

	// Editors cannot create outside their units.
	status = env.do(t, "POST", "/api/assets", editor, map[string]any{"unit": "Dinas B", "namaBarang": "Meja"}, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for create outside scope, got %d", status)
	}

	// Editors cannot move an asset out of their units.
	status = env.do(t, "PUT", "/api/assets/"+inA.ID, editor, map[string]any{
		"unit": "Dinas B", "jenisInventaris": "Elektronik", "namaBarang": "Laptop",
	}, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for moving asset out of scope, got %d", status)
	}

	// Editors cannot delete.
	if status := env.do(t, "DELETE", "/api/assets/"+inA.ID, editor, nil, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for editor delete, got %d", status)
	}

	// Admins can.
	if status := env.do(t, "DELETE", "/api/assets/"+inA.ID, env.admin, nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200 for admin delete, got %d", status)
	}
	if status := env.do(t, "GET", "/api/assets/"+inA.ID, env.admin, nil, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for deleted asset, got %d", status)
	}
}

func TestUnscopedNonePolicy(t *testing.T) {
	env := setupTestServer(t, policy.Config{Unscoped: policy.UnscopedNone})
	createTestUser(t, env.db, "vic", model.RoleViewer)
	createTestUser(t, env.db, "eve", model.RoleEditor)

	env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "namaBarang": "Kursi"})

	var list []assetResponse
	env.do(t, "GET", "/api/assets", env.login(t, "vic"), nil, &list)
	if len(list) != 0 {
		t.Errorf("viewer without units should see nothing, got %d", len(list))
	}

	status := env.do(t, "POST", "/api/assets", env.login(t, "eve"), map[string]any{"unit": "Dinas A", "namaBarang": "Meja"}, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for editor without units, got %d", status)
	}
}

func TestAssetAutoCode(t *testing.T) {
	env := setupTestServer(t, policy.Config{})

	first := env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Elektronik", "namaBarang": "Laptop"})
	second := env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Elektronik", "namaBarang": "Printer"})
	land := env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Tanah", "namaBarang": "Lahan"})
	coded := env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Elektronik", "namaBarang": "TV", "kodeBarang": "X-9"})

	if first.Code != "ELK-001" || second.Code != "ELK-002" {
		t.Errorf("expected ELK-001 and ELK-002, got %q and %q", first.Code, second.Code)
	}
	if first.Kind != string(model.KindItem) {
		t.Errorf("expected item kind, got %q", first.Kind)
	}
	if land.Code != "" {
		t.Errorf("land should not get a generated code, got %q", land.Code)
	}
	if coded.Code != "X-9" {
		t.Errorf("existing code should be kept, got %q", coded.Code)
	}
}

func TestUpdateKeepsCode(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	a := env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Elektronik", "namaBarang": "Laptop"})
	if a.Code != "ELK-001" {
		t.Fatalf("expected ELK-001, got %q", a.Code)
	}

	var updated assetResponse
	status := env.do(t, "PUT", "/api/assets/"+a.ID, env.admin, map[string]any{
		"unit": "Dinas A", "jenisInventaris": "Elektronik", "namaBarang": "Laptop Baru",
	}, &updated)
	if status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", status)
	}
	if updated.Code != "ELK-001" {
		t.Errorf("update without code fields changed the code to %q", updated.Code)
	}

	var events []model.AssetEvent
	env.do(t, "GET", "/api/assets/"+a.ID+"/history", env.admin, nil, &events)
	if len(events) == 0 || strings.Contains(events[0].Summary, "kode") {
		t.Errorf("update event should not report a code change: %+v", events)
	}

	// A stored item without any code gets one on its first edit.
	legacy, err := store.CreateAsset(context.Background(), env.db, &model.Asset{
		Unit: "Dinas A", JenisInventaris: "Elektronik", NamaBarang: "Printer",
	}, "")
	if err != nil {
		t.Fatalf("creating legacy asset: %v", err)
	}
	status = env.do(t, "PUT", "/api/assets/"+legacy.ID, env.admin, map[string]any{
		"unit": "Dinas A", "jenisInventaris": "Elektronik", "namaBarang": "Printer",
	}, &updated)
	if status != http.StatusOK {
		t.Fatalf("legacy update: expected 200, got %d", status)
	}
	if updated.Code != "ELK-002" {
		t.Errorf("expected uncoded item to get ELK-002, got %q", updated.Code)
	}
}

func TestListAssetsByJenis(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Elektronik", "namaBarang": "Laptop"})
	env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Mebel", "namaBarang": "Meja"})

	var list []assetResponse
	env.do(t, "GET", "/api/assets?jenis=elektro", env.admin, nil, &list)
	if len(list) != 1 || list[0].NamaBarang != "Laptop" {
		t.Errorf("jenis filter wrong: %+v", list)
	}
}

func TestIdempotentCreateOutlivesRequest(t *testing.T) {
	database := db.NewTestDB(t)
	h := &AssetsHandler{DB: database, Policy: policy.New(policy.Config{}), Codes: classify.NewCodeGenerator(nil)}
	admin := &model.User{ID: 1, Username: "admin", Role: model.RoleAdmin}

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), userKey, admin))
	cancel()
	body, _ := json.Marshal(map[string]any{"unit": "Dinas A", "namaBarang": "Lemari"})
	req := httptest.NewRequestWithContext(ctx, "POST", "/api/assets", bytes.NewReader(body))
	req.Header.Set("Idempotency-Key", "form-7")
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 after the client went away, got %d: %s", rec.Code, rec.Body.String())
	}
	existing, err := store.GetAssetByClientToken(context.Background(), database, "1:form-7")
	if err != nil || existing == nil {
		t.Fatalf("expected the asset to be stored under its client token: %v", err)
	}
}

func TestIdempotentCreate(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	headers := map[string]string{"Idempotency-Key": "form-42"}
	body := map[string]any{"unit": "Dinas A", "namaBarang": "Lemari"}

	var first, second assetResponse
	if status := env.doWithHeaders(t, "POST", "/api/assets", env.admin, headers, body, &first); status != http.StatusCreated {
		t.Fatalf("first create: expected 201, got %d", status)
	}
	if status := env.doWithHeaders(t, "POST", "/api/assets", env.admin, headers, body, &second); status != http.StatusOK {
		t.Fatalf("replayed create: expected 200, got %d", status)
	}
	if first.ID != second.ID {
		t.Errorf("replay should return the original asset: %s != %s", first.ID, second.ID)
	}

	var list []assetResponse
	env.do(t, "GET", "/api/assets", env.admin, nil, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 asset, got %d", len(list))
	}
}

func TestAssetValidation(t *testing.T) {
	env := setupTestServer(t, policy.Config{})

	status := env.do(t, "POST", "/api/assets", env.admin, map[string]any{"unit": "Dinas A"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 without namaBarang, got %d", status)
	}
	status = env.do(t, "POST", "/api/assets", env.admin, map[string]any{"namaBarang": "Meja", "jumlahBarang": -1}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for negative quantity, got %d", status)
	}
	status = env.do(t, "POST", "/api/assets", env.admin, map[string]any{"namaBarang": "Meja", "harga": -50}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for negative price, got %d", status)
	}
}

func TestAssetHistory(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	a := env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Mebel", "namaBarang": "Meja", "keadaanBarang": "Baik"})

	status := env.do(t, "PUT", "/api/assets/"+a.ID, env.admin, map[string]any{
		"unit": "Dinas A", "jenisInventaris": "Mebel", "namaBarang": "Meja", "noKodeBarang": a.Code, "keadaanBarang": "Rusak Berat",
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", status)
	}

	var events []model.AssetEvent
	env.do(t, "GET", "/api/assets/"+a.ID+"/history", env.admin, nil, &events)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Action != model.EventUpdated || events[1].Action != model.EventCreated {
		t.Errorf("expected newest first, got %s then %s", events[0].Action, events[1].Action)
	}
	if events[0].Username != "admin" {
		t.Errorf("expected admin as actor, got %q", events[0].Username)
	}
}

func TestDashboard(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Elektronik", "namaBarang": "PC", "jumlahBarang": 3, "tahunPembuatan": "2020", "keadaanBarang": "Baik"})
	env.createAsset(t, env.admin, map[string]any{"unit": "Dinas B", "jenisInventaris": "Tanah", "namaBarang": "Lahan", "tahunPembuatan": "2019"})
	env.createAsset(t, env.admin, map[string]any{"unit": "Dinas B", "jenisInventaris": "Bangunan", "namaBarang": "Gedung"})

	var dash dashboardResponse
	if status := env.do(t, "GET", "/api/dashboard", env.admin, nil, &dash); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if dash.Totals.TotalItemQuantity != 3 || dash.Totals.TotalLandCount != 1 || dash.Totals.TotalBuildingCount != 1 {
		t.Errorf("unexpected totals: %+v", dash.Totals)
	}
	if len(dash.Series) != 2 || dash.Series[0].Year != 2019 {
		t.Errorf("unexpected series: %+v", dash.Series)
	}
	if dash.Conditions.Baik != 3 {
		t.Errorf("expected 3 items in Baik, got %+v", dash.Conditions)
	}
	if len(dash.Units) != 2 {
		t.Errorf("expected 2 unit rows, got %+v", dash.Units)
	}
}

func TestExportAssets(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Elektronik", "namaBarang": "PC"})
	env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "jenisInventaris": "Tanah", "namaBarang": "Lahan"})

	req, _ := http.NewRequest("GET", env.server.URL+"/api/reports/assets.xlsx?kind=item", nil)
	req.Header.Set("Authorization", "Bearer "+env.admin)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}

	f, err := excelize.OpenReader(resp.Body)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	items, _ := f.GetRows(report.SheetItems)
	if len(items) != 2 {
		t.Errorf("expected header and 1 item row, got %d rows", len(items))
	}
	land, _ := f.GetRows(report.SheetLand)
	if len(land) != 1 {
		t.Errorf("kind=item export should have an empty land sheet, got %d rows", len(land))
	}
}

func TestImportAssets(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	createTestUser(t, env.db, "eve", model.RoleEditor, "Dinas A")
	createTestUser(t, env.db, "vic", model.RoleViewer)

	var workbook bytes.Buffer
	err := report.Export(&workbook, []model.Asset{
		{Unit: "Dinas A", JenisInventaris: "Komputer", NamaBarang: "PC"},
		{Unit: "Dinas B", JenisInventaris: "Komputer", NamaBarang: "Server"},
	})
	if err != nil {
		t.Fatalf("building workbook: %v", err)
	}
	data := workbook.Bytes()

	upload := func(token string) (int, report.ImportResult) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, _ := mw.CreateFormFile("file", "register.xlsx")
		part.Write(data)
		mw.Close()

		req, _ := http.NewRequest("POST", env.server.URL+"/api/assets/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("import request: %v", err)
		}
		defer resp.Body.Close()

		var result report.ImportResult
		if resp.StatusCode == http.StatusOK {
			json.NewDecoder(resp.Body).Decode(&result)
		}
		return resp.StatusCode, result
	}

	if status, _ := upload(env.login(t, "vic")); status != http.StatusForbidden {
		t.Errorf("expected 403 for viewer import, got %d", status)
	}

	status, result := upload(env.login(t, "eve"))
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(result.Created) != 1 || len(result.Rejected) != 1 {
		t.Errorf("expected 1 created and 1 rejected, got %+v", result)
	}

	var a assetResponse
	env.do(t, "GET", "/api/assets/"+result.Created[0], env.admin, nil, &a)
	if a.Code != "KMP-001" {
		t.Errorf("imported item should get KMP-001, got %q", a.Code)
	}
}

func TestUnitsAPI(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	createTestUser(t, env.db, "vic", model.RoleViewer)

	var unit model.Unit
	if status := env.do(t, "POST", "/api/units", env.admin, map[string]string{"name": "Dinas A"}, &unit); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if status := env.do(t, "POST", "/api/units", env.admin, map[string]string{"name": "Dinas A"}, nil); status != http.StatusConflict {
		t.Errorf("expected 409 for duplicate unit, got %d", status)
	}
	if status := env.do(t, "POST", "/api/units", env.login(t, "vic"), map[string]string{"name": "Dinas C"}, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for viewer, got %d", status)
	}

	env.createAsset(t, env.admin, map[string]any{"unit": "Dinas A", "namaBarang": "Meja"})
	path := "/api/units/" + strconv.FormatInt(unit.ID, 10)
	if status := env.do(t, "DELETE", path, env.admin, nil, nil); status != http.StatusConflict {
		t.Errorf("expected 409 for unit in use, got %d", status)
	}

	var units []model.Unit
	env.do(t, "GET", "/api/units", env.login(t, "vic"), nil, &units)
	if len(units) != 1 {
		t.Errorf("expected 1 unit, got %d", len(units))
	}
}

func TestUsersAPI(t *testing.T) {
	env := setupTestServer(t, policy.Config{})

	var created model.User
	status := env.do(t, "POST", "/api/users", env.admin, map[string]any{
		"username": "eve", "password": testPassword, "role": model.RoleEditor, "allowed_units": []string{"Dinas A"},
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if len(created.AllowedUnits) != 1 {
		t.Errorf("expected units to be stored, got %v", created.AllowedUnits)
	}

	status = env.do(t, "POST", "/api/users", env.admin, map[string]any{
		"username": "eve", "password": testPassword, "role": model.RoleEditor,
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("expected 409 for duplicate username, got %d", status)
	}

	status = env.do(t, "POST", "/api/users", env.admin, map[string]any{
		"username": "bob", "password": testPassword, "role": "manager",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown role, got %d", status)
	}

	var updated model.User
	status = env.do(t, "PUT", "/api/users/"+strconv.FormatInt(created.ID, 10), env.admin, map[string]any{
		"role": model.RoleViewer, "allowed_units": []string{"Dinas B", "Dinas C"},
	}, &updated)
	if status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", status)
	}
	if updated.Role != model.RoleViewer || len(updated.AllowedUnits) != 2 {
		t.Errorf("unexpected updated user: %+v", updated)
	}

	status = env.do(t, "PUT", "/api/users/"+strconv.FormatInt(created.ID, 10), env.admin, map[string]any{
		"role": model.RoleEditor, "allowed_units": []string{" Dinas D ", "Dinas D", ""},
	}, &updated)
	if status != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", status)
	}
	if len(updated.AllowedUnits) != 1 || updated.AllowedUnits[0] != "Dinas D" {
		t.Errorf("expected grants trimmed and deduplicated, got %q", updated.AllowedUnits)
	}
	var units []model.Unit
	env.do(t, "GET", "/api/units", env.admin, nil, &units)
	found := false
	for _, u := range units {
		found = found || u.Name == "Dinas D"
	}
	if !found {
		t.Errorf("granted unit should be registered, got %+v", units)
	}

	if status := env.do(t, "PUT", "/api/users/9999/password", env.admin, map[string]string{"password": testPassword}, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 resetting a missing user's password, got %d", status)
	}

	var me meResponse
	env.do(t, "GET", "/api/me", env.admin, nil, &me)
	if status := env.do(t, "DELETE", "/api/users/"+strconv.FormatInt(me.ID, 10), env.admin, nil, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for self-delete, got %d", status)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	env := setupTestServer(t, policy.Config{})

	if status := env.do(t, "GET", "/api/assets", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", status)
	}
	if status := env.do(t, "GET", "/api/assets", "garbage", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", status)
	}
}

func TestRoleBasedAccess(t *testing.T) {
	env := setupTestServer(t, policy.Config{})
	createTestUser(t, env.db, "eve", model.RoleEditor)
	editor := env.login(t, "eve")

	if status := env.do(t, "GET", "/api/users", editor, nil, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for editor accessing users, got %d", status)
	}

	// A deleted user's token stops working.
	var me meResponse
	env.do(t, "GET", "/api/me", editor, nil, &me)
	if status := env.do(t, "DELETE", "/api/users/"+strconv.FormatInt(me.ID, 10), env.admin, nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200 for delete, got %d", status)
	}
	if status := env.do(t, "GET", "/api/me", editor, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 for deleted user, got %d", status)
	}
}
