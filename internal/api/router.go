package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/sidak/internal/classify"
	"github.com/erazemk/sidak/internal/model"
	"github.com/erazemk/sidak/internal/policy"
)

// Config carries what the API handlers share.
type Config struct {
	DB        *sql.DB
	JWTSecret string
	Policy    policy.Policy
	// Codes generates item codes; nil uses the built-in prefixes.
	Codes *classify.CodeGenerator
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	if cfg.Codes == nil {
		cfg.Codes = classify.NewCodeGenerator(nil)
	}
	db := cfg.DB
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: cfg.JWTSecret, Policy: cfg.Policy}
	usersHandler := &UsersHandler{DB: db}
	unitsHandler := &UnitsHandler{DB: db}
	assetsHandler := &AssetsHandler{DB: db, Policy: cfg.Policy, Codes: cfg.Codes}
	dashboardHandler := &DashboardHandler{DB: db, Policy: cfg.Policy}
	reportsHandler := &ReportsHandler{DB: db, Policy: cfg.Policy}

	authMW := AuthMiddleware(cfg.JWTSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireEditor := RequireRole(model.RoleEditor)
	requireUserAdmin := Require(cfg.Policy.CanManageUsers)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/me", authMW(http.HandlerFunc(authHandler.Me)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireUserAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireUserAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireUserAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireUserAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireUserAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireUserAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Units: read (all roles), write (admin).
	mux.Handle("GET /api/units", authMW(http.HandlerFunc(unitsHandler.List)))
	mux.Handle("POST /api/units", authMW(requireAdmin(http.HandlerFunc(unitsHandler.Create))))
	mux.Handle("DELETE /api/units/{id}", authMW(requireAdmin(http.HandlerFunc(unitsHandler.Delete))))

	// Assets: per-record checks happen in the handlers.
	mux.Handle("GET /api/assets", authMW(http.HandlerFunc(assetsHandler.List)))
	mux.Handle("POST /api/assets", authMW(http.HandlerFunc(assetsHandler.Create)))
	mux.Handle("POST /api/assets/import", authMW(requireEditor(http.HandlerFunc(assetsHandler.Import))))
	mux.Handle("GET /api/assets/{id}", authMW(http.HandlerFunc(assetsHandler.Get)))
	mux.Handle("PUT /api/assets/{id}", authMW(http.HandlerFunc(assetsHandler.Update)))
	mux.Handle("DELETE /api/assets/{id}", authMW(http.HandlerFunc(assetsHandler.Delete)))
	mux.Handle("GET /api/assets/{id}/history", authMW(http.HandlerFunc(assetsHandler.History)))

	// Dashboard and reports over the visible set.
	mux.Handle("GET /api/dashboard", authMW(http.HandlerFunc(dashboardHandler.Get)))
	mux.Handle("GET /api/reports/assets.xlsx", authMW(http.HandlerFunc(reportsHandler.ExportAssets)))

	return mux
}
