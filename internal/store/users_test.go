package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/erazemk/sidak/internal/db"
	"github.com/erazemk/sidak/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "testuser", "hash123", model.RoleViewer, nil)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", user.Username)
	}
	if user.Role != model.RoleViewer {
		t.Errorf("expected role 'viewer', got %q", user.Role)
	}
	if len(user.AllowedUnits) != 0 {
		t.Errorf("expected no allowed units, got %v", user.AllowedUnits)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", got.Username)
	}
}

func TestUserAllowedUnitsKeepOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	units := []string{"Sekretariat", "Keuangan", " ", "Sekretariat", "Dinas PU"}
	user, err := CreateUser(ctx, database, "editor", "hash", model.RoleEditor, units)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	want := []string{"Sekretariat", "Keuangan", "Dinas PU"}
	if !reflect.DeepEqual(user.AllowedUnits, want) {
		t.Errorf("expected units %v, got %v", want, user.AllowedUnits)
	}

	if err := UpdateUser(ctx, database, user.ID, model.RoleViewer, []string{"Keuangan"}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, _ := GetUser(ctx, database, user.ID)
	if got.Role != model.RoleViewer {
		t.Errorf("expected role 'viewer', got %q", got.Role)
	}
	if !reflect.DeepEqual(got.AllowedUnits, []string{"Keuangan"}) {
		t.Errorf("expected units [Keuangan], got %v", got.AllowedUnits)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleAdmin, nil)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Username != "alice" {
		t.Errorf("expected 'alice', got %q", user.Username)
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestListUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a", "hash", model.RoleViewer, []string{"Keuangan"})
	CreateUser(ctx, database, "b", "hash", model.RoleEditor, []string{"Sekretariat"})

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if !reflect.DeepEqual(users[1].AllowedUnits, []string{"Sekretariat"}) {
		t.Errorf("expected units loaded for listed users, got %v", users[1].AllowedUnits)
	}
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "hash", model.RoleViewer, nil)
	DeleteUser(ctx, database, user.ID)

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}

	// The username can be reused after a soft delete.
	if _, err := CreateUser(ctx, database, "deleteme", "hash", model.RoleViewer, nil); err != nil {
		t.Errorf("expected username reuse after delete, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleViewer, nil)
	UpdateUserPassword(ctx, database, user.ID, "newhash")

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
}
