package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/sidak/internal/db"
	"github.com/erazemk/sidak/internal/model"
	"github.com/erazemk/sidak/internal/store"
)

// openDatabase opens an existing database and brings its schema up to date.
func openDatabase(path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return database, nil
}

// openExistingDatabase is openDatabase for commands that must not create a
// fresh register by accident.
func openExistingDatabase(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s: %w", path, err)
	}
	return openDatabase(path)
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := openDatabase(path)
	if err != nil {
		os.Remove(path)
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	_, err = store.CreateUser(context.Background(), database, adminUsername, string(hash), model.RoleAdmin, nil)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
