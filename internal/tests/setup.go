// Package tests holds end-to-end tests that run the full HTTP stack against
// a real Postgres database. They are skipped when DATABASE_URL is unset.
package tests

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// appTables lists every application table, children first.
var appTables = []string{
	"user_favorites",
	"feedback",
	"attractions",
	"login_history",
	"sessions",
	"user_devices",
	"browser_fingerprints",
	"users",
}

// TruncateAppTables truncates all application tables for a clean test state.
func TruncateAppTables(ctx context.Context, db *sql.DB) error {
	query := "TRUNCATE TABLE "
	for i, t := range appTables {
		if i > 0 {
			query += ", "
		}
		query += t
	}
	if _, err := db.ExecContext(ctx, query+" RESTART IDENTITY CASCADE"); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// PromoteAdmin grants the admin role to username.
func PromoteAdmin(ctx context.Context, db *sql.DB, username string) error {
	res, err := db.ExecContext(ctx, `UPDATE users SET is_admin = TRUE WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("promote admin: user %q not found", username)
	}
	return nil
}

// FingerprintBlob builds a browserFingerprint value the way the web client
// does. Different canvas values yield different fingerprint hashes.
func FingerprintBlob(userAgent, canvas string) string {
	payload, _ := json.Marshal(map[string]any{
		"userAgent":           userAgent,
		"language":            "en-US",
		"platform":            "MacIntel",
		"hardwareConcurrency": 8,
		"screenResolution":    "2560x1440",
		"colorDepth":          30,
		"timezone":            "Europe/Berlin",
		"canvas":              canvas,
	})
	return base64.StdEncoding.EncodeToString(payload)
}
