package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'viewer' CHECK (role IN ('admin', 'editor', 'viewer')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS units (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_units_name_active
    ON units(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS user_units (
    user_id  INTEGER NOT NULL REFERENCES users(id),
    unit     TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (user_id, unit)
);

CREATE TABLE IF NOT EXISTS assets (
    id                 TEXT PRIMARY KEY,
    unit               TEXT NOT NULL DEFAULT '',
    jenis_inventaris   TEXT NOT NULL DEFAULT '',
    nama_barang        TEXT NOT NULL,
    no_kode_barang     TEXT NOT NULL DEFAULT '',
    kode_barang        TEXT NOT NULL DEFAULT '',
    kode_tanah         TEXT NOT NULL DEFAULT '',
    no_register        TEXT NOT NULL DEFAULT '',
    tanggal_input      DATETIME NOT NULL,
    updated_at         DATETIME NOT NULL,
    jumlah_barang      INTEGER NOT NULL DEFAULT 0,
    keadaan_barang     TEXT NOT NULL DEFAULT '',
    kondisi            TEXT NOT NULL DEFAULT '',
    sumber_perolehan   TEXT NOT NULL DEFAULT '',
    asal_usul          TEXT NOT NULL DEFAULT '',
    tahun_pembuatan    TEXT NOT NULL DEFAULT '',
    harga              REAL NOT NULL DEFAULT 0,
    keterangan         TEXT NOT NULL DEFAULT '',
    merk               TEXT NOT NULL DEFAULT '',
    ukuran             TEXT NOT NULL DEFAULT '',
    bahan              TEXT NOT NULL DEFAULT '',
    luas_tanah         REAL NOT NULL DEFAULT 0,
    luas_bangunan      REAL NOT NULL DEFAULT 0,
    status_hak_tanah   TEXT NOT NULL DEFAULT '',
    nomor_sertifikat   TEXT NOT NULL DEFAULT '',
    tanggal_sertifikat TEXT NOT NULL DEFAULT '',
    penggunaan         TEXT NOT NULL DEFAULT '',
    bertingkat         INTEGER NOT NULL DEFAULT 0,
    beton              INTEGER NOT NULL DEFAULT 0,
    alamat             TEXT NOT NULL DEFAULT '',
    latitude           REAL,
    longitude          REAL,
    client_token       TEXT,
    deleted_at         DATETIME
);

CREATE INDEX IF NOT EXISTS idx_assets_unit ON assets(unit) WHERE deleted_at IS NULL;

CREATE UNIQUE INDEX IF NOT EXISTS idx_assets_client_token
    ON assets(client_token) WHERE client_token IS NOT NULL;

CREATE TABLE IF NOT EXISTS asset_events (
    id       INTEGER PRIMARY KEY,
    asset_id TEXT NOT NULL REFERENCES assets(id),
    action   TEXT NOT NULL CHECK (action IN ('created', 'updated', 'deleted', 'imported')),
    username TEXT NOT NULL,
    summary  TEXT,
    at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_asset_events_asset ON asset_events(asset_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
