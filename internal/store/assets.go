package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/sidak/internal/model"
)

// timeLayout is how timestamps are written to SQLite.
const timeLayout = "2006-01-02 15:04:05.999999999-07:00"

const assetColumns = `id, unit, jenis_inventaris, nama_barang,
	no_kode_barang, kode_barang, kode_tanah, no_register,
	tanggal_input, updated_at, jumlah_barang, keadaan_barang, kondisi,
	sumber_perolehan, asal_usul, tahun_pembuatan, harga, keterangan,
	merk, ukuran, bahan, luas_tanah, luas_bangunan, status_hak_tanah,
	nomor_sertifikat, tanggal_sertifikat, penggunaan, bertingkat, beton,
	alamat, latitude, longitude, deleted_at`

// AssetFilter narrows ListAssets. Empty fields match everything.
type AssetFilter struct {
	Unit  string
	Jenis string // case-insensitive substring of jenis_inventaris
	Query string // case-insensitive substring of name or any code column
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*model.Asset, error) {
	a := &model.Asset{}
	var lat, lng sql.NullFloat64
	err := row.Scan(&a.ID, &a.Unit, &a.JenisInventaris, &a.NamaBarang,
		&a.NoKodeBarang, &a.KodeBarang, &a.KodeTanah, &a.NoRegister,
		&a.TanggalInput, &a.UpdatedAt, &a.JumlahBarang, &a.KeadaanBarang, &a.Kondisi,
		&a.SumberPerolehan, &a.AsalUsul, &a.TahunPembuatan, &a.Harga, &a.Keterangan,
		&a.Merk, &a.Ukuran, &a.Bahan, &a.LuasTanah, &a.LuasBangunan, &a.StatusHakTanah,
		&a.NomorSertifikat, &a.TanggalSertifikat, &a.Penggunaan, &a.Bertingkat, &a.Beton,
		&a.Alamat, &lat, &lng, &a.DeletedAt)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		a.Latitude = &lat.Float64
	}
	if lng.Valid {
		a.Longitude = &lng.Float64
	}
	return a, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// CreateAsset stores a new asset. The ID and TanggalInput on a are ignored and
// assigned here. A non-empty clientToken makes the call idempotent: a second
// create with the same token returns the asset created by the first.
func CreateAsset(ctx context.Context, db *sql.DB, a *model.Asset, clientToken string) (*model.Asset, error) {
	if clientToken != "" {
		existing, err := GetAssetByClientToken(ctx, db, clientToken)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(timeLayout)
	var token sql.NullString
	if clientToken != "" {
		token = sql.NullString{String: clientToken, Valid: true}
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO assets (`+strings.Replace(assetColumns, "deleted_at", "client_token", 1)+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, a.Unit, a.JenisInventaris, a.NamaBarang,
		a.NoKodeBarang, a.KodeBarang, a.KodeTanah, a.NoRegister,
		now, now, a.JumlahBarang, a.KeadaanBarang, a.Kondisi,
		a.SumberPerolehan, a.AsalUsul, a.TahunPembuatan, a.Harga, a.Keterangan,
		a.Merk, a.Ukuran, a.Bahan, a.LuasTanah, a.LuasBangunan, a.StatusHakTanah,
		a.NomorSertifikat, a.TanggalSertifikat, a.Penggunaan, a.Bertingkat, a.Beton,
		a.Alamat, nullFloat(a.Latitude), nullFloat(a.Longitude), token,
	)
	if err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	return GetAsset(ctx, db, id)
}

// GetAsset returns an asset by ID, including soft-deleted ones.
func GetAsset(ctx context.Context, db *sql.DB, id string) (*model.Asset, error) {
	a, err := scanAsset(db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return a, nil
}

// GetAssetByClientToken returns the asset created with the given idempotency token.
func GetAssetByClientToken(ctx context.Context, db *sql.DB, token string) (*model.Asset, error) {
	a, err := scanAsset(db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE client_token = ?`, token,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset by client token: %w", err)
	}
	return a, nil
}

// ListAssets returns all non-deleted assets matching f, oldest first.
func ListAssets(ctx context.Context, db *sql.DB, f AssetFilter) ([]model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE deleted_at IS NULL`
	var args []any
	if f.Unit != "" {
		query += ` AND unit = ?`
		args = append(args, f.Unit)
	}
	if f.Jenis != "" {
		query += ` AND LOWER(jenis_inventaris) LIKE ?`
		args = append(args, "%"+strings.ToLower(f.Jenis)+"%")
	}
	if f.Query != "" {
		q := "%" + strings.ToLower(f.Query) + "%"
		query += ` AND (LOWER(nama_barang) LIKE ? OR LOWER(no_kode_barang) LIKE ?
		           OR LOWER(kode_barang) LIKE ? OR LOWER(kode_tanah) LIKE ?)`
		args = append(args, q, q, q, q)
	}
	query += ` ORDER BY tanggal_input, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

// ListAssetCodes returns the jenis and code columns of every asset, deleted
// ones included, so generated codes are never reused.
func ListAssetCodes(ctx context.Context, db *sql.DB) ([]model.Asset, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT jenis_inventaris, no_kode_barang, kode_barang, kode_tanah FROM assets`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing asset codes: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.JenisInventaris, &a.NoKodeBarang, &a.KodeBarang, &a.KodeTanah); err != nil {
			return nil, fmt.Errorf("scanning asset code: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// UpdateAsset writes the mutable fields of a. The ID and TanggalInput columns
// are never changed.
func UpdateAsset(ctx context.Context, db *sql.DB, a *model.Asset) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assets SET unit = ?, jenis_inventaris = ?, nama_barang = ?,
		        no_kode_barang = ?, kode_barang = ?, kode_tanah = ?, no_register = ?,
		        updated_at = ?, jumlah_barang = ?, keadaan_barang = ?, kondisi = ?,
		        sumber_perolehan = ?, asal_usul = ?, tahun_pembuatan = ?, harga = ?, keterangan = ?,
		        merk = ?, ukuran = ?, bahan = ?, luas_tanah = ?, luas_bangunan = ?, status_hak_tanah = ?,
		        nomor_sertifikat = ?, tanggal_sertifikat = ?, penggunaan = ?, bertingkat = ?, beton = ?,
		        alamat = ?, latitude = ?, longitude = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		a.Unit, a.JenisInventaris, a.NamaBarang,
		a.NoKodeBarang, a.KodeBarang, a.KodeTanah, a.NoRegister,
		time.Now().UTC().Format(timeLayout), a.JumlahBarang, a.KeadaanBarang, a.Kondisi,
		a.SumberPerolehan, a.AsalUsul, a.TahunPembuatan, a.Harga, a.Keterangan,
		a.Merk, a.Ukuran, a.Bahan, a.LuasTanah, a.LuasBangunan, a.StatusHakTanah,
		a.NomorSertifikat, a.TanggalSertifikat, a.Penggunaan, a.Bertingkat, a.Beton,
		a.Alamat, nullFloat(a.Latitude), nullFloat(a.Longitude),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating asset: %w", err)
	}
	return nil
}

// DeleteAsset soft-deletes an asset.
func DeleteAsset(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE assets SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting asset: %w", err)
	}
	return nil
}

// CountAssetsInUnit returns the number of active assets in a unit.
func CountAssetsInUnit(ctx context.Context, db *sql.DB, unit string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assets WHERE unit = ? AND deleted_at IS NULL`, unit,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting unit assets: %w", err)
	}
	return count, nil
}
