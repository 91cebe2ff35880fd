package model

import (
	"errors"
	"strings"
	"time"
)

// Asset is one inventory record: a movable item, a land parcel, or a building.
// Fields mirror the columns of the legacy register, so several of them are
// aliases of each other (see package classify for how they are resolved).
type Asset struct {
	ID              string `json:"id"`
	Unit            string `json:"unit"`
	JenisInventaris string `json:"jenisInventaris"`
	NamaBarang      string `json:"namaBarang"`

	NoKodeBarang string `json:"noKodeBarang,omitempty"`
	KodeBarang   string `json:"kodeBarang,omitempty"`
	KodeTanah    string `json:"kodeTanah,omitempty"`
	NoRegister   string `json:"noRegister,omitempty"`

	TanggalInput time.Time `json:"tanggalInput"`
	UpdatedAt    time.Time `json:"updatedAt"`

	JumlahBarang  int    `json:"jumlahBarang,omitempty"`
	KeadaanBarang string `json:"keadaanBarang,omitempty"`
	Kondisi       string `json:"kondisi,omitempty"`

	SumberPerolehan string  `json:"sumberPerolehan,omitempty"`
	AsalUsul        string  `json:"asalUsul,omitempty"`
	TahunPembuatan  string  `json:"tahunPembuatan,omitempty"`
	Harga           float64 `json:"harga,omitempty"`
	Keterangan      string  `json:"keterangan,omitempty"`

	// Items.
	Merk   string `json:"merk,omitempty"`
	Ukuran string `json:"ukuran,omitempty"`
	Bahan  string `json:"bahan,omitempty"`

	// Land and buildings.
	LuasTanah         float64  `json:"luasTanah,omitempty"`
	LuasBangunan      float64  `json:"luasBangunan,omitempty"`
	StatusHakTanah    string   `json:"statusHakTanah,omitempty"`
	NomorSertifikat   string   `json:"nomorSertifikat,omitempty"`
	TanggalSertifikat string   `json:"tanggalSertifikat,omitempty"`
	Penggunaan        string   `json:"penggunaan,omitempty"`
	Bertingkat        bool     `json:"bertingkat,omitempty"`
	Beton             bool     `json:"beton,omitempty"`
	Alamat            string   `json:"alamat,omitempty"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`

	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Validate trims the unit and name of a and checks the fields every asset
// must satisfy.
func (a *Asset) Validate() error {
	a.Unit = strings.TrimSpace(a.Unit)
	a.NamaBarang = strings.TrimSpace(a.NamaBarang)
	if a.NamaBarang == "" {
		return errors.New("namaBarang required")
	}
	if a.JumlahBarang < 0 {
		return errors.New("jumlahBarang must not be negative")
	}
	if a.Harga < 0 {
		return errors.New("harga must not be negative")
	}
	return nil
}

// KeepCodes copies the code fields of stored into a when a carries none.
func (a *Asset) KeepCodes(stored *Asset) {
	if a.NoKodeBarang != "" || a.KodeBarang != "" || a.KodeTanah != "" {
		return
	}
	a.NoKodeBarang = stored.NoKodeBarang
	a.KodeBarang = stored.KodeBarang
	a.KodeTanah = stored.KodeTanah
}

// Kind is the asset shape derived from JenisInventaris.
type Kind string

// Asset kinds.
const (
	KindItem     Kind = "item"
	KindLand     Kind = "land"
	KindBuilding Kind = "building"
)

// Item conditions.
const (
	ConditionBaik        = "Baik"
	ConditionRusakRingan = "Rusak Ringan"
	ConditionRusakBerat  = "Rusak Berat"
)

// Conditions lists the accepted item conditions in display order.
var Conditions = []string{ConditionBaik, ConditionRusakRingan, ConditionRusakBerat}

// AssetEvent is one entry in an asset's change history.
type AssetEvent struct {
	ID       int64     `json:"id"`
	AssetID  string    `json:"asset_id"`
	Action   string    `json:"action"`
	Username string    `json:"username"`
	Summary  string    `json:"summary,omitempty"`
	At       time.Time `json:"at"`
}

// Asset event actions.
const (
	EventCreated  = "created"
	EventUpdated  = "updated"
	EventDeleted  = "deleted"
	EventImported = "imported"
)
