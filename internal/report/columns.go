package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/erazemk/sidak/internal/classify"
	"github.com/erazemk/sidak/internal/model"
)

// Sheet names, one per asset kind, in workbook order.
const (
	SheetItems     = "Barang"
	SheetLand      = "Tanah"
	SheetBuildings = "Bangunan"
)

var sheetKinds = []struct {
	name string
	kind model.Kind
}{
	{SheetItems, model.KindItem},
	{SheetLand, model.KindLand},
	{SheetBuildings, model.KindBuilding},
}

// column maps one spreadsheet column to an asset field. set is nil for
// columns that are exported but never imported.
type column struct {
	header string
	width  float64
	value  func(a *model.Asset) any
	set    func(a *model.Asset, v string) error
}

var (
	colID = column{"ID", 38, func(a *model.Asset) any { return a.ID }, nil}

	colUnit = column{"Unit", 20,
		func(a *model.Asset) any { return a.Unit },
		func(a *model.Asset, v string) error { a.Unit = v; return nil }}

	colJenis = column{"Jenis Inventaris", 20,
		func(a *model.Asset) any { return a.JenisInventaris },
		func(a *model.Asset, v string) error { a.JenisInventaris = v; return nil }}

	colNama = column{"Nama Barang", 30,
		func(a *model.Asset) any { return a.NamaBarang },
		func(a *model.Asset, v string) error { a.NamaBarang = v; return nil }}

	colKode = column{"Kode", 15,
		func(a *model.Asset) any { return classify.Code(a) },
		func(a *model.Asset, v string) error { a.NoKodeBarang = v; return nil }}

	colRegister = column{"No Register", 12,
		func(a *model.Asset) any { return a.NoRegister },
		func(a *model.Asset, v string) error { a.NoRegister = v; return nil }}

	colTahun = column{"Tahun Pembuatan", 12,
		func(a *model.Asset) any { return a.TahunPembuatan },
		func(a *model.Asset, v string) error { a.TahunPembuatan = v; return nil }}

	colSumber = column{"Sumber Perolehan", 18,
		func(a *model.Asset) any { return classify.Source(a) },
		func(a *model.Asset, v string) error { a.SumberPerolehan = v; return nil }}

	colHarga = column{"Harga", 15,
		func(a *model.Asset) any { return a.Harga },
		func(a *model.Asset, v string) (err error) { a.Harga, err = parseFloat(v); return err }}

	colKeterangan = column{"Keterangan", 30,
		func(a *model.Asset) any { return a.Keterangan },
		func(a *model.Asset, v string) error { a.Keterangan = v; return nil }}

	colTanggal = column{"Tanggal Input", 20,
		func(a *model.Asset) any {
			if a.TanggalInput.IsZero() {
				return ""
			}
			return a.TanggalInput.Format("2006-01-02 15:04:05")
		}, nil}

	colMerk = column{"Merk", 15,
		func(a *model.Asset) any { return a.Merk },
		func(a *model.Asset, v string) error { a.Merk = v; return nil }}

	colUkuran = column{"Ukuran", 12,
		func(a *model.Asset) any { return a.Ukuran },
		func(a *model.Asset, v string) error { a.Ukuran = v; return nil }}

	colBahan = column{"Bahan", 12,
		func(a *model.Asset) any { return a.Bahan },
		func(a *model.Asset, v string) error { a.Bahan = v; return nil }}

	colJumlah = column{"Jumlah", 10,
		func(a *model.Asset) any { return a.JumlahBarang },
		func(a *model.Asset, v string) (err error) { a.JumlahBarang, err = parseInt(v); return err }}

	colKondisi = column{"Kondisi", 15,
		func(a *model.Asset) any { return classify.Condition(a) },
		func(a *model.Asset, v string) error { a.KeadaanBarang = v; return nil }}

	colLuasTanah = column{"Luas Tanah", 12,
		func(a *model.Asset) any { return a.LuasTanah },
		func(a *model.Asset, v string) (err error) { a.LuasTanah, err = parseFloat(v); return err }}

	colLuasBangunan = column{"Luas Bangunan", 14,
		func(a *model.Asset) any { return a.LuasBangunan },
		func(a *model.Asset, v string) (err error) { a.LuasBangunan, err = parseFloat(v); return err }}

	colStatusHak = column{"Status Hak", 15,
		func(a *model.Asset) any { return a.StatusHakTanah },
		func(a *model.Asset, v string) error { a.StatusHakTanah = v; return nil }}

	colSertifikat = column{"Nomor Sertifikat", 18,
		func(a *model.Asset) any { return a.NomorSertifikat },
		func(a *model.Asset, v string) error { a.NomorSertifikat = v; return nil }}

	colTanggalSertifikat = column{"Tanggal Sertifikat", 18,
		func(a *model.Asset) any { return a.TanggalSertifikat },
		func(a *model.Asset, v string) error { a.TanggalSertifikat = v; return nil }}

	colPenggunaan = column{"Penggunaan", 20,
		func(a *model.Asset) any { return a.Penggunaan },
		func(a *model.Asset, v string) error { a.Penggunaan = v; return nil }}

	colBertingkat = column{"Bertingkat", 10,
		func(a *model.Asset) any { return yesNo(a.Bertingkat) },
		func(a *model.Asset, v string) error { a.Bertingkat = parseBool(v); return nil }}

	colBeton = column{"Beton", 10,
		func(a *model.Asset) any { return yesNo(a.Beton) },
		func(a *model.Asset, v string) error { a.Beton = parseBool(v); return nil }}

	colAlamat = column{"Alamat", 30,
		func(a *model.Asset) any { return a.Alamat },
		func(a *model.Asset, v string) error { a.Alamat = v; return nil }}

	colLatitude = column{"Latitude", 12,
		func(a *model.Asset) any { return optFloat(a.Latitude) },
		func(a *model.Asset, v string) (err error) { a.Latitude, err = parseOptFloat(v); return err }}

	colLongitude = column{"Longitude", 12,
		func(a *model.Asset) any { return optFloat(a.Longitude) },
		func(a *model.Asset, v string) (err error) { a.Longitude, err = parseOptFloat(v); return err }}
)

var kindColumns = map[model.Kind][]column{
	model.KindItem: {
		colID, colUnit, colJenis, colNama, colKode, colRegister,
		colMerk, colUkuran, colBahan, colJumlah, colKondisi,
		colTahun, colSumber, colHarga, colKeterangan, colTanggal,
	},
	model.KindLand: {
		colID, colUnit, colJenis, colNama, colKode, colRegister,
		colLuasTanah, colStatusHak, colSertifikat, colTanggalSertifikat, colPenggunaan,
		colAlamat, colLatitude, colLongitude,
		colTahun, colSumber, colHarga, colKeterangan, colTanggal,
	},
	model.KindBuilding: {
		colID, colUnit, colJenis, colNama, colKode, colRegister,
		colLuasBangunan, colLuasTanah, colBertingkat, colBeton, colKondisi,
		colStatusHak, colSertifikat, colTanggalSertifikat,
		colAlamat, colLatitude, colLongitude,
		colTahun, colSumber, colHarga, colKeterangan, colTanggal,
	},
}

// columnByHeader resolves a header cell to its column, case-insensitively.
func columnByHeader(header string) (column, bool) {
	header = strings.ToLower(strings.TrimSpace(header))
	for _, cols := range kindColumns {
		for _, c := range cols {
			if strings.ToLower(c.header) == header {
				return c, true
			}
		}
	}
	return column{}, false
}

func yesNo(b bool) string {
	if b {
		return "Ya"
	}
	return "Tidak"
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "ya", "y", "yes", "true", "1":
		return true
	}
	return false
}

func optFloat(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}

func parseFloat(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	return f, nil
}

func parseOptFloat(v string) (*float64, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	f, err := parseFloat(v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("not a whole number: %q", v)
	}
	return n, nil
}
