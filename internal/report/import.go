package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/erazemk/sidak/internal/classify"
	"github.com/erazemk/sidak/internal/model"
	"github.com/erazemk/sidak/internal/policy"
	"github.com/erazemk/sidak/internal/store"
)

var (
	// ErrImportNotPermitted is returned when the importing user may not create assets.
	ErrImportNotPermitted = errors.New("import not permitted")
	// ErrBadWorkbook is returned when the upload is not a readable XLSX file.
	ErrBadWorkbook = errors.New("unreadable workbook")
)

// ImportError describes one rejected spreadsheet row.
type ImportError struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Row, e.Reason)
}

// Row is one parsed spreadsheet row.
type Row struct {
	Sheet  string
	Number int
	Asset  model.Asset
}

// ImportResult summarises an import.
type ImportResult struct {
	Created  []string       `json:"created"`
	Rejected []*ImportError `json:"rejected"`
}

// Read parses every sheet of a workbook. The first row of each sheet is the
// header; unknown headers are ignored and blank rows are skipped. A row that
// cannot be parsed is returned as an ImportError, never as the error result.
func Read(r io.Reader) ([]Row, []*ImportError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var rows []Row
	var rejected []*ImportError
	for _, sheet := range f.GetSheetList() {
		cells, err := f.GetRows(sheet)
		if err != nil {
			return nil, nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		if len(cells) == 0 {
			continue
		}

		cols := make([]*column, len(cells[0]))
		for i, h := range cells[0] {
			if c, ok := columnByHeader(h); ok && c.set != nil {
				cols[i] = &c
			}
		}

		for n, cellRow := range cells[1:] {
			number := n + 2
			if blankRow(cellRow) {
				continue
			}
			a, err := parseRow(cols, cellRow)
			if err == nil && strings.TrimSpace(a.NamaBarang) == "" {
				err = errors.New("missing Nama Barang")
			}
			if err != nil {
				rejected = append(rejected, &ImportError{Sheet: sheet, Row: number, Reason: err.Error()})
				continue
			}
			if a.JenisInventaris == "" {
				a.JenisInventaris = defaultJenis(sheet)
			}
			rows = append(rows, Row{Sheet: sheet, Number: number, Asset: a})
		}
	}
	return rows, rejected, nil
}

func parseRow(cols []*column, cells []string) (model.Asset, error) {
	var a model.Asset
	for i, v := range cells {
		if i >= len(cols) || cols[i] == nil {
			continue
		}
		if err := cols[i].set(&a, strings.TrimSpace(v)); err != nil {
			return a, fmt.Errorf("%s: %w", cols[i].header, err)
		}
	}
	return a, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// defaultJenis names the jenis of a row whose Jenis Inventaris cell is empty,
// so rows on the Tanah and Bangunan sheets classify as land and buildings.
func defaultJenis(sheet string) string {
	for _, sk := range sheetKinds {
		if strings.EqualFold(sheet, sk.name) {
			return sk.name
		}
	}
	return ""
}

// Importer creates assets from a workbook on behalf of a user.
type Importer struct {
	DB     *sql.DB
	Policy policy.Policy
	Codes  *classify.CodeGenerator
}

// Import reads a workbook and creates one asset per accepted row. Rows the
// user may not edit are rejected. Items without a code get the next free
// auto-generated one. Store failures abort the import; the result then holds
// what was created so far.
func (im *Importer) Import(ctx context.Context, u model.Principal, r io.Reader) (*ImportResult, error) {
	if !im.Policy.CanCreate(u) {
		return nil, ErrImportNotPermitted
	}

	rows, rejected, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWorkbook, err)
	}
	result := &ImportResult{Created: []string{}, Rejected: rejected}
	if result.Rejected == nil {
		result.Rejected = []*ImportError{}
	}

	existing, err := store.ListAssetCodes(ctx, im.DB)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		a := row.Asset
		if err := a.Validate(); err != nil {
			result.Rejected = append(result.Rejected, &ImportError{
				Sheet: row.Sheet, Row: row.Number, Reason: err.Error(),
			})
			continue
		}
		if !im.Policy.CanEdit(u, &a) {
			result.Rejected = append(result.Rejected, &ImportError{
				Sheet: row.Sheet, Row: row.Number,
				Reason: fmt.Sprintf("no access to unit %q", a.Unit),
			})
			continue
		}
		if classify.NeedsCode(&a) {
			a.NoKodeBarang = im.Codes.Next(a.JenisInventaris, existing)
		}

		if _, err := store.EnsureUnit(ctx, im.DB, a.Unit); err != nil {
			return result, err
		}
		created, err := store.CreateAsset(ctx, im.DB, &a, "")
		if err != nil {
			return result, fmt.Errorf("%s row %d: %w", row.Sheet, row.Number, err)
		}
		summary := fmt.Sprintf("imported from %s row %d", row.Sheet, row.Number)
		if err := store.RecordEvent(ctx, im.DB, created.ID, model.EventImported, u.Username, summary); err != nil {
			return result, err
		}

		existing = append(existing, *created)
		result.Created = append(result.Created, created.ID)
	}

	slog.Info("assets imported", "user", u.Username,
		"created", len(result.Created), "rejected", len(result.Rejected))
	return result, nil
}
