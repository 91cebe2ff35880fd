package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/sidak/internal/classify"
	"github.com/erazemk/sidak/internal/model"
	"github.com/erazemk/sidak/internal/policy"
	"github.com/erazemk/sidak/internal/report"
	"github.com/erazemk/sidak/internal/store"
)

var (
	exportOut  string
	exportKind string
	importFile string
	importUser string
	resetUser  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the asset register to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openExistingDatabase(cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("creating %s: %w", exportOut, err)
		}
		n, err := exportRegister(cmd.Context(), database, model.Kind(exportKind), f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d assets to %s\n", n, exportOut)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Create assets from an XLSX workbook",
	Long: `Create one asset per row of an XLSX workbook, acting as the named user.

Rows the user may not edit are rejected and listed; the rest are created.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openExistingDatabase(cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()

		result, err := importRegister(cmd.Context(), database, importUser, f)
		if result != nil {
			fmt.Printf("Created %d assets\n", len(result.Created))
			for _, rej := range result.Rejected {
				fmt.Printf("  rejected %s\n", rej)
			}
		}
		return err
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Generate a new password for a user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openExistingDatabase(cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		password, err := resetPassword(cmd.Context(), database, resetUser)
		if err != nil {
			return err
		}
		fmt.Printf("New password for %s: %s\n", resetUser, password)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output XLSX path")
	exportCmd.Flags().StringVar(&exportKind, "kind", "", "only export one kind: item, land or building")
	exportCmd.MarkFlagRequired("out")

	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "XLSX workbook to import")
	importCmd.Flags().StringVarP(&importUser, "user", "u", "", "user the import acts as")
	importCmd.MarkFlagRequired("file")
	importCmd.MarkFlagRequired("user")

	resetPasswordCmd.Flags().StringVarP(&resetUser, "user", "u", "", "user whose password is reset")
	resetPasswordCmd.MarkFlagRequired("user")
}

// exportRegister writes every active asset of the given kind (all kinds when
// empty) to w and returns how many were written.
func exportRegister(ctx context.Context, database *sql.DB, kind model.Kind, w io.Writer) (int, error) {
	switch kind {
	case "", model.KindItem, model.KindLand, model.KindBuilding:
	default:
		return 0, fmt.Errorf("unknown kind %q", kind)
	}

	assets, err := store.ListAssets(ctx, database, store.AssetFilter{})
	if err != nil {
		return 0, err
	}
	if kind != "" {
		filtered := assets[:0]
		for _, a := range assets {
			if classify.KindOf(a.JenisInventaris) == kind {
				filtered = append(filtered, a)
			}
		}
		assets = filtered
	}

	if err := report.Export(w, assets); err != nil {
		return 0, err
	}
	slog.Info("assets exported", "count", len(assets), "kind", kind)
	return len(assets), nil
}

// importRegister imports a workbook on behalf of username under the
// configured access policy.
func importRegister(ctx context.Context, database *sql.DB, username string, r io.Reader) (*report.ImportResult, error) {
	user, err := store.GetUserByUsername(ctx, database, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %q not found", username)
	}
	user.Role = model.NormalizeRole(user.Role)

	im := &report.Importer{
		DB:     database,
		Policy: policy.New(cfg.PolicyConfig()),
		Codes:  classify.NewCodeGenerator(cfg.Codes.Prefixes),
	}
	return im.Import(ctx, user.Principal(), r)
}

// resetPassword gives username a fresh random password and returns it.
func resetPassword(ctx context.Context, database *sql.DB, username string) (string, error) {
	user, err := store.GetUserByUsername(ctx, database, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("user %q not found", username)
	}

	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	if err := store.UpdateUserPassword(ctx, database, user.ID, string(hash)); err != nil {
		return "", err
	}

	slog.Info("user password reset", "target_user", username)
	return password, nil
}
