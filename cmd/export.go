package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadscout/internal/export"
)

var (
	exportCompanyID int64
	exportOut       string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a company's contacts, pages and outreach drafts to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "read", false)
		if err != nil {
			return err
		}
		defer env.Close()

		detail, err := env.Pipeline.GetCompany(ctx, exportCompanyID)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = fmt.Sprintf("%s-contacts.xlsx", detail.Domain)
		}
		if err := export.WriteContacts(out, detail); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d contacts to %s\n", len(detail.Contacts), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().Int64Var(&exportCompanyID, "company-id", 0, "company to export")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default <domain>-contacts.xlsx)")
	_ = exportCmd.MarkFlagRequired("company-id")
	rootCmd.AddCommand(exportCmd)
}
