package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var enrichCompanyID int64

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Find decision-makers for a company through the directory session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "enrich", true)
		if err != nil {
			return err
		}
		defer env.Close()

		contacts, err := env.Pipeline.EnrichCompany(ctx, enrichCompanyID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "found %d contacts\n", len(contacts))
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tTITLE\tPERSONA\tFIT\tPROFILE")
		for _, c := range contacts {
			fit := 0.0
			if c.PersonaFitScore != nil {
				fit = *c.PersonaFitScore
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", c.Name, c.Title, c.Persona, fit, c.ProfileURL)
		}
		return tw.Flush()
	},
}

func init() {
	enrichCmd.Flags().Int64Var(&enrichCompanyID, "company-id", 0, "company to enrich")
	_ = enrichCmd.MarkFlagRequired("company-id")
	rootCmd.AddCommand(enrichCmd)
}
