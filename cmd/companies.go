package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadscout/internal/model"
)

var (
	companiesTier         string
	companiesStage        string
	companiesPersonaMatch string
	companiesLimit        int
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Inspect stored companies",
}

var companiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		filter, err := companyFilterFromFlags(companiesTier, companiesStage, companiesPersonaMatch, companiesLimit)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "read", false)
		if err != nil {
			return err
		}
		defer env.Close()

		companies, err := env.Pipeline.ListCompanies(ctx, filter)
		if err != nil {
			return err
		}
		return writeCompanies(cmd.OutOrStdout(), companies)
	},
}

func init() {
	f := companiesListCmd.Flags()
	f.StringVar(&companiesTier, "tier", "", "filter by ICP tier (A, B, C, D)")
	f.StringVar(&companiesStage, "stage", "", "filter by buying stage")
	f.StringVar(&companiesPersonaMatch, "persona-match", "", "filter by persona match (true or false)")
	f.IntVar(&companiesLimit, "limit", 50, "max companies to list (0 for all)")
	companiesCmd.AddCommand(companiesListCmd)
	rootCmd.AddCommand(companiesCmd)
}

func companyFilterFromFlags(tier, stage, personaMatch string, limit int) (model.CompanyFilter, error) {
	var f model.CompanyFilter
	if tier != "" {
		f.Tier = model.Tier(tier)
		if !f.Tier.Valid() {
			return f, eris.Errorf("invalid tier %q", tier)
		}
	}
	if stage != "" {
		st, ok := model.ParseBuyingStage(stage)
		if !ok {
			return f, eris.Errorf("invalid stage %q", stage)
		}
		f.Stage = st
	}
	switch personaMatch {
	case "":
	case "true":
		t := true
		f.PersonaMatch = &t
	case "false":
		b := false
		f.PersonaMatch = &b
	default:
		return f, eris.Errorf("invalid persona-match %q", personaMatch)
	}
	if limit < 0 {
		return f, eris.Errorf("invalid limit %d", limit)
	}
	f.Limit = limit
	return f, nil
}

func writeCompanies(w io.Writer, companies []model.CompanySummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOMAIN\tTIER\tSCORE\tSTAGE\tINTENT\tCONTACTS\tMATCHED")
	for _, c := range companies {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%d\t%d\t%d\n",
			c.ID, c.Name, c.Domain, c.ICPTier, c.ICPScore, c.BuyingStage,
			c.IntentScore, c.ContactStats.Total, c.ContactStats.Matched)
	}
	return tw.Flush()
}
