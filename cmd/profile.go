package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadscout/internal/model"
)

var profileFile string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the active target profile",
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the active target profile from a YAML or JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := readProfileFile(profileFile)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "read", false)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Pipeline.SaveProfile(ctx, p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved profile %q (id %d)\n", p.Name, p.ID)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active target profile as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "read", false)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.Pipeline.ActiveProfile(ctx)
		if err != nil {
			return err
		}
		return writeProfile(cmd.OutOrStdout(), p)
	},
}

func init() {
	profileSetCmd.Flags().StringVar(&profileFile, "file", "", "profile file (.yaml, .yml or .json)")
	_ = profileSetCmd.MarkFlagRequired("file")
	profileCmd.AddCommand(profileSetCmd, profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}

func readProfileFile(path string) (*model.TargetProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read profile file %s", path)
	}
	return parseProfile(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

func parseProfile(data []byte, isJSON bool) (*model.TargetProfile, error) {
	var p model.TargetProfile
	if isJSON {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrap(err, "decode profile json")
		}
		return &p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "decode profile yaml")
	}
	return &p, nil
}

func writeProfile(w io.Writer, p *model.TargetProfile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return eris.Wrap(err, "encode profile")
	}
	return enc.Close()
}
