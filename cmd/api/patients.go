package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinical-records/internal/model"
)

func newPatientsCmd(configPath *string) *cobra.Command {
	patients := &cobra.Command{
		Use:   "patients",
		Short: "Inspect reconciled patient lists",
	}

	var (
		doctorID string
		page     model.PageRequest
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "Print a doctor's owned and shared patients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.patients.ListPatients(cmd.Context(), doctorID, page)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
	list.Flags().StringVar(&doctorID, "doctor", "", "doctor id")
	list.Flags().IntVar(&page.Page, "page", 1, "page number")
	list.Flags().IntVar(&page.PageSize, "page-size", 0, "page size (0 returns everything)")
	_ = list.MarkFlagRequired("doctor")

	patients.AddCommand(list)
	return patients
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
