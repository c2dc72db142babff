package main

import (
	"github.com/spf13/cobra"
)

type shareFlags struct {
	actor   string
	patient string
	doctor  string
}

func (f *shareFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.actor, "actor", "", "user performing the change (patient or owning doctor)")
	cmd.Flags().StringVar(&f.patient, "patient", "", "patient id")
	cmd.Flags().StringVar(&f.doctor, "doctor", "", "doctor id receiving or losing access")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("patient")
	_ = cmd.MarkFlagRequired("doctor")
}

func newShareCmd(configPath *string) *cobra.Command {
	share := &cobra.Command{
		Use:   "share",
		Short: "Manage doctor-patient sharing grants",
	}

	var grantFlags shareFlags
	grant := &cobra.Command{
		Use:   "grant",
		Short: "Give a doctor access to a patient",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.patients.Share(cmd.Context(), grantFlags.actor, grantFlags.patient, grantFlags.doctor)
			if err != nil {
				return err
			}
			return printJSON(cmd, g)
		},
	}
	grantFlags.bind(grant)

	var revokeFlags shareFlags
	revoke := &cobra.Command{
		Use:   "revoke",
		Short: "Remove a doctor's access to a patient",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.patients.Unshare(cmd.Context(), revokeFlags.actor, revokeFlags.patient, revokeFlags.doctor); err != nil {
				return err
			}
			cmd.Println("sharing revoked")
			return nil
		},
	}
	revokeFlags.bind(revoke)

	share.AddCommand(grant, revoke)
	return share
}
