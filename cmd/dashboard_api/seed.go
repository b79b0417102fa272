package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/sampledata"
)

var seedEmail string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo devices and a week of readings for a user",
	Long:  `Registers six demo appliances for an existing account and backfills a week of 20-minute readings for them.`,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedEmail, "email", "", "email of the account to seed (required)")
	seedCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := openStores()
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := st.accounts.UserByEmail(cmd.Context(), seedEmail)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", seedEmail, err)
	}
	devices, err := sampledata.New(st.accounts, st.readings, logger).SeedUser(cmd.Context(), user)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d devices for %s\n", len(devices), user.Email)
	for _, d := range devices {
		fmt.Printf("  %-20s %6.0f W  %s\n", d.Name, d.Wattage, d.Location)
	}
	return nil
}
