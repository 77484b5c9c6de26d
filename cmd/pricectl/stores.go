package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/stores"
)

func storesCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "Manage stores",
	}

	var req stores.CreateStoreRequest
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a store, or show the existing one with that name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			req.StoreName = args[0]
			st, created, err := a.StoreSvc.CreateStore(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"store": st, "created": created})
		},
	}
	add.Flags().StringVar(&req.Channel, "channel", "", "sales channel")
	add.Flags().StringVar(&req.Branch, "branch", "", "branch name")
	add.Flags().StringVar(&req.Manager, "manager", "", "manager name")

	var filter entity.StoreFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List stores by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			out, err := a.StoreSvc.ListStores(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	list.Flags().StringVar(&filter.StoreName, "name", "", "case-insensitive name match")
	list.Flags().StringVar(&filter.Channel, "channel", "", "case-insensitive channel match")
	list.Flags().StringVar(&filter.Branch, "branch", "", "case-insensitive branch match")

	cmd.AddCommand(add, list)
	return cmd
}
