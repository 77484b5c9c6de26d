package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/pipeline"
)

func reviewCommand(c *cli) *cobra.Command {
	var (
		name   string
		price  float64
		action string
	)
	cmd := &cobra.Command{
		Use:   "review <record-id>",
		Short: "Edit a record and optionally approve it (--action APPROVE)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("record id %q is not a UUID", args[0])
			}
			var review pipeline.ReviewCommand
			if cmd.Flags().Changed("name") {
				review.Name = &name
			}
			if cmd.Flags().Changed("price") {
				if price < 0 {
					return fmt.Errorf("price must not be negative")
				}
				review.Price = &price
			}
			review.Action = constants.ReviewAction(action)

			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			rec, err := a.Processor.ReviewRecord(cmd.Context(), id, review)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "corrected product name")
	cmd.Flags().Float64Var(&price, "price", 0, "corrected price")
	cmd.Flags().StringVar(&action, "action", "", "APPROVE to approve; anything else only edits")
	return cmd
}

type pageFlags struct {
	number int
	size   int
}

func (p *pageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&p.number, "page", 1, "page number")
	cmd.Flags().IntVar(&p.size, "page-size", constants.DefaultPageSize, "records per page")
}

func (p *pageFlags) page() entity.Page {
	return entity.Page{Number: p.number, Size: p.size}
}

func pendingCommand(c *cli) *cobra.Command {
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List records waiting for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			page, err := a.Processor.ListPendingReview(cmd.Context(), pf.page())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	pf.bind(cmd)
	return cmd
}

type filterFlags struct {
	product string
	storeID string
	status  string
	from    string
	to      string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.product, "product", "", "case-insensitive product name match")
	cmd.Flags().StringVar(&f.storeID, "store-id", "", "only records of this store")
	cmd.Flags().StringVar(&f.status, "status", "", "AUTO_APPROVED, PENDING_REVIEW, APPROVED or REJECTED")
	cmd.Flags().StringVar(&f.from, "from", "", "first day, YYYY-MM-DD (UTC)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, YYYY-MM-DD (UTC, inclusive)")
}

func (f *filterFlags) filter() (entity.RecordFilter, error) {
	out := entity.RecordFilter{ProductName: f.product}
	var err error
	if out.StoreID, err = parseStoreID(f.storeID); err != nil {
		return out, err
	}
	if f.status != "" {
		if out.Status, err = constants.ParseStatus(f.status); err != nil {
			return out, err
		}
	}
	if f.from != "" {
		t, err := time.ParseInLocation(time.DateOnly, f.from, time.UTC)
		if err != nil {
			return out, fmt.Errorf("--from must be YYYY-MM-DD")
		}
		out.From = &t
	}
	if f.to != "" {
		t, err := time.ParseInLocation(time.DateOnly, f.to, time.UTC)
		if err != nil {
			return out, fmt.Errorf("--to must be YYYY-MM-DD")
		}
		next := t.AddDate(0, 0, 1)
		out.To = &next
	}
	return out, nil
}

func listCommand(c *cli) *cobra.Command {
	var ff filterFlags
	var pf pageFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := ff.filter()
			if err != nil {
				return err
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			page, err := a.Processor.ListRecords(cmd.Context(), filter, pf.page())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	ff.bind(cmd)
	pf.bind(cmd)
	return cmd
}

func exportCommand(c *cli) *cobra.Command {
	var ff filterFlags
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write matching records to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := ff.filter()
			if err != nil {
				return err
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			data, err := a.Export.ExportRecordsXLSX(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	ff.bind(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "prices.xlsx", "output file")
	return cmd
}
