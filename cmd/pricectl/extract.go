package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/price-tracker/internal/ingest"
	"github.com/joseph-ayodele/price-tracker/internal/llm"
	"github.com/joseph-ayodele/price-tracker/internal/pipeline"
)

type extractFlags struct {
	storeID  string
	location string
	copy     bool
}

func (f *extractFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.storeID, "store-id", "", "attribute records to this store")
	cmd.Flags().StringVar(&f.location, "location", "", "where the photo was taken")
	cmd.Flags().BoolVar(&f.copy, "copy", true, "copy images into the upload directory")
}

func (f *extractFlags) options() (ingest.Options, error) {
	id, err := parseStoreID(f.storeID)
	if err != nil {
		return ingest.Options{}, err
	}
	return ingest.Options{StoreID: id, Location: f.location}, nil
}

func extractCommand(c *cli) *cobra.Command {
	var flags extractFlags
	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract prices from one price-tag image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			data, err := llm.ReadImage(args[0])
			if err != nil {
				return err
			}
			imagePath := filepath.ToSlash(args[0])
			if flags.copy {
				if imagePath, err = a.Images.Save(filepath.Base(args[0]), data); err != nil {
					return err
				}
			}
			recs, err := a.Processor.ExtractAndSave(cmd.Context(), pipeline.ExtractRequest{
				Image:            data,
				ImagePath:        imagePath,
				StoreID:          opts.StoreID,
				Location:         opts.Location,
				OriginalFilename: filepath.Base(args[0]),
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), recs)
		},
	}
	flags.bind(cmd)
	return cmd
}

func extractDirCommand(c *cli) *cobra.Command {
	var flags extractFlags
	var skipHidden bool
	cmd := &cobra.Command{
		Use:   "extract-dir <dir>",
		Short: "Extract prices from every image under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			opts.SkipHidden = skipHidden
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			var store *ingest.ImageStore
			if flags.copy {
				store = a.Images
			}
			results, stats, err := ingest.NewDirectory(a.Processor, store, a.Logger).Run(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"files": results, "stats": stats})
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip dot files and directories")
	return cmd
}

func watchCommand(c *cli) *cobra.Command {
	var flags extractFlags
	var debounce time.Duration
	var initial bool
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Extract prices from images as they appear in drop folders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			var store *ingest.ImageStore
			if flags.copy {
				store = a.Images
			}
			dir := ingest.NewDirectory(a.Processor, store, a.Logger)
			paths, errs, err := ingest.StartWatcher(cmd.Context(), ingest.WatchConfig{
				Roots:       args,
				InitialScan: initial,
				Debounce:    debounce,
			}, a.Logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %v, Ctrl-C to stop\n", args)
			for {
				select {
				case p, ok := <-paths:
					if !ok {
						return nil
					}
					if err := printJSON(cmd.OutOrStdout(), dir.Process(cmd.Context(), p, opts)); err != nil {
						return err
					}
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
				}
			}
		},
	}
	flags.bind(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "coalesce bursts of file events")
	cmd.Flags().BoolVar(&initial, "initial-scan", false, "also process images already present")
	return cmd
}
