package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/memegen/quotepipe"
)

var (
	ingestParallel  int
	ingestKeepGoing bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <files...>",
	Short: "Extract quotes from files and print them as JSON",
	Long: `Parses each file with the parser registered for its extension and prints the
concatenated quotes, in file order, as a JSON array of {"body","author"}.

By default the first failing file aborts the run. With --keep-going every file
is attempted, the quotes of the good ones are printed, and the command fails
at the end if any file did.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestParallel, "parallel", 0, "files parsed concurrently (0 = sequential)")
	ingestCmd.Flags().BoolVar(&ingestKeepGoing, "keep-going", false, "report failing files instead of aborting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	pipe, err := newPipeline(current)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var quotes []quotepipe.Quote
	failed := 0
	switch {
	case ingestKeepGoing:
		for _, res := range pipe.IngestEach(ctx, args) {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Summary())
			if res.Err != nil {
				failed++
				continue
			}
			quotes = append(quotes, res.Quotes...)
		}
	case ingestParallel > 0:
		quotes, err = pipe.IngestParallel(ctx, args, ingestParallel)
	default:
		quotes, err = pipe.Ingest(ctx, args)
	}
	if err != nil {
		return err
	}

	if quotes == nil {
		quotes = []quotepipe.Quote{}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(quotes); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
