package main

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/memegen/meme"
	"github.com/hazyhaar/memegen/memeserver"
)

var (
	makePath   string
	makeBody   string
	makeAuthor string
	makeOut    string
	makeWidth  int
)

var makeCmd = &cobra.Command{
	Use:   "make",
	Short: "Generate one meme and print its path",
	Long: `Composites a quote onto an image. Without --path a random image is taken
from images_dir; without --body a random quote is taken from quote_sources,
with the server's default caption filling an empty body or author.
--author is required whenever --body is given.`,
	Args: cobra.NoArgs,
	RunE: runMake,
}

func init() {
	makeCmd.Flags().StringVar(&makePath, "path", "", "source image")
	makeCmd.Flags().StringVar(&makeBody, "body", "", "quote body")
	makeCmd.Flags().StringVar(&makeAuthor, "author", "", "quote author")
	makeCmd.Flags().StringVar(&makeOut, "out", "", "output directory (default output_dir)")
	makeCmd.Flags().IntVar(&makeWidth, "width", 0, "maximum width (default meme_width)")
}

func runMake(cmd *cobra.Command, _ []string) error {
	cfg := current
	if makeBody != "" && makeAuthor == "" {
		return errors.New("--author is required when --body is given")
	}

	img := makePath
	if img == "" {
		images, err := memeserver.ScanImages(cfg.ImagesDir)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			return fmt.Errorf("no images in %s", cfg.ImagesDir)
		}
		img = images[rand.IntN(len(images))]
	}

	body, author := makeBody, makeAuthor
	if body == "" {
		pipe, err := newPipeline(cfg)
		if err != nil {
			return err
		}
		quotes, err := pipe.Ingest(cmd.Context(), cfg.QuoteSources)
		if err != nil {
			return err
		}
		if len(quotes) == 0 {
			return errors.New("no quotes in quote_sources")
		}
		q := quotes[rand.IntN(len(quotes))]
		body, author = q.Body, q.Author
		if body == "" {
			body = memeserver.DefaultBody
		}
		if author == "" {
			author = memeserver.DefaultAuthor
		}
	}

	out := makeOut
	if out == "" {
		out = cfg.OutputDir
	}
	width := makeWidth
	if width <= 0 {
		width = cfg.MemeWidth
	}

	engine, err := meme.New(out)
	if err != nil {
		return err
	}
	path, err := engine.Make(img, body, author, width)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
