package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/phambaophuc/otsu-watermark/internal/models"
	"github.com/phambaophuc/otsu-watermark/internal/services/pipeline"
	"github.com/spf13/cobra"
)

const usageLine = "otsumark <input_path> [-o <output_path>]"

func newRootCommand() *cobra.Command {
	var outputFlag string

	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:   usageLine,
		Short: "Stamp a centered, translucent OTSU watermark onto an image or video",
		Long: "Stamp a centered, translucent OTSU watermark onto an image or video.\n\n" +
			"Images: " + strings.Join(extensionList(models.ImageExtensions), " ") + "\n" +
			"Videos: " + strings.Join(extensionList(models.VideoExtensions), " ") + "\n\n" +
			"Without -o the result is written next to the input as <name>_watermarked<ext>.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return newUsageError("expected exactly one input path, got %d", len(args))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			wm, err := ctx.newWatermarker()
			if err != nil {
				return err
			}

			res, err := wm.Process(cmd.Context(), args[0], outputFlag)
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output path (default <name>_watermarked<ext> next to the input)")

	rootCmd.AddCommand(newServeCommand(ctx))

	return rootCmd
}

func printSummary(w io.Writer, res *pipeline.Result) {
	fmt.Fprintf(w, "Watermarked %s: %s\n", res.Kind, res.OutputPath)
	fmt.Fprintf(w, "  %dx%d, %s", res.Width, res.Height, humanize.Bytes(uint64(res.Size)))
	if res.Kind == models.KindVideo && res.Duration > 0 {
		fmt.Fprintf(w, ", %.1fs, %s frames", res.Duration, humanize.Comma(int64(res.Frames)))
	}
	fmt.Fprintf(w, ", took %s\n", res.Elapsed.Round(time.Millisecond))
}
