package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/meigma/assembly"
)

type buildOptions struct {
	file       string
	output     string
	noProgress bool
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	opts := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an archive from a YAML build file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "assembly.yaml", "build file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "override the output path from the build file")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

func runBuild(cmd *cobra.Command, root *rootOptions, opts *buildOptions) error {
	logger, err := root.logger(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	cfg, err := loadConfig(opts.file)
	if err != nil {
		return err
	}
	if opts.output != "" {
		cfg.Output = opts.output
	}
	format, err := cfg.format()
	if err != nil {
		return err
	}

	asmOpts := []assembly.Option{assembly.WithLogger(logger.Logger)}
	if cfg.CompressionLevel != nil {
		asmOpts = append(asmOpts, assembly.WithCompressionLevel(*cfg.CompressionLevel))
	}
	var bar *progressbar.ProgressBar
	if !opts.noProgress {
		bar = newProgressBar(cmd.ErrOrStderr())
		asmOpts = append(asmOpts, assembly.WithProgress(barProgress(bar)))
	}

	a := assembly.New(cfg.resolve(cfg.Output), format, asmOpts...)
	if err := cfg.configure(a); err != nil {
		return err
	}

	res, err := a.Build(cmd.Context())
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, %s, %s\n",
		a.Output(), res.Entries, humanize.Bytes(uint64(res.Descriptor.Size)), res.Descriptor.Digest) //nolint:gosec // size is non-negative
	return nil
}

func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("listing"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
}

// barProgress feeds file byte counts from build events into bar.
func barProgress(bar *progressbar.ProgressBar) assembly.ProgressFunc {
	var total uint64
	return func(ev assembly.ProgressEvent) {
		if ev.Stage != assembly.StageFiles {
			bar.Describe(ev.Stage.String())
			return
		}
		if ev.BytesTotal != total {
			total = ev.BytesTotal
			bar.ChangeMax64(int64(total)) //nolint:gosec // file sizes fit in int64
		}
		bar.Describe(ev.Path)
		_ = bar.Set64(int64(ev.BytesDone)) //nolint:gosec // bounded by total
	}
}
