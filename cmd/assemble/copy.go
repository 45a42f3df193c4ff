package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/assembly/copier"
	"github.com/meigma/assembly/fileset"
)

type copyOptions struct {
	dest     string
	dirs     []string
	includes []string
	excludes []string
	tokens   []string
	patterns []string
	workers  int
}

func newCopyCmd(root *rootOptions) *cobra.Command {
	opts := &copyOptions{}
	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy filesets into a directory, substituting tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCopy(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.dest, "dest", "d", "", "destination directory")
	cmd.Flags().StringArrayVar(&opts.dirs, "dir", nil, "source directory, may be repeated")
	cmd.Flags().StringArrayVar(&opts.includes, "include", nil, "include pattern applied to every source")
	cmd.Flags().StringArrayVar(&opts.excludes, "exclude", nil, "exclude pattern applied to every source")
	cmd.Flags().StringArrayVar(&opts.tokens, "token", nil, "TOKEN=VALUE substitution, may be repeated")
	cmd.Flags().StringArrayVar(&opts.patterns, "pattern", nil, "REGEXP=VALUE substitution split at the last =, may be repeated")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "files copied concurrently (0 uses GOMAXPROCS)")
	_ = cmd.MarkFlagRequired("dest")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func runCopy(cmd *cobra.Command, root *rootOptions, opts *copyOptions) error {
	logger, err := root.logger(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	includes, err := fileset.CompilePatterns(opts.includes...)
	if err != nil {
		return err
	}
	excludes, err := fileset.CompilePatterns(opts.excludes...)
	if err != nil {
		return err
	}

	c := copier.New(opts.dest, copier.WithWorkers(opts.workers), copier.WithLogger(logger.Logger))
	for _, dir := range opts.dirs {
		s := fileset.New(dir, fileset.WithIncludePatterns(includes...), fileset.WithExcludePatterns(excludes...))
		if err := c.AddFileSet(s); err != nil {
			return err
		}
	}
	for _, t := range opts.tokens {
		token, value, ok := strings.Cut(t, "=")
		if !ok || token == "" {
			return fmt.Errorf("invalid --token %q: want TOKEN=VALUE", t)
		}
		c.AddToken(token, value)
	}
	for _, p := range opts.patterns {
		i := strings.LastIndex(p, "=")
		if i <= 0 {
			return fmt.Errorf("invalid --pattern %q: want REGEXP=VALUE", p)
		}
		re, err := regexp.Compile(p[:i])
		if err != nil {
			return fmt.Errorf("invalid --pattern %q: %w", p, err)
		}
		c.AddPattern(re, p[i+1:])
	}

	stats, err := c.Copy(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "copied %d files, %s\n", stats.Files, humanize.Bytes(stats.Bytes))
	return nil
}
