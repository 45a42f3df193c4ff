// Command assemble builds JAR, ZIP and TAR archives from filesets described in
// a YAML file, and copies filesets with token substitution.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/meigma/assembly/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "assemble: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "assemble",
		Short:         "Assemble archives from filesets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug / info / warn / error")

	cmd.AddCommand(newBuildCmd(opts), newCopyCmd(opts))
	return cmd
}

// uncloseable hides Close so the logger never closes the process streams.
type uncloseable struct {
	io.Writer
}

func (o *rootOptions) logger(cmd *cobra.Command) (*logging.Logger, error) {
	return logging.New(o.logLevel, uncloseable{cmd.ErrOrStderr()})
}
