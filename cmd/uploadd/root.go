package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/uploadkit/pkg/config"
)

type rootOptions struct {
	envFiles []string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "uploadd",
		Short:         "Multipart upload service",
		Long:          `uploadd accepts multipart/form-data uploads, validates them and stores the files on disk, in S3 or in MongoDB GridFS.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"},
		"dotenv files to load before reading UPLOAD_* variables (missing files are skipped)")

	cmd.AddCommand(newServeCommand(opts))
	return cmd
}

func (o *rootOptions) loadConfig() (Config, error) {
	return config.Load[Config](
		config.WithPrefix("UPLOAD_"),
		config.WithEnvFiles(o.envFiles...),
		config.WithOptionalEnvFiles(),
	)
}
