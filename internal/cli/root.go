package cli

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jakoblorz/go-gbuild/internal/filesystem"
	"github.com/jakoblorz/go-gbuild/internal/git"
)

// GlobalFlags are available on every command
type GlobalFlags struct {
	RepoPath string
	Verbose  bool
	Quiet    bool
}

// NewRootCommand creates the root command
func NewRootCommand(fs filesystem.FileSystem, open RepositoryOpener, flags *GlobalFlags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gbuild",
		Short: "Compute semantic versions for the projects in a repository",
		Long: `gbuild derives a version for every project below the source root from
the repository's release tags, the commits on the checked-out branch and the
branch versioning strategy configured in build.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := InitLogger(flags.Verbose, flags.Quiet, cmd.ErrOrStderr())
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.RepoPath, "repo", "C", "", "Run as if gbuild was started in this directory")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Only log warnings and errors")

	// Add subcommands
	rootCmd.AddCommand(NewInitCommand(fs, flags))
	rootCmd.AddCommand(NewVersionCommand(fs, open, flags))
	rootCmd.AddCommand(NewReleasesCommand(fs, open, flags))

	return rootCmd
}

// Execute runs the root command against the working tree and the git repository on disk
func Execute(ctx context.Context, version string) error {
	flags := &GlobalFlags{}
	rootCmd := NewRootCommand(filesystem.NewOSFileSystem(), git.Open, flags)
	rootCmd.Version = version

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger := InitLogger(flags.Verbose, flags.Quiet, os.Stderr)
		logger.Error().Err(err).Msg("gbuild failed")
		return err
	}

	return nil
}

// loggerFrom returns the command logger, or a disabled logger before PersistentPreRun
func loggerFrom(cmd *cobra.Command) zerolog.Logger {
	return *zerolog.Ctx(cmd.Context())
}
