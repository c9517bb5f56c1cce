package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakoblorz/go-gbuild/internal/config"
	"github.com/jakoblorz/go-gbuild/internal/filesystem"
	"github.com/jakoblorz/go-gbuild/internal/workspace"
)

// InitCommand handles the init command
type InitCommand struct {
	fs    filesystem.FileSystem
	flags *GlobalFlags
}

// NewInitCommand creates a new init command
func NewInitCommand(fs filesystem.FileSystem, flags *GlobalFlags) *cobra.Command {
	cmd := &InitCommand{
		fs:    fs,
		flags: flags,
	}

	cobraCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default build.yaml to the repository root",
		Long: `Writes build.yaml with the default branch versioning strategies:
master without a prerelease tag, develop tagged "dev" and feature branches
tagged "dev-<feature>".`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().Bool("overwrite", false, "Replace an existing build.yaml")

	return cobraCmd
}

// Run executes the init command
func (c *InitCommand) Run(cmd *cobra.Command, args []string) error {
	overwrite, _ := cmd.Flags().GetBool("overwrite")
	logger := loggerFrom(cmd)

	cwd, err := c.fs.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	start := c.flags.RepoPath
	if start == "" {
		start = cwd
	}

	root, err := workspace.FindRoot(c.fs, start)
	if err != nil {
		return err
	}

	path := config.Path(root)
	logger.Info().
		Str("cwd", cwd).
		Str("root", root).
		Str("path", path).
		Msg("writing configuration")

	if _, err := config.Write(c.fs, root, config.Defaults(), overwrite); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("✓ Wrote "+path))
	return nil
}
