package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakoblorz/go-gbuild/internal/filesystem"
	"github.com/jakoblorz/go-gbuild/internal/models"
	"github.com/jakoblorz/go-gbuild/internal/workspace"
)

// ReleasesCommand handles the releases command
type ReleasesCommand struct {
	fs    filesystem.FileSystem
	open  RepositoryOpener
	flags *GlobalFlags
}

// ReleaseInfo is one release in the JSON output of the releases command
type ReleaseInfo struct {
	Tag       string            `json:"tag"`
	Commit    string            `json:"commit"`
	Timestamp time.Time         `json:"timestamp"`
	Versions  map[string]string `json:"versions"`
}

// NewReleasesCommand creates a new releases command
func NewReleasesCommand(fs filesystem.FileSystem, open RepositoryOpener, flags *GlobalFlags) *cobra.Command {
	cmd := &ReleasesCommand{
		fs:    fs,
		open:  open,
		flags: flags,
	}

	cobraCmd := &cobra.Command{
		Use:   "releases",
		Short: "List the releases reconstructed from tags, newest first",
		Long: `Lists every tag that releases one or more projects,
together with the version of each project as of that release.

A tag releases a project when it is named <project>/<version> or
<project>@v<version>, or when it is an annotated tag whose message starts with
front matter mapping project names to versions.`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringP("output", "o", outputText, "Output format: text or json")
	cobraCmd.Flags().Bool("merged", false, "Only list tags reachable from HEAD")

	return cobraCmd
}

// Run executes the releases command
func (c *ReleasesCommand) Run(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	mergedOnly, _ := cmd.Flags().GetBool("merged")
	if err := validateOutput(output); err != nil {
		return err
	}

	loader := &contextLoader{fs: c.fs, open: c.open, logger: loggerFrom(cmd), mergedOnly: mergedOnly}
	root, cfg, repo, err := loader.locate(cmd.Context(), c.flags.RepoPath)
	if err != nil {
		return err
	}

	projects, err := workspace.DiscoverProjects(c.fs, root, cfg.SourceCodeRoot)
	if err != nil {
		return fmt.Errorf("failed to load workspace: %w", err)
	}

	releases, err := loader.releases(cmd.Context(), repo, projects)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if output == outputJSON {
		infos := make([]ReleaseInfo, 0, len(releases))
		for _, r := range releases {
			infos = append(infos, newReleaseInfo(r))
		}
		return writeJSON(out, infos)
	}

	if len(releases) == 0 {
		fmt.Fprintln(out, SubtleStyle.Render("No releases found"))
		return nil
	}

	rows := make([][]string, 0, len(releases))
	for _, r := range releases {
		rows = append(rows, []string{
			r.Name,
			r.Timestamp.UTC().Format(time.RFC3339),
			shortHash(r.Commit),
			formatVersions(r),
		})
	}

	return writeTable(out, []string{"Tag", "Date", "Commit", "Versions"}, rows)
}

func newReleaseInfo(r models.Release) ReleaseInfo {
	versions := make(map[string]string, len(r.VersionNumbers))
	for p, v := range r.VersionNumbers {
		versions[p.Name] = v.String()
	}

	return ReleaseInfo{
		Tag:       r.Name,
		Commit:    r.Commit,
		Timestamp: r.Timestamp.UTC(),
		Versions:  versions,
	}
}

// formatVersions renders "api 1.2.0, web 0.3.0"
func formatVersions(r models.Release) string {
	parts := make([]string, 0, len(r.VersionNumbers))
	for _, p := range r.Projects() {
		parts = append(parts, p.Name+" "+r.VersionNumbers[p].String())
	}
	return strings.Join(parts, ", ")
}
