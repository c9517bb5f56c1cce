package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakoblorz/go-gbuild/internal/filesystem"
	"github.com/jakoblorz/go-gbuild/internal/generator"
	"github.com/jakoblorz/go-gbuild/internal/models"
	"github.com/jakoblorz/go-gbuild/internal/strategy"
)

// VersionCommand handles the version command
type VersionCommand struct {
	fs    filesystem.FileSystem
	open  RepositoryOpener
	flags *GlobalFlags
}

// VersionOutput is the JSON output of the version command
type VersionOutput struct {
	Branch   string               `json:"branch"`
	Strategy string               `json:"strategy"`
	Parent   string               `json:"parent,omitempty"`
	Projects []ProjectVersionInfo `json:"projects"`
}

// ProjectVersionInfo is the version computed for one project
type ProjectVersionInfo struct {
	Name        string `json:"name"`
	Directory   string `json:"directory"`
	Version     string `json:"version"`
	Base        string `json:"base"`
	CommitCount int    `json:"commitCount"`
	Breaking    bool   `json:"breaking"`
}

// NewVersionCommand creates a new version command
func NewVersionCommand(fs filesystem.FileSystem, open RepositoryOpener, flags *GlobalFlags) *cobra.Command {
	cmd := &VersionCommand{
		fs:    fs,
		open:  open,
		flags: flags,
	}

	cobraCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of every project on the current branch",
		Long: `Computes each project's version from its latest release, the commits on the
current branch and the branch versioning strategy.

With --project only that project's version is printed, which is convenient
for build scripts.`,
		Example: `  # Versions of all projects
  gbuild version

  # Version of one project, as a plain string
  gbuild version --project api

  # Pretend to be on another branch (e.g. on a detached CI checkout)
  gbuild version --branch feature/login --output json`,
		Args: cobra.NoArgs,
		RunE: cmd.Run,
	}

	cobraCmd.Flags().StringP("project", "p", "", "Only print the version of this project")
	cobraCmd.Flags().StringP("branch", "b", "", "Branch to version for (default: the checked-out branch)")
	cobraCmd.Flags().StringP("output", "o", outputText, "Output format: text or json")
	cobraCmd.Flags().Bool("merged", false, "Only consider release tags reachable from HEAD")

	return cobraCmd
}

// Run executes the version command
func (c *VersionCommand) Run(cmd *cobra.Command, args []string) error {
	projectFlag, _ := cmd.Flags().GetString("project")
	branch, _ := cmd.Flags().GetString("branch")
	output, _ := cmd.Flags().GetString("output")
	mergedOnly, _ := cmd.Flags().GetBool("merged")

	if err := validateOutput(output); err != nil {
		return err
	}

	loader := &contextLoader{fs: c.fs, open: c.open, logger: loggerFrom(cmd), mergedOnly: mergedOnly}
	bc, err := loader.load(cmd.Context(), c.flags.RepoPath, branch)
	if err != nil {
		return err
	}

	projects := bc.Workspace.Projects
	if projectFlag != "" {
		project, err := bc.Workspace.GetProject(projectFlag)
		if err != nil {
			return err
		}
		projects = []models.Project{project}
	}

	gen, err := bc.Generator()
	if err != nil {
		return err
	}

	versions, err := gen.GetVersions(projects)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s := bc.Strategy()

	if output == outputJSON {
		return writeJSON(out, newVersionOutput(s, versions))
	}

	if projectFlag != "" {
		fmt.Fprintln(out, versions[0].Version.String())
		return nil
	}

	fmt.Fprintln(out, TitleStyle.Render(fmt.Sprintf("Versions for %s", strategy.ShortBranch(s.Branch()))))
	if parent := s.ParentRef(); parent != "" {
		fmt.Fprintln(out, SubtleStyle.Render(fmt.Sprintf("strategy %s, parent %s", s.Name(), strategy.ShortBranch(parent))))
	} else {
		fmt.Fprintln(out, SubtleStyle.Render(fmt.Sprintf("strategy %s", s.Name())))
	}
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		rows = append(rows, []string{
			v.Project.Name,
			v.Version.String(),
			v.Base.String(),
			strconv.Itoa(v.CommitCount),
			yesNo(v.Breaking),
		})
	}

	return writeTable(out, []string{"Project", "Version", "Base", "Commits", "Breaking"}, rows)
}

func newVersionOutput(s *strategy.BranchVersioningStrategy, versions []generator.ProjectVersion) VersionOutput {
	result := VersionOutput{
		Branch:   strategy.ShortBranch(s.Branch()),
		Strategy: s.Name(),
		Parent:   strategy.ShortBranch(s.ParentRef()),
		Projects: make([]ProjectVersionInfo, 0, len(versions)),
	}

	for _, v := range versions {
		result.Projects = append(result.Projects, ProjectVersionInfo{
			Name:        v.Project.Name,
			Directory:   v.Project.Directory,
			Version:     v.Version.String(),
			Base:        v.Base.String(),
			CommitCount: v.CommitCount,
			Breaking:    v.Breaking,
		})
	}

	return result
}
