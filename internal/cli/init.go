package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/kitci/internal/config"
	kerrors "github.com/AndreyAkinshin/kitci/internal/errors"
	"github.com/AndreyAkinshin/kitci/internal/filelock"
	"github.com/AndreyAkinshin/kitci/internal/project"
)

// schemaURL is written into new config files for editor completion.
const schemaURL = "https://kitci.dev/schema/config.schema.json"

// gitignoreMarker heads the block kitci adds to .gitignore.
const gitignoreMarker = "# kitci"

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create .kitci/config.json in the current directory",
		Long: `Create a minimal .kitci/config.json and add kitci's output to .gitignore.
Existing files are left untouched, so init can be run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runInit()
		},
	}
}

func (a *app) runInit() error {
	configDir := filepath.Join(a.dir, project.ConfigDirName)
	configPath := filepath.Join(configDir, project.ConfigFileName)

	var created []string
	isNew := false

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		isNew = true
		doc := struct {
			Schema string `json:"$schema"`
			*config.Config
		}{
			Schema: schemaURL,
			Config: &config.Config{
				Project: config.ProjectConfig{Name: sanitizeProjectName(filepath.Base(a.dir))},
			},
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		if err := filelock.AtomicWrite(configPath, append(data, '\n')); err != nil {
			return kerrors.Environmentf("could not create %s: %v", configPath, err)
		}
		created = append(created, filepath.Join(project.ConfigDirName, project.ConfigFileName))
	} else if err != nil {
		return err
	}

	if added, err := updateGitignore(a.dir); err != nil {
		a.out.WarningSimple("could not update .gitignore: %v", err)
	} else if added {
		created = append(created, ".gitignore")
	}

	a.out.Println("")
	switch {
	case isNew:
		a.out.Success("Initialized kitci project: %s", filepath.Base(a.dir))
	case len(created) > 0:
		a.out.Success("Updated kitci project")
	default:
		a.out.Info("Project already initialized (nothing to do)")
	}
	if len(created) > 0 {
		a.out.Section("Created or updated:")
		a.out.List(created)
	}
	if isNew {
		a.out.Section("Next steps:")
		a.out.Println("  1. Run 'kitci discover' to list the modules found in this repository")
		a.out.Println("  2. Edit .kitci/config.json to set the test engine command if needed")
		a.out.Println("  3. Run 'kitci test' to run the test stage")
		a.out.Println("")
	}
	return nil
}

// sanitizeProjectName converts a directory name to a valid project name.
func sanitizeProjectName(name string) string {
	name = strings.ToLower(name)

	var result strings.Builder
	prevHyphen := false
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			result.WriteRune(c)
			prevHyphen = false
		} else if !prevHyphen && result.Len() > 0 {
			result.WriteRune('-')
			prevHyphen = true
		}
	}

	s := strings.TrimSuffix(result.String(), "-")
	if s == "" {
		s = "resource-kit"
	}
	return s
}

// updateGitignore appends kitci's generated files to .gitignore once.
func updateGitignore(root string) (bool, error) {
	path := filepath.Join(root, ".gitignore")

	existing := ""
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if strings.Contains(existing, gitignoreMarker) {
		return false, nil
	}

	var content strings.Builder
	if existing != "" {
		content.WriteString(existing)
		if !strings.HasSuffix(existing, "\n") {
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}
	for _, entry := range []string{
		gitignoreMarker,
		config.DefaultOutputDir + "/",
		config.DefaultResultsFile,
		config.DefaultEngineLogFile,
	} {
		fmt.Fprintln(&content, entry)
	}

	return true, os.WriteFile(path, []byte(content.String()), 0644)
}
