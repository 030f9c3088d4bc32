package cli_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/scandocs/docmatch/cmd/docmatch/cmd"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// scenarioContext carries per-scenario state: a scratch directory for input
// files and the captured output of the last command run.
type scenarioContext struct {
	dir    string
	output string
	err    error
}

func (sc *scenarioContext) aDocumentTextFileContaining(name string, content *godog.DocString) error {
	return os.WriteFile(filepath.Join(sc.dir, name), []byte(content.Content+"\n"), 0o600)
}

func (sc *scenarioContext) runCompare(file1, file2 string) error {
	return sc.run("compare", filepath.Join(sc.dir, file1), filepath.Join(sc.dir, file2),
		"--text", "--format", "text")
}

func (sc *scenarioContext) runCompareWithoutFuzzy(file1, file2 string) error {
	return sc.run("compare", filepath.Join(sc.dir, file1), filepath.Join(sc.dir, file2),
		"--text", "--format", "text", "--fuzzy=false")
}

func (sc *scenarioContext) runExtract(file string) error {
	return sc.run("extract", filepath.Join(sc.dir, file), "--text", "--format", "text")
}

// resetCommandFlags restores default values on every changed flag in the
// command tree, so a flag passed in one scenario does not leak into the next
// through cobra's Changed state.
func resetCommandFlags(c *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		fs.Visit(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	for _, sub := range c.Commands() {
		resetCommandFlags(sub)
	}
}

func (sc *scenarioContext) run(args ...string) error {
	root := cmd.GetRootCommand()
	resetCommandFlags(root)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	sc.err = root.Execute()
	sc.output = out.String()
	return nil
}

func (sc *scenarioContext) theCommandSucceeds() error {
	if sc.err != nil {
		return fmt.Errorf("command failed: %w\noutput:\n%s", sc.err, sc.output)
	}
	return nil
}

func (sc *scenarioContext) theCommandFails() error {
	if sc.err == nil {
		return fmt.Errorf("command unexpectedly succeeded\noutput:\n%s", sc.output)
	}
	return nil
}

func (sc *scenarioContext) theOutputContains(text string) error {
	if !strings.Contains(sc.output, text) {
		return fmt.Errorf("output does not contain %q:\n%s", text, sc.output)
	}
	return nil
}

func (sc *scenarioContext) theOutputDoesNotContain(text string) error {
	if strings.Contains(sc.output, text) {
		return fmt.Errorf("output unexpectedly contains %q:\n%s", text, sc.output)
	}
	return nil
}

// InitializeScenario registers step definitions for each scenario.
func InitializeScenario(scenario *godog.ScenarioContext) {
	sc := &scenarioContext{}

	scenario.Before(func(ctx context.Context, s *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "docmatch-cli-*")
		if err != nil {
			return ctx, err
		}
		sc.dir = dir
		sc.output = ""
		sc.err = nil
		return ctx, nil
	})
	scenario.After(func(ctx context.Context, s *godog.Scenario, err error) (context.Context, error) {
		_ = os.RemoveAll(sc.dir)
		return ctx, nil
	})

	scenario.Step(`^a document text file "([^"]*)" containing:$`, sc.aDocumentTextFileContaining)
	scenario.Step(`^I compare "([^"]*)" and "([^"]*)"$`, sc.runCompare)
	scenario.Step(`^I compare "([^"]*)" and "([^"]*)" with fuzzy matching disabled$`, sc.runCompareWithoutFuzzy)
	scenario.Step(`^I extract identifiers from "([^"]*)"$`, sc.runExtract)
	scenario.Step(`^the command succeeds$`, sc.theCommandSucceeds)
	scenario.Step(`^the command fails$`, sc.theCommandFails)
	scenario.Step(`^the output contains "([^"]*)"$`, sc.theOutputContains)
	scenario.Step(`^the output does not contain "([^"]*)"$`, sc.theOutputDoesNotContain)
}

// TestFeatures runs the Godog test suite over all local feature files.
func TestFeatures(t *testing.T) {
	entries, err := os.ReadDir("features")
	if err != nil {
		t.Fatalf("failed to read features directory: %v", err)
	}

	format := os.Getenv("GODOG_FORMAT")
	if format == "" {
		format = "pretty"
	}

	found := false
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".feature") {
			continue
		}
		found = true
		featurePath := filepath.Join("features", e.Name())

		t.Run(e.Name(), func(t *testing.T) {
			suite := godog.TestSuite{
				ScenarioInitializer: InitializeScenario,
				Options: &godog.Options{
					Format:   format,
					Paths:    []string{featurePath},
					TestingT: t,
				},
			}

			if suite.Run() != 0 {
				t.Fatalf("non-zero status returned for %s", featurePath)
			}
		})
	}

	if !found {
		t.Fatalf("no .feature files found in features/")
	}
}
