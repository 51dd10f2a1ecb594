package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/v2"

	"github.com/cruciblehq/harness/internal/recipe"
)

// Represents the 'harness recipe' command group.
type RecipeCmd struct {
	List     RecipeListCmd     `cmd:"" help:"List built-in recipes."`
	Show     RecipeShowCmd     `cmd:"" help:"Show a recipe."`
	Validate RecipeValidateCmd `cmd:"" help:"Check recipes against what the engine accepts."`
	Apply    RecipeApplyCmd    `cmd:"" help:"Print the effective configuration of a recipe."`
}

// Represents the 'harness recipe list' command.
type RecipeListCmd struct{}

// Executes the list command.
func (c *RecipeListCmd) Run(ctx context.Context) error {
	for _, name := range recipe.Builtins() {
		fmt.Println(name)
	}
	return nil
}

// Represents the 'harness recipe show' command.
type RecipeShowCmd struct {
	Name string `arg:"" help:"Recipe file or built-in name."`
	All  bool   `short:"a" help:"List every key of the document and its data document."`
}

// Executes the show command.
func (c *RecipeShowCmd) Run(ctx context.Context) error {
	r, err := recipe.Resolve(c.Name)
	if err != nil {
		return err
	}

	var rows [][]string
	if c.All {
		rows = allKeys(r)
	} else {
		rows = summary(r)
	}

	fmt.Println(r.Source)
	fmt.Println(renderTable(rows))
	return nil
}

// Returns the fields most often looked up in a recipe.
func summary(r *recipe.Recipe) [][]string {
	rows := [][]string{
		{"model", r.Model.ClassPath},
	}
	if r.Model.Optimizer != nil {
		rows = append(rows, []string{"optimizer", r.Model.Optimizer.ClassPath})
		if lr, ok := r.Model.Optimizer.InitArgs["lr"]; ok {
			rows = append(rows, []string{"learning rate", fmt.Sprint(lr)})
		}
	}
	for _, s := range r.Model.Schedulers {
		rows = append(rows, []string{"scheduler", s.ClassPath})
	}
	rows = append(rows,
		[]string{"task", r.Engine.Task},
		[]string{"device", r.Engine.Device},
		[]string{"callback monitor", r.CallbackMonitor},
		[]string{"data", r.Data},
	)
	if n, ok := r.MaxEpochs(); ok {
		rows = append(rows, []string{"max epochs", strconv.Itoa(n)})
	}
	for _, cb := range r.Callbacks {
		rows = append(rows, []string{"callback", cb.ClassPath})
	}
	return rows
}

// Returns every key of the recipe followed by the keys of its loaded data
// document under "data.".
func allKeys(r *recipe.Recipe) [][]string {
	var rows [][]string
	for _, e := range r.Flatten() {
		rows = append(rows, []string{e.Key, e.Value})
	}
	if data := r.DataConfig(); data != nil {
		for _, key := range data.Keys() {
			rows = append(rows, []string{"data." + key, fmt.Sprint(data.Get(key))})
		}
	}
	return rows
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Renders key/value rows as a bordered table.
func renderTable(rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEY", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

// Represents the 'harness recipe validate' command.
type RecipeValidateCmd struct {
	Names []string `arg:"" optional:"" help:"Recipe files or built-in names. Defaults to every built-in recipe."`
}

// Executes the validate command.
//
// Every recipe is checked. The command fails when any of them is invalid.
func (c *RecipeValidateCmd) Run(ctx context.Context) error {
	names := c.Names
	if len(names) == 0 {
		names = recipe.Builtins()
	}

	var errs error
	failed := 0
	for _, name := range names {
		r, err := recipe.Resolve(name)
		if err == nil {
			err = r.Validate()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid %s: %v\n", name, err)
			errs = errors.CombineErrors(errs, err)
			failed++
			continue
		}
		fmt.Printf("ok %s\n", r.Source)
	}

	if errs != nil {
		return errors.Mark(errors.Wrapf(errs, "%d of %d recipe(s) failed", failed, len(names)), recipe.ErrInvalid)
	}
	return nil
}

// Represents the 'harness recipe apply' command.
type RecipeApplyCmd struct {
	Name     string `arg:"" help:"Recipe file or built-in name."`
	Defaults string `type:"existingfile" help:"YAML document with the engine defaults the recipe is applied on." placeholder:"PATH"`
}

// Executes the apply command.
func (c *RecipeApplyCmd) Run(ctx context.Context) error {
	r, err := recipe.Resolve(c.Name)
	if err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}

	var defaults *koanf.Koanf
	if c.Defaults != "" {
		if defaults, err = recipe.LoadDocument(c.Defaults); err != nil {
			return err
		}
	}

	effective, err := r.Apply(defaults)
	if err != nil {
		return err
	}

	out, err := recipe.Marshal(effective)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(out)
	return err
}
