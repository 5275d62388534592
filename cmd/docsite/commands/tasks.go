package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"git.home.luguber.info/inful/docsite/internal/tasks"
)

// TasksCmd lists the registered tasks with their dependencies and plans.
type TasksCmd struct{}

func (t *TasksCmd) Run(ctx context.Context, cli *CLI) error {
	s, err := openSession(ctx, cli)
	if err != nil {
		return err
	}
	defer s.Close()

	reg := s.seq.Registry()
	tbl := newTable(cli).Headers("TASK", "DEPENDS ON", "PLAN", "DESCRIPTION")
	for _, name := range reg.Names() {
		task, err := reg.Resolve(name)
		if err != nil {
			return err
		}
		tbl.Row(name, strings.Join(task.Deps, ", "), tasks.FormatPlan(task.Plan), task.Description)
	}
	_, err = fmt.Fprintln(cli.stdout(), tbl.Render())
	return err
}

// newTable returns a borderless table styled for the command's output writer.
func newTable(cli *CLI) *table.Table {
	r := lipgloss.NewRenderer(cli.stdout())
	header := r.NewStyle().Bold(true).PaddingRight(2)
	cell := r.NewStyle().PaddingRight(2)
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}
