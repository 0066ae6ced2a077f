package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bundlescope/pkg/render/nodelink"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// roleStyles colors the role column.
var roleStyles = map[nodelink.Role]lipgloss.Style{
	nodelink.RoleExported:    lipgloss.NewStyle().Foreground(colorGreen),
	nodelink.RolePrivate:     lipgloss.NewStyle().Foreground(colorGray),
	nodelink.RoleUnreachable: lipgloss.NewStyle().Foreground(colorOrange),
	nodelink.RoleExternal:    lipgloss.NewStyle().Foreground(colorDim),
}

// browseCommand creates the interactive package browser.
func (c *CLI) browseCommand() *cobra.Command {
	var opts setupOpts

	cmd := &cobra.Command{
		Use:   "browse <jar|dir>",
		Short: "Explore the packages of a jar interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.analyzeOne(cmd.Context(), args[0], &opts)
			if err != nil {
				return err
			}
			defer a.Close()

			m := NewPackageListModel(packageRows(packageGraph(a)))
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithAltScreen()).Run()
			return err
		},
	}
	opts.register(cmd)
	return cmd
}

// =============================================================================
// PackageListModel - Interactive package list
// =============================================================================

// packageRow is one package of the browser.
type packageRow struct {
	Name    string
	Role    nodelink.Role
	Version string
	Uses    []string
	UsedBy  []string
}

// packageRows flattens a package graph into sorted rows, contained
// packages first.
func packageRows(g nodelink.Graph) []packageRow {
	usedBy := make(map[string][]string)
	names := make(map[string]bool)
	for from, used := range g.Uses {
		names[from] = true
		for _, to := range used {
			names[to] = true
			usedBy[to] = append(usedBy[to], from)
		}
	}
	for n := range g.Nodes {
		names[n] = true
	}

	rows := make([]packageRow, 0, len(names))
	for n := range names {
		node := g.Nodes[n]
		uses := slices.Clone(g.Uses[n])
		slices.Sort(uses)
		by := usedBy[n]
		slices.Sort(by)
		rows = append(rows, packageRow{Name: n, Role: node.Role, Version: node.Version, Uses: uses, UsedBy: by})
	}
	slices.SortFunc(rows, func(a, b packageRow) int {
		ea, eb := a.Role == nodelink.RoleExternal, b.Role == nodelink.RoleExternal
		if ea != eb {
			if ea {
				return 1
			}
			return -1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return rows
}

// PackageListModel is the bubbletea model for browsing packages.
type PackageListModel struct {
	Rows   []packageRow
	Cursor int
	Height int
	Offset int
	Detail bool
}

// NewPackageListModel creates a new package list model.
func NewPackageListModel(rows []packageRow) PackageListModel {
	return PackageListModel{Rows: rows, Height: 15}
}

func (m PackageListModel) Init() tea.Cmd {
	return nil
}

func (m PackageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.Detail {
				m.Detail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if !m.Detail && m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if !m.Detail && m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Rows) > 0 {
				m.Detail = !m.Detail
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m PackageListModel) View() string {
	if m.Detail && m.Cursor < len(m.Rows) {
		return m.detailView(m.Rows[m.Cursor])
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Packages"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))
	var rows [][]string
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		version := r.Version
		if version == "" {
			version = "—"
		}
		rows = append(rows, []string{cursor, r.Name, r.Role.String(), version,
			fmt.Sprint(len(r.Uses)), fmt.Sprint(len(r.UsedBy))})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Role", "Version", "Uses", "Used by").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHead
			}
			idx := m.Offset + row
			if idx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			if idx == m.Cursor && col != 2 {
				return listSelectedStyle
			}
			if col == 2 {
				return roleStyles[m.Rows[idx].Role]
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))
	return b.String()
}

func (m PackageListModel) detailView(r packageRow) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(r.Name))
	b.WriteString(" ")
	b.WriteString(roleStyles[r.Role].Render(r.Role.String()))
	if r.Version != "" {
		b.WriteString(StyleDim.Render(" " + r.Version))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")

	section := func(title string, names []string) {
		b.WriteString(styleTableHead.Render(title))
		b.WriteString("\n")
		if len(names) == 0 {
			b.WriteString(listDimStyle.Render("  none"))
			b.WriteString("\n")
		}
		for _, n := range names {
			b.WriteString("  " + n + "\n")
		}
		b.WriteString("\n")
	}
	section("Uses", r.Uses)
	section("Used by", r.UsedBy)
	return b.String()
}
