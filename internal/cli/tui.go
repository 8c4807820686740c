package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/branchline/branchline/pkg/graph"
	"github.com/branchline/branchline/pkg/vcs"
)

// pickResolutions runs the interactive conflict picker. It returns the
// chosen resolutions, or ok=false when the user aborted.
func pickResolutions(conflicts []vcs.Conflict) ([]vcs.Resolution, bool, error) {
	model := newConflictModel(conflicts)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, false, err
	}

	m, ok := final.(conflictModel)
	if !ok || m.aborted {
		return nil, false, nil
	}
	return m.resolutions(), true, nil
}

// conflictModel is the bubbletea model for resolving merge conflicts.
type conflictModel struct {
	conflicts []vcs.Conflict
	choices   []vcs.Choice // "" until the user picks a side
	cursor    int
	aborted   bool
	done      bool
}

func newConflictModel(conflicts []vcs.Conflict) conflictModel {
	return conflictModel{
		conflicts: conflicts,
		choices:   make([]vcs.Choice, len(conflicts)),
	}
}

func (m conflictModel) Init() tea.Cmd {
	return nil
}

func (m conflictModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "ctrl+c", "q", "esc":
		m.aborted = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.conflicts)-1 {
			m.cursor++
		}

	case "o", "left":
		m.choices[m.cursor] = vcs.ChoiceOurs
		m.advance()

	case "t", "right":
		m.choices[m.cursor] = vcs.ChoiceTheirs
		m.advance()

	case "enter":
		if m.allChosen() {
			m.done = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m *conflictModel) advance() {
	if m.cursor < len(m.conflicts)-1 {
		m.cursor++
	}
}

func (m conflictModel) allChosen() bool {
	for _, c := range m.choices {
		if c == "" {
			return false
		}
	}
	return true
}

func (m conflictModel) resolutions() []vcs.Resolution {
	if !m.done {
		return nil
	}
	out := make([]vcs.Resolution, len(m.conflicts))
	for i, conflict := range m.conflicts {
		out[i] = vcs.Resolution{
			NodeID: conflict.NodeID,
			EdgeID: conflict.EdgeID,
			Choice: m.choices[i],
		}
	}
	return out
}

func (m conflictModel) View() string {
	if m.aborted || m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Resolve merge conflicts") + "\n\n")

	for i, conflict := range m.conflicts {
		cursor := "  "
		if i == m.cursor {
			cursor = StyleHighlight.Render("> ")
		}

		marker := StyleDim.Render("[ ]")
		switch m.choices[i] {
		case vcs.ChoiceOurs:
			marker = StyleSuccess.Render("[ours]")
		case vcs.ChoiceTheirs:
			marker = StyleSuccess.Render("[theirs]")
		}

		b.WriteString(fmt.Sprintf("%s%s %s %s\n", cursor, marker,
			StyleValue.Render(conflict.Key()), StyleDim.Render(conflict.Kind.String())))
		b.WriteString("      " + StyleDim.Render("ours:   "+describeSnapshot(conflict.Ours)) + "\n")
		b.WriteString("      " + StyleDim.Render("theirs: "+describeSnapshot(conflict.Theirs)) + "\n")
	}

	b.WriteString("\n")
	if m.allChosen() {
		b.WriteString(StyleDim.Render("o ours, t theirs, enter confirm, q abort") + "\n")
	} else {
		b.WriteString(StyleDim.Render("o ours, t theirs, q abort") + "\n")
	}
	return b.String()
}

// describeSnapshot renders one side of a conflict for display.
func describeSnapshot(s vcs.EntitySnapshot) string {
	switch {
	case s.Deleted:
		return "deleted"
	case s.Node != nil:
		return describeNode(*s.Node)
	case s.Edge != nil:
		return describeEdge(*s.Edge)
	default:
		return "absent"
	}
}

func describeNode(n graph.Node) string {
	if n.Label != "" {
		return fmt.Sprintf("%s %q", n.Type, n.Label)
	}
	return n.Type
}

func describeEdge(e graph.Edge) string {
	desc := fmt.Sprintf("%s %s %s", e.Source, iconArrow, e.Target)
	if e.Label != "" {
		desc += fmt.Sprintf(" %q", e.Label)
	}
	return desc
}
