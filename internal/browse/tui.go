// Package browse is an interactive terminal viewer for a user's delivered
// jobs and configured filters.
package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(1, 0, 1, 2)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle = lipgloss.NewStyle().
			Bold(true)

	jobSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	descBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	filterItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 2)
)

type browseModel struct {
	jobs    []model.Job
	filters []model.Filter

	listViewport   viewport.Model
	detailViewport viewport.Model
	cursor         int
	width          int
	height         int
	ready          bool

	view      viewState
	detailJob model.Job
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.syncListContent()
		}
	case "down", "j":
		if m.cursor < len(m.jobs)-1 {
			m.cursor++
			m.syncListContent()
		}
	case "enter":
		if len(m.jobs) == 0 {
			return m, nil
		}
		m.view = viewDetail
		m.detailJob = m.jobs[m.cursor]
		m.detailViewport = viewport.New(m.width-4, m.height-4)
		m.detailViewport.SetContent(m.renderDetail())
	}
	return m, nil
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	}
	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *browseModel) recalcLayout() {
	// title + status bar + borders
	listHeight := m.height - 7
	if listHeight < jobItemHeight {
		listHeight = jobItemHeight
	}
	if !m.ready {
		m.listViewport = viewport.New(m.width-4, listHeight)
		m.ready = true
	} else {
		m.listViewport.Width = m.width - 4
		m.listViewport.Height = listHeight
	}
	m.syncListContent()
}

// syncListContent re-renders the job list and keeps the cursor visible.
func (m *browseModel) syncListContent() {
	m.listViewport.SetContent(m.renderJobList())

	top := m.cursor * jobItemHeight
	bottom := top + jobItemHeight
	if top < m.listViewport.YOffset {
		m.listViewport.SetYOffset(top)
	} else if bottom > m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(bottom - m.listViewport.Height)
	}
}

func (m browseModel) renderJobList() string {
	if len(m.jobs) == 0 {
		return jobSubtitleStyle.Render("  No delivered jobs yet.")
	}

	var sb strings.Builder
	for i, j := range m.jobs {
		subtitle := j.CreatedAt.Format("Jan 2 15:04")
		if j.Budget != nil {
			subtitle += fmt.Sprintf("  $%d", *j.Budget)
		}
		if j.Category != "" {
			subtitle += "  " + j.Category
		}

		if i == m.cursor {
			sb.WriteString(selectedJobTitleStyle.Render(" "+j.Title+" ") + "\n")
			sb.WriteString(selectedJobSubtitleStyle.Render(" "+subtitle+" ") + "\n\n")
		} else {
			sb.WriteString(jobTitleStyle.Render(" "+j.Title) + "\n")
			sb.WriteString(jobSubtitleStyle.Render(" "+subtitle) + "\n\n")
		}
	}
	return sb.String()
}

func (m browseModel) renderDetail() string {
	j := m.detailJob
	var sb strings.Builder

	sb.WriteString(detailTitleStyle.Render(j.Title) + "\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(detailLabelStyle.Render(label) + value + "\n")
	}
	if j.Budget != nil {
		row("Budget", fmt.Sprintf("$%d", *j.Budget))
	}
	row("Category", j.Category)
	row("Skills", j.Skills)
	row("Posted", j.PostedAt.Format("Jan 2 2006 15:04"))
	row("Delivered", j.CreatedAt.Format("Jan 2 2006 15:04"))
	row("URL", j.URL)

	if j.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(descBodyStyle.Render(j.Description))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m browseModel) renderFilters() string {
	if len(m.filters) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Filters"))
	sb.WriteString("\n")
	for _, f := range m.filters {
		line := fmt.Sprintf("#%d %s", f.ID, f.Keywords)
		if f.ExcludeKeywords != "" {
			line += " (excluding " + f.ExcludeKeywords + ")"
		}
		if !f.Active {
			line += " [paused]"
		}
		sb.WriteString(filterItemStyle.Render(line) + "\n")
	}
	return sb.String()
}

func (m browseModel) View() string {
	if !m.ready {
		return "loading..."
	}

	if m.view == viewDetail {
		status := statusBarStyle.Render("esc back  ↑/↓ scroll  q quit")
		return borderStyle.Render(m.detailViewport.View()) + "\n" + status
	}

	header := titleStyle.Render(fmt.Sprintf("Delivered Jobs (%d)", len(m.jobs)))
	status := statusBarStyle.Render("↑/↓/j/k navigate  enter detail  q quit")
	return header + "\n" +
		borderStyle.Render(m.listViewport.View()) + "\n" +
		m.renderFilters() +
		status
}

// Run opens the interactive viewer over the given jobs and filters.
func Run(jobs []model.Job, filters []model.Filter) error {
	m := browseModel{jobs: jobs, filters: filters}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
