package reviewconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"appcatalog/internal/bootstrap/logging"
	"appcatalog/internal/domain/catalog"
	"appcatalog/internal/ports"
)

const maxAuditLines = 8

// ReviewService is the part of the catalog service the console drives.
type ReviewService interface {
	ListApps(ctx context.Context) ([]ports.App, error)
	PendingApps(ctx context.Context) ([]ports.App, error)
	PatchApp(ctx context.Context, id string, patch catalog.PatchInput) (ports.App, error)
}

type Options struct {
	// ShowAll lists every app instead of only the undecided ones.
	ShowAll         bool
	RefreshInterval time.Duration
}

type reviewModel struct {
	ctx             context.Context
	service         ReviewService
	showAll         bool
	refreshInterval time.Duration

	apps          []ports.App
	selectedIndex int
	status        string
	auditLogs     []string
}

type appsLoadedMsg struct {
	items []ports.App
	err   error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action string
	appID  string
	result string
	err    error
}

func NewReviewModel(ctx context.Context, service ReviewService, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &reviewModel{
		ctx:             logging.WithAttrs(ctx, slog.String("component", "console.review")),
		service:         service,
		showAll:         options.ShowAll,
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *reviewModel) Init() tea.Cmd {
	return tea.Batch(m.loadAppsCmd(), m.tickCmd())
}

func (m *reviewModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadAppsCmd(), m.tickCmd())
	case appsLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.apps = msg.items
		if len(m.apps) == 0 {
			m.selectedIndex = 0
			m.status = "nothing to review"
			return m, nil
		}
		if m.selectedIndex >= len(m.apps) {
			m.selectedIndex = len(m.apps) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d apps", len(m.apps))
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			m.appendAuditLog(msg.action, msg.appID, "failed", msg.err)
		} else {
			m.status = fmt.Sprintf("%s done: %s", msg.action, msg.result)
			m.appendAuditLog(msg.action, msg.appID, msg.result, nil)
		}
		return m, m.loadAppsCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadAppsCmd()
		case "f":
			m.showAll = !m.showAll
			m.selectedIndex = 0
			return m, m.loadAppsCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.apps)-1 {
				m.selectedIndex++
			}
			return m, nil
		case "a":
			return m, m.patchCmd("approve", catalog.PatchInput{Approval: string(catalog.ApprovalApproved)})
		case "r":
			return m, m.patchCmd("reject", catalog.PatchInput{Approval: string(catalog.ApprovalNotApproved)})
		case "p":
			return m, m.patchCmd("pending", catalog.PatchInput{Approval: string(catalog.ApprovalPending)})
		case "c":
			return m, m.patchCmd("privacy-ok", catalog.PatchInput{Privacy: string(catalog.PrivacyCompliant)})
		case "x":
			return m, m.patchCmd("privacy-bad", catalog.PatchInput{Privacy: string(catalog.PrivacyNotCompliant)})
		}
	}
	return m, nil
}

func (m *reviewModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("App Review"))
	builder.WriteString("\n")
	scope := "pending"
	if m.showAll {
		scope = "all"
	}
	builder.WriteString(dimStyle.Render(fmt.Sprintf("scope=%s refresh=%s", scope, m.refreshInterval)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Queue"))
	builder.WriteString("\n")
	if len(m.apps) == 0 {
		builder.WriteString(dimStyle.Render("- no apps"))
		builder.WriteString("\n\n")
	} else {
		for index, app := range m.apps {
			line := fmt.Sprintf("%s [%s/%s]", app.Name, app.Approval, app.Privacy)
			if index == m.selectedIndex {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if app, ok := m.selectedApp(); ok {
		builder.WriteString(fmt.Sprintf("ID: %s\n", app.ID))
		builder.WriteString(fmt.Sprintf("URL: %s\n", firstNonEmpty(app.URL, "-")))
		builder.WriteString(fmt.Sprintf("Approval: %s\n", app.Approval))
		builder.WriteString(fmt.Sprintf("Privacy: %s\n", app.Privacy))
		builder.WriteString(fmt.Sprintf("Platforms: %s\n", joinOrDash(app.Platforms)))
		builder.WriteString(fmt.Sprintf("Grades: %s\n", joinOrDash(app.Grades)))
		builder.WriteString(fmt.Sprintf("Subjects: %s\n", joinOrDash(app.Subjects)))
		builder.WriteString("\n")
	} else {
		builder.WriteString(dimStyle.Render("- no selection"))
		builder.WriteString("\n\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: ↑/k ↓/j move  a approve  r reject  p pending  c/x privacy  f scope  g refresh  q quit"))
	return builder.String()
}

func (m *reviewModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *reviewModel) loadAppsCmd() tea.Cmd {
	showAll := m.showAll
	return func() tea.Msg {
		var (
			items []ports.App
			err   error
		)
		if showAll {
			items, err = m.service.ListApps(m.ctx)
		} else {
			items, err = m.service.PendingApps(m.ctx)
		}
		return appsLoadedMsg{items: items, err: err}
	}
}

func (m *reviewModel) patchCmd(action string, patch catalog.PatchInput) tea.Cmd {
	app, ok := m.selectedApp()
	if !ok {
		m.status = "no app selected"
		return nil
	}
	appID := app.ID
	m.status = action + " in progress"
	return func() tea.Msg {
		updated, err := m.service.PatchApp(m.ctx, appID, patch)
		if err != nil {
			return actionDoneMsg{action: action, appID: appID, err: err}
		}
		logging.Info(m.ctx, "app reviewed",
			slog.String("app_id", appID),
			slog.String("action", action),
			slog.String("approval", string(updated.Approval)),
			slog.String("privacy", string(updated.Privacy)),
		)
		return actionDoneMsg{
			action: action,
			appID:  appID,
			result: fmt.Sprintf("%s %s/%s", updated.Name, updated.Approval, updated.Privacy),
		}
	}
}

func (m *reviewModel) selectedApp() (ports.App, bool) {
	if len(m.apps) == 0 || m.selectedIndex < 0 || m.selectedIndex >= len(m.apps) {
		return ports.App{}, false
	}
	return m.apps[m.selectedIndex], true
}

func (m *reviewModel) appendAuditLog(action string, appID string, result string, err error) {
	line := fmt.Sprintf("%s %s %s -> %s", time.Now().Format("15:04:05"), action, appID, result)
	if err != nil {
		line += " (" + err.Error() + ")"
	}
	m.auditLogs = append(m.auditLogs, line)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[len(m.auditLogs)-maxAuditLines:]
	}
}

func joinOrDash[E ~string](values []E) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, string(value))
	}
	return strings.Join(parts, ",")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
