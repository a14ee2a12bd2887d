package reviewconsole

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"appcatalog/internal/domain/catalog"
	"appcatalog/internal/ports"
)

type stubReviewService struct {
	apps    []ports.App
	patches map[string]catalog.PatchInput
	err     error
}

func (s *stubReviewService) ListApps(context.Context) ([]ports.App, error) {
	return s.apps, nil
}

func (s *stubReviewService) PendingApps(context.Context) ([]ports.App, error) {
	var out []ports.App
	for _, app := range s.apps {
		if app.Approval.NeedsReview() {
			out = append(out, app)
		}
	}
	return out, nil
}

func (s *stubReviewService) PatchApp(_ context.Context, id string, patch catalog.PatchInput) (ports.App, error) {
	if s.err != nil {
		return ports.App{}, s.err
	}
	if s.patches == nil {
		s.patches = make(map[string]catalog.PatchInput)
	}
	s.patches[id] = patch
	for i, app := range s.apps {
		if app.ID == id {
			if patch.Approval != "" {
				s.apps[i].Approval = catalog.ApprovalStatus(patch.Approval)
			}
			return s.apps[i], nil
		}
	}
	return ports.App{}, catalog.ErrAppNotFound
}

func newStub() *stubReviewService {
	return &stubReviewService{apps: []ports.App{
		{ID: "a1", Name: "Desmos", Approval: catalog.ApprovalApproved, Privacy: catalog.PrivacyCompliant},
		{ID: "a2", Name: "Kahoot", Approval: catalog.ApprovalPending, Privacy: catalog.PrivacyUnknown},
		{ID: "a3", Name: "Padlet", Approval: catalog.ApprovalUnknown, Privacy: catalog.PrivacyUnknown},
	}}
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, model tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected command")
	}
	next, _ := model.Update(cmd())
	return next
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestLoadShowsOnlyPendingApps(t *testing.T) {
	svc := newStub()
	model := NewReviewModel(context.Background(), svc, Options{}).(*reviewModel)

	run(t, model, model.loadAppsCmd())
	if len(model.apps) != 2 || model.apps[0].ID != "a2" || model.apps[1].ID != "a3" {
		t.Fatalf("apps = %+v", model.apps)
	}
	if !strings.Contains(model.View(), "Kahoot [PENDING/UNK]") {
		t.Fatalf("View() missing pending app:\n%s", model.View())
	}

	_, cmd := model.Update(key('f'))
	run(t, model, cmd)
	if len(model.apps) != 3 {
		t.Fatalf("show all apps = %d, want 3", len(model.apps))
	}
}

func TestApproveSelectedApp(t *testing.T) {
	svc := newStub()
	model := NewReviewModel(context.Background(), svc, Options{}).(*reviewModel)
	run(t, model, model.loadAppsCmd())

	model.Update(key('j'))
	if model.selectedIndex != 1 {
		t.Fatalf("selectedIndex = %d, want 1", model.selectedIndex)
	}

	_, cmd := model.Update(key('a'))
	next, reload := model.Update(cmd())
	if reload == nil {
		t.Fatalf("expected reload after action")
	}
	next.Update(reload())

	if got := svc.patches["a3"].Approval; got != string(catalog.ApprovalApproved) {
		t.Fatalf("patch approval = %q", got)
	}
	if len(model.apps) != 1 || model.apps[0].ID != "a2" {
		t.Fatalf("apps after approve = %+v", model.apps)
	}
	if model.selectedIndex != 0 {
		t.Fatalf("selectedIndex = %d, want clamped to 0", model.selectedIndex)
	}
	if len(model.auditLogs) != 1 || !strings.Contains(model.auditLogs[0], "approve a3") {
		t.Fatalf("auditLogs = %v", model.auditLogs)
	}
}

func TestActionFailureIsReported(t *testing.T) {
	svc := newStub()
	svc.err = errors.New("database is locked")
	model := NewReviewModel(context.Background(), svc, Options{}).(*reviewModel)
	run(t, model, model.loadAppsCmd())

	_, cmd := model.Update(key('r'))
	model.Update(cmd())

	if !strings.Contains(model.status, "reject failed") {
		t.Fatalf("status = %q", model.status)
	}
	if !strings.Contains(model.auditLogs[0], "database is locked") {
		t.Fatalf("auditLogs = %v", model.auditLogs)
	}
}

func TestActionWithoutSelection(t *testing.T) {
	model := NewReviewModel(context.Background(), &stubReviewService{}, Options{}).(*reviewModel)
	run(t, model, model.loadAppsCmd())

	if _, cmd := model.Update(key('a')); cmd != nil {
		t.Fatalf("expected no command without selection")
	}
	if model.status != "no app selected" {
		t.Fatalf("status = %q", model.status)
	}
}
