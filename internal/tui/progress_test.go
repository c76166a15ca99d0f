package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vvka-141/sfmeta/internal/services"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

func TestRunProgress_PlainPrintsDistinctStatuses(t *testing.T) {
	var out bytes.Buffer
	opts := ProgressOptions{Title: "Deploying", Output: &out}

	err := RunProgress(context.Background(), opts, func(_ context.Context, report func(string)) (string, error) {
		report("InProgress: 0/3 components")
		report("InProgress: 0/3 components")
		report("InProgress: 2/3 components")
		return "Deployed 3 components", nil
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got := out.String()
	if strings.Count(got, "0/3 components") != 1 {
		t.Errorf("Expected repeated status to print once, got:\n%s", got)
	}
	if !strings.Contains(got, "2/3 components") {
		t.Errorf("Expected second status, got:\n%s", got)
	}
	if !strings.Contains(got, "Deployed 3 components") {
		t.Errorf("Expected summary, got:\n%s", got)
	}
}

func TestRunProgress_PlainReturnsError(t *testing.T) {
	var out bytes.Buffer
	want := errors.New("boom")

	err := RunProgress(context.Background(), ProgressOptions{Title: "Retrieving", Output: &out},
		func(context.Context, func(string)) (string, error) { return "", want })
	if !errors.Is(err, want) {
		t.Fatalf("RunProgress() error = %v, want %v", err, want)
	}
}

func TestProgressModel_StatusAndDone(t *testing.T) {
	m := newProgressModel("Deploying", nil, func() {})

	next, _ := m.Update(statusMsg("InProgress: 1/2 components"))
	m = next.(progressModel)
	if !strings.Contains(m.View(), "1/2 components") {
		t.Errorf("Expected status in view, got:\n%s", m.View())
	}

	next, cmd := m.Update(doneMsg{summary: "Deployed 2 components"})
	m = next.(progressModel)
	if cmd == nil {
		t.Fatal("Expected quit command after done")
	}
	if !strings.Contains(m.View(), "Deployed 2 components") {
		t.Errorf("Expected summary in view, got:\n%s", m.View())
	}
}

func TestProgressModel_CancelThenDetach(t *testing.T) {
	canceled, detached := 0, 0
	m := newProgressModel("Deploying", func() { canceled++ }, func() { detached++ })

	ctrlC := tea.KeyMsg{Type: tea.KeyCtrlC}
	next, _ := m.Update(ctrlC)
	m = next.(progressModel)
	if canceled != 1 || detached != 0 {
		t.Fatalf("first ctrl+c: canceled=%d detached=%d, want 1 and 0", canceled, detached)
	}
	if !strings.Contains(m.View(), "Canceling") {
		t.Errorf("Expected canceling status, got:\n%s", m.View())
	}

	next, _ = m.Update(ctrlC)
	m = next.(progressModel)
	if canceled != 1 || detached != 1 {
		t.Errorf("second ctrl+c: canceled=%d detached=%d, want 1 and 1", canceled, detached)
	}
}

func TestProgressModel_DetachKey(t *testing.T) {
	detached := 0
	m := newProgressModel("Retrieving", nil, func() { detached++ })

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = next.(progressModel)
	if detached != 1 {
		t.Errorf("detached = %d, want 1", detached)
	}
	if strings.Contains(m.View(), "cancel job") {
		t.Errorf("Expected no cancel help without a cancel func, got:\n%s", m.View())
	}
}

func TestDeployStatusLine(t *testing.T) {
	tests := []struct {
		name   string
		status sfmeta.DeployStatus
		want   string
	}{
		{
			name:   "components only",
			status: sfmeta.DeployStatus{Status: sfmeta.StatusInProgress, NumberComponentsTotal: 4, NumberComponentsDeployed: 1},
			want:   "InProgress: 1/4 components",
		},
		{
			name: "errors and tests",
			status: sfmeta.DeployStatus{
				Status:                   sfmeta.StatusInProgress,
				NumberComponentsTotal:    4,
				NumberComponentsDeployed: 3,
				NumberComponentErrors:    1,
				NumberTestsTotal:         10,
				NumberTestsCompleted:     2,
				StateDetail:              "Running Test: FooTest",
			},
			want: "InProgress: 4/4 components (1 errors), 2/10 tests - Running Test: FooTest",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeployStatusLine(tt.status); got != tt.want {
				t.Errorf("DeployStatusLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetrieveStatusLine(t *testing.T) {
	if got := RetrieveStatusLine(sfmeta.RetrieveStatus{}); got != "Pending" {
		t.Errorf("RetrieveStatusLine(empty) = %q, want Pending", got)
	}
	if got := RetrieveStatusLine(sfmeta.RetrieveStatus{Status: sfmeta.StatusInProgress}); got != "InProgress" {
		t.Errorf("RetrieveStatusLine() = %q, want InProgress", got)
	}
}

func TestRenderFileResponses(t *testing.T) {
	var out bytes.Buffer
	RenderFileResponses(&out, "Deployed Source", []services.FileResponse{
		{FullName: "Foo", Type: "ApexClass", State: services.StateCreated, FilePath: "classes/Foo.cls"},
		{FullName: "Bar", Type: "ApexClass", State: services.StateFailed, FilePath: "classes/Bar.cls",
			Error: "Unexpected token", ProblemType: "Error", LineNumber: 3, ColumnNumber: 7},
	})

	got := out.String()
	for _, want := range []string{"Deployed Source", "Created", "classes/Foo.cls", "Errors (1)", "classes/Bar.cls:3:7", "Unexpected token"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in output, got:\n%s", want, got)
		}
	}
}

func TestRenderFileResponses_Empty(t *testing.T) {
	var out bytes.Buffer
	RenderFileResponses(&out, "Retrieved Source", nil)
	if !strings.Contains(out.String(), "No results") {
		t.Errorf("Expected empty notice, got:\n%s", out.String())
	}
}

func TestStateStyle(t *testing.T) {
	if got := StateStyle(services.StateCreated).GetForeground(); got != colorGood {
		t.Errorf("Created foreground = %v, want %v", got, colorGood)
	}
	if got := StateStyle(services.StateFailed).GetForeground(); got != colorBad {
		t.Errorf("Failed foreground = %v, want %v", got, colorBad)
	}
	if _, ok := StateStyle("Pending").GetForeground().(lipgloss.NoColor); !ok {
		t.Errorf("unknown state should be unstyled")
	}
}
