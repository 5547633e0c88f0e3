package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukex/stockflow/pkg/models"
	"github.com/dukex/stockflow/pkg/registry"
	"github.com/dukex/stockflow/pkg/testutil"
	"github.com/dukex/stockflow/pkg/validation"
	"github.com/dukex/stockflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v3"
)

func writeWorkflow(t *testing.T, wf *models.Workflow) string {
	t.Helper()

	data, err := workflow.Marshal(wf)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "workflow.json")
	require.NoError(t, os.WriteFile(path, data, 0600))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	command := NewCommand()
	command.Writer = &out
	command.ErrWriter = &out
	command.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	err := command.Run(t.Context(), append([]string{"stockflow"}, args...))

	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	path := writeWorkflow(t, testutil.CreateTestWorkflow())

	out, err := run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Workflow: 0 errors, 0 warnings")
}

func TestValidateCommand_Errors(t *testing.T) {
	path := writeWorkflow(t, testutil.CreateTestWorkflow(testutil.WithIncompleteTrigger()))

	out, err := run(t, "validate", "--json", path)
	require.Error(t, err)

	var coder cli.ExitCoder
	require.ErrorAs(t, err, &coder)
	assert.Equal(t, 1, coder.ExitCode())

	var report validation.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Errors(), 1)
	assert.Equal(t, models.IssueIncompleteConfig, report.Errors()[0].Code)
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := run(t, "validate")
	require.Error(t, err)

	_, err = run(t, "validate", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read workflow")
}

func TestPrintReport_NextRun(t *testing.T) {
	g := models.Graph{
		Nodes: []models.Node{{
			ID:    "t",
			Kind:  models.KindTrigger,
			Label: "Morning count",
			Config: &models.TriggerConfig{
				TriggerType:  models.TriggerScheduled,
				ScheduleTime: "08:30",
				ScheduleDays: []string{"Monday"},
			},
		}},
	}

	var out bytes.Buffer

	// a Sunday
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := printReport(&out, &models.Workflow{Name: "Counts"}, g, validation.Report{}, now)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `next run of "Morning count": Mon, 02 Mar 2026 08:30:00 UTC`)
}

func TestKindsCommand(t *testing.T) {
	out, err := run(t, "kinds")
	require.NoError(t, err)

	var kinds []models.KindDescriptor
	require.NoError(t, json.Unmarshal([]byte(out), &kinds))
	assert.Len(t, kinds, len(registry.Default().Kinds()))
}

func TestFmtCommand(t *testing.T) {
	input := testutil.CreateTestWorkflow(testutil.WithNode(models.WireNode{
		ID:   "note-1",
		Type: "text",
		Data: map[string]any{},
	}))
	path := writeWorkflow(t, input)

	out, err := run(t, "fmt", path)
	require.NoError(t, err)

	formatted, err := workflow.Unmarshal([]byte(out))
	require.NoError(t, err)
	require.Len(t, formatted.Nodes, 3)
	assert.Equal(t, models.KindText.DefaultLabel(), formatted.Nodes[2].Data[models.LabelField])

	_, err = run(t, "fmt", "--write", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}
