package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/concord/internal/cli"
	"github.com/Veraticus/concord/internal/model"
	"github.com/Veraticus/concord/internal/testutil/cohort"
	"github.com/Veraticus/concord/internal/training"
)

const questionnaireYAML = `
topics:
  - name: Finances
    description: Money and spending
    questions:
      - code: F1
        text: We agree on a monthly budget.
      - code: F2
        text: We discuss large purchases
        sub_questions:
          - before buying a car.
          - before buying a home.
  - name: Family
    questions:
      - code: P1
        text: We agree on how to raise children.
      - code: P2
        text: We agree on time spent with relatives.
`

const smallConfigYAML = `
coordinator:
  synthetic_count: 60
  synthetic:
    seed: 3
  training:
    folds: 3
    seed: 3
    classifier_grid:
      estimators: [10]
      max_depth: [0]
      min_samples_split: [2]
    regressor_grid:
      estimators: [10]
      max_depth: [0]
      min_samples_split: [2]
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCommandFlow(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "concord.db")
	cfg := writeFile(t, dir, "config.yaml", smallConfigYAML)
	base := []string{"--config", cfg, "--db", db, "--log-level", "error"}
	run := func(args ...string) string {
		t.Helper()
		out, err := execute(t, append(append([]string{}, base...), args...)...)
		require.NoError(t, err, "concord %s: %s", strings.Join(args, " "), out)
		return out
	}

	out := run("migrate")
	assert.Contains(t, out, "Database migrations completed")

	out = run("questionnaire", "import", writeFile(t, dir, "q.yaml", questionnaireYAML))
	assert.Contains(t, out, "Imported 2 topics and 5 items")

	out = run("questionnaire", "show", "--format", "text")
	assert.Contains(t, out, "F2.2")
	assert.Contains(t, out, "We discuss large purchases before buying a home.")

	var couples []model.Couple
	for _, label := range model.RiskLabels {
		couples = append(couples, model.Couple{
			Reference: "intake-" + label.String(),
			Profile:   cohort.Profile(),
			Responses: cohort.PairWithRisk(5, label),
		})
	}
	data, err := yaml.Marshal(couples)
	require.NoError(t, err)
	out = run("cohort", "import", writeFile(t, dir, "couples.yaml", string(data)))
	assert.Contains(t, out, "Imported 3 couples")

	out = run("cohort", "list")
	assert.Contains(t, out, "High")

	out = run("model", "status")
	assert.Contains(t, out, "No active model")

	out = run("train", "--quiet")
	assert.Contains(t, out, "is active")

	request := map[string]any{
		"profile":   couples[2].Profile,
		"responses": couples[2].Responses,
	}
	body, err := json.Marshal(request)
	require.NoError(t, err)
	out = run("analyze", "--format", "json", "--couple-id", "intake-9", writeFile(t, dir, "req.json", string(body)))

	var a model.Assessment
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, model.RiskHigh, a.Risk)
	assert.Equal(t, "intake-9", a.CoupleID)
	assert.Len(t, a.Topics, 2)

	out = run("model", "list")
	assert.Contains(t, out, "0.")

	out = run("db", "backup", filepath.Join(dir, "backup.db"))
	assert.Contains(t, out, "Backup written")
	assert.FileExists(t, filepath.Join(dir, "backup.db"))
}

func TestAnalyze_RequiresInput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "--db", filepath.Join(dir, "c.db"), "--config", writeFile(t, dir, "c.yaml", "{}"),
		"--log-level", "error", "analyze", "--format", "text")
	assert.ErrorContains(t, err, "provide either a request file or --interactive")
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	var doc model.QuestionnaireDocument

	require.NoError(t, decodeFile(writeFile(t, dir, "q.yaml", questionnaireYAML), nil, &doc))
	assert.Len(t, doc.Topics, 2)

	doc = model.QuestionnaireDocument{}
	require.NoError(t, decodeFile(writeFile(t, dir, "q.json", `{"topics":[{"name":"A"}]}`), nil, &doc))
	assert.Equal(t, "A", doc.Topics[0].Name)

	doc = model.QuestionnaireDocument{}
	require.NoError(t, decodeFile("-", strings.NewReader("topics:\n  - name: B\n"), &doc))
	assert.Equal(t, "B", doc.Topics[0].Name)

	assert.Error(t, decodeFile(filepath.Join(dir, "missing.yaml"), nil, &doc))
	assert.Error(t, decodeFile(writeFile(t, dir, "bad.json", "{"), nil, &doc))
}

func TestWriteFormatted(t *testing.T) {
	value := map[string]model.RiskLabel{"risk": model.RiskMedium}

	var out bytes.Buffer
	require.NoError(t, writeFormatted(&out, "json", value))
	assert.Contains(t, out.String(), `"risk": "Medium"`)

	out.Reset()
	require.NoError(t, writeFormatted(&out, "yaml", value))
	assert.Equal(t, "risk: Medium\n", out.String())

	assert.Error(t, writeFormatted(&out, "xml", value))
}

// blockedRun reports an active run until its worker is released.
type blockedRun struct {
	release chan struct{}
	waited  atomic.Bool
}

func (r *blockedRun) TrainingStatus() training.Status {
	if r.waited.Load() {
		return training.Status{RunID: "r-1", Progress: 100, ModelID: "m-1"}
	}
	return training.Status{RunID: "r-1", InProgress: true, Progress: 40}
}

func (r *blockedRun) Wait() {
	<-r.release
	r.waited.Store(true)
}

func TestAwaitTraining_WaitsForWorkerAfterInterrupt(t *testing.T) {
	for name, progress := range map[string]*cli.TrainingProgress{
		"progress": cli.NewTrainingProgress(&bytes.Buffer{}, time.Millisecond),
		"quiet":    nil,
	} {
		t.Run(name, func(t *testing.T) {
			run := &blockedRun{release: make(chan struct{})}
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			done := make(chan training.Status, 1)
			go func() { done <- awaitTraining(ctx, run, "r-1", progress) }()

			select {
			case <-done:
				t.Fatal("returned while the training worker was still running")
			case <-time.After(50 * time.Millisecond):
			}

			close(run.release)
			status := <-done
			assert.False(t, status.InProgress)
			assert.Equal(t, "m-1", status.ModelID)
		})
	}
}
