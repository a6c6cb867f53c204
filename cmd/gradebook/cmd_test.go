package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-gradebook/config"
	"github.com/edutrack/edutrack-gradebook/internal/app"
	"github.com/edutrack/edutrack-gradebook/internal/application/state"
	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/memory"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

type stubNarrator struct{}

func (stubNarrator) GenerateFeedback(_ context.Context, studentName, _ string, _ float64, _ int) string {
	return "Kerja bagus, " + studentName + "."
}

func (stubNarrator) AnalyzeClassPerformance(_ context.Context, a gradebook.Assessment, _ []gradebook.Grade, _ []gradebook.Student) string {
	return "Analisis " + a.Title
}

type testCLI struct {
	*commandLine
	out    *bytes.Buffer
	holder *state.Holder
}

func setup(t *testing.T, stdin string, terminal bool) *testCLI {
	t.Helper()

	prev := isTerminalFunc
	isTerminalFunc = func(int) bool { return terminal }
	t.Cleanup(func() { isTerminalFunc = prev })

	slot := memory.NewSlot(config.DefaultSlotKey)
	gw := persistence.NewGateway(slot)
	holder := state.NewHolder(gw, nil, logger.Nop())
	require.NoError(t, holder.Load(context.Background()))

	out := &bytes.Buffer{}
	confirm := newPromptConfirmer(strings.NewReader(stdin), out, 0)
	cmds, qs := app.NewHandlers(holder, gw, stubNarrator{}, confirm, slot.Name(), logger.Nop())

	return &testCLI{
		commandLine: &commandLine{cmds: cmds, qs: qs, confirm: confirm, out: out},
		out:         out,
		holder:      holder,
	}
}

func (c *testCLI) snapshot(t *testing.T) gradebook.State {
	t.Helper()
	st, err := c.holder.Snapshot()
	require.NoError(t, err)
	return st
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    []string
}

func runCLITests(t *testing.T, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := setup(t, "", false)
			err := cli.run(context.Background(), append([]string{"gradebook"}, tt.args...))

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				require.NoError(t, err)
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, cli.out.String(), want)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	runCLITests(t, []cliTest{
		{name: "no command", args: nil, wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "add-student: no name", args: []string{"add-student", "-nis", "1"}, wantErr: errHelp},
		{name: "delete-student: no id", args: []string{"delete-student"}, wantErr: errHelp},
		{name: "add-assessment: no date", args: []string{"add-assessment", "-title", "UTS"}, wantErr: errHelp},
		{name: "add-assessment: bad date", args: []string{"add-assessment", "-title", "UTS", "-date", "10/01/2023"}, wantErrStr: "date must be of form YYYY-MM-DD (got '10/01/2023')"},
		{name: "add-assessment: zero max", args: []string{"add-assessment", "-title", "UTS", "-date", "2023-10-01", "-max", "0"}, wantErrStr: "max must be greater than 0 (got 0)"},
		{name: "grade: no score", args: []string{"grade", "-student", "s1", "-assessment", "a1"}, wantErr: errHelp},
		{name: "grade: non-number score", args: []string{"grade", "-student", "s1", "-assessment", "a1", "-score", "lol"}, wantErrStr: "score must be a number (got 'lol')"},
		{name: "report: no selector", args: []string{"report"}, wantErr: errHelp},
		{name: "analyze: no id", args: []string{"analyze"}, wantErr: errHelp},
	})
}

func Test_commandLine_readCommands(t *testing.T) {
	runCLITests(t, []cliTest{
		{name: "students", args: []string{"students"}, wantOut: []string{"Budi Santoso", "Siti Aminah", "85"}},
		{name: "assessments", args: []string{"assessments"}, wantOut: []string{"UH Matematika Bab 1", "88.5"}},
		{name: "report by id", args: []string{"report", "-id", "s2"}, wantOut: []string{"Siti Aminah", "average: 92", "92/100"}},
		{name: "report by nis", args: []string{"report", "-nis", "1001"}, wantOut: []string{"Budi Santoso", "Bagus, pertahankan."}},
		{name: "report by unknown nis", args: []string{"report", "-nis", "9999"}, wantOut: []string{"no student with NIS 9999"}},
		{name: "dashboard", args: []string{"dashboard"}, wantOut: []string{"students: 3  assessments: 2  grades: 2"}},
		{name: "feedback", args: []string{"feedback", "-student", "s3", "-assessment", "a2", "-score", "70"}, wantOut: []string{"Kerja bagus, Rizky Pratama."}},
		{name: "analyze", args: []string{"analyze", "-assessment", "a1"}, wantOut: []string{"2 graded", "top: Siti Aminah", "Analisis UH Matematika Bab 1"}},
	})
}

func Test_commandLine_reportUnknownStudent(t *testing.T) {
	cli := setup(t, "", false)
	err := cli.run(context.Background(), []string{"gradebook", "report", "-id", "missing"})
	assert.Error(t, err)
}

func Test_commandLine_addAndGrade(t *testing.T) {
	cli := setup(t, "", false)
	ctx := context.Background()

	require.NoError(t, cli.run(ctx, []string{"gradebook", "add-student", "-name", " Dewi Lestari ", "-nis", "1004", "-level", "10B"}))
	require.NoError(t, cli.run(ctx, []string{"gradebook", "add-assessment", "-title", "UTS Fisika", "-date", "2023-11-01", "-subject", "Fisika"}))

	st := cli.snapshot(t)
	require.Len(t, st.Students, 4)
	require.Len(t, st.Assessments, 3)
	dewi := st.Students[3]
	uts := st.Assessments[2]
	assert.Equal(t, "Dewi Lestari", dewi.Name)
	assert.Equal(t, 100, uts.MaxScore)

	require.NoError(t, cli.run(ctx, []string{"gradebook", "grade", "-student", dewi.ID, "-assessment", uts.ID, "-score", "77.5"}))
	assert.Contains(t, cli.out.String(), "recorded grade")

	require.NoError(t, cli.run(ctx, []string{"gradebook", "grade", "-student", dewi.ID, "-assessment", uts.ID, "-score", "80", "-feedback", "Naik!"}))
	assert.Contains(t, cli.out.String(), "updated grade")

	st = cli.snapshot(t)
	require.Len(t, st.Grades, 3)
	assert.Equal(t, 80.0, st.Grades[2].Score)
	assert.Equal(t, "Naik!", st.Grades[2].Feedback)
}

func Test_commandLine_deleteStudent(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		stdin       string
		terminal    bool
		wantOut     string
		wantRemoved bool
	}{
		{name: "no terminal, no -yes", args: []string{"-id", "s1"}, wantOut: "pass -yes to confirm"},
		{name: "terminal, answer no", args: []string{"-id", "s1"}, stdin: "n\n", terminal: true, wantOut: "cancelled"},
		{name: "terminal, empty answer", args: []string{"-id", "s1"}, stdin: "\n", terminal: true, wantOut: "cancelled"},
		{name: "terminal, answer yes", args: []string{"-id", "s1"}, stdin: "y\n", terminal: true, wantOut: "deleted student s1 and 1 grade(s)", wantRemoved: true},
		{name: "-yes flag", args: []string{"-id", "s1", "-yes"}, wantOut: "deleted student s1", wantRemoved: true},
		{name: "unknown id", args: []string{"-id", "nope", "-yes"}, wantOut: "no student with id nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := setup(t, tt.stdin, tt.terminal)
			require.NoError(t, cli.run(context.Background(), append([]string{"gradebook", "delete-student"}, tt.args...)))

			assert.Contains(t, cli.out.String(), tt.wantOut)
			st := cli.snapshot(t)
			if tt.wantRemoved {
				assert.Len(t, st.Students, 2)
				for _, g := range st.Grades {
					assert.NotEqual(t, "s1", g.StudentID)
				}
			} else {
				assert.Len(t, st.Students, 3)
				assert.Len(t, st.Grades, 2)
			}
		})
	}
}

func Test_commandLine_deleteAssessment(t *testing.T) {
	cli := setup(t, "ya\n", true)
	require.NoError(t, cli.run(context.Background(), []string{"gradebook", "delete-assessment", "-id", "a1"}))

	assert.Contains(t, cli.out.String(), gradebook.PromptDeleteAssessment)
	assert.Contains(t, cli.out.String(), "deleted assessment a1 and 2 grade(s)")
	st := cli.snapshot(t)
	assert.Len(t, st.Assessments, 1)
	assert.Empty(t, st.Grades)
}

func Test_commandLine_reset(t *testing.T) {
	cli := setup(t, "", false)
	ctx := context.Background()
	require.NoError(t, cli.run(ctx, []string{"gradebook", "delete-student", "-id", "s2", "-yes"}))

	// -yes from the previous command must not carry over.
	require.NoError(t, cli.run(ctx, []string{"gradebook", "reset"}))
	assert.Contains(t, cli.out.String(), "cancelled")
	assert.Len(t, cli.snapshot(t).Students, 2)

	require.NoError(t, cli.run(ctx, []string{"gradebook", "reset", "-yes"}))
	assert.Contains(t, cli.out.String(), "restored sample data: 3 students, 2 assessments, 2 grades")
	assert.Equal(t, persistence.SeedState(), cli.snapshot(t))
}

func Test_commandLine_export(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		cli := setup(t, "", false)
		require.NoError(t, cli.run(context.Background(), []string{"gradebook", "export"}))

		var got gradebook.State
		require.NoError(t, json.Unmarshal(cli.out.Bytes(), &got))
		assert.Equal(t, persistence.SeedState(), got)
	})

	t.Run("file", func(t *testing.T) {
		cli := setup(t, "", false)
		path := filepath.Join(t.TempDir(), "export.json")
		require.NoError(t, cli.run(context.Background(), []string{"gradebook", "export", "-o", path}))
		assert.Contains(t, cli.out.String(), "exported to "+path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got gradebook.State
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Len(t, got.Students, 3)
	})
}
