package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/edutrack/edutrack-gradebook/internal/app"
	"github.com/edutrack/edutrack-gradebook/internal/application/command"
	"github.com/edutrack/edutrack-gradebook/internal/application/query"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	cmds    app.Commands
	qs      app.Queries
	confirm *promptConfirmer
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  students                                         - list students with their average")
	fmt.Fprintln(cli.out, "  add-student -name NAME [-nis NIS] [-level 10A] [-contact C]")
	fmt.Fprintln(cli.out, "  delete-student -id ID [-yes]                     - delete a student and their grades")
	fmt.Fprintln(cli.out, "  assessments                                      - list assessments with their average")
	fmt.Fprintln(cli.out, "  add-assessment -title T -date YYYY-MM-DD [-subject S] [-max 100] [-desc D]")
	fmt.Fprintln(cli.out, "  delete-assessment -id ID [-yes]                  - delete an assessment and its grades")
	fmt.Fprintln(cli.out, "  grade -student ID -assessment ID -score N [-feedback F]")
	fmt.Fprintln(cli.out, "  report -id ID | -nis NIS                         - report card of a student")
	fmt.Fprintln(cli.out, "  dashboard [-recent 5]                            - totals and latest grades")
	fmt.Fprintln(cli.out, "  feedback -student ID -assessment ID -score N     - draft a comment for a grade")
	fmt.Fprintln(cli.out, "  analyze -assessment ID                           - summarize a class result")
	fmt.Fprintln(cli.out, "  export [-o FILE]                                 - write the full dataset as JSON")
	fmt.Fprintln(cli.out, "  reset [-yes]                                     - restore the sample dataset")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "students":
		return cli.listStudents(ctx)
	case "add-student":
		return cli.addStudent(ctx, args[2:])
	case "delete-student":
		return cli.deleteStudent(ctx, args[2:])
	case "assessments":
		return cli.listAssessments(ctx)
	case "add-assessment":
		return cli.addAssessment(ctx, args[2:])
	case "delete-assessment":
		return cli.deleteAssessment(ctx, args[2:])
	case "grade":
		return cli.grade(ctx, args[2:])
	case "report":
		return cli.report(ctx, args[2:])
	case "dashboard":
		return cli.dashboard(ctx, args[2:])
	case "feedback":
		return cli.feedback(ctx, args[2:])
	case "analyze":
		return cli.analyze(ctx, args[2:])
	case "export":
		return cli.export(ctx, args[2:])
	case "reset":
		return cli.reset(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

func (cli *commandLine) listStudents(ctx context.Context) error {
	items, err := cli.qs.ListStudents.Handle(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNIS\tNAME\tLEVEL\tAVERAGE\tGRADES")
	for _, s := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", s.ID, s.NIS, s.Name, s.GradeLevel, formatScore(s.Average), s.GradeCount)
	}
	return tw.Flush()
}

func (cli *commandLine) addStudent(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("add-student")
	nis := fs.String("nis", "", "School registration number.")
	name := fs.String("name", "", "Full name of the student.")
	level := fs.String("level", "", "Class label, e.g. 10A.")
	contact := fs.String("contact", "", "Parent contact.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		fs.Usage()
		return errHelp
	}

	res, err := cli.cmds.AddStudent.Handle(ctx, command.AddStudentCommand{
		NIS:        strings.TrimSpace(*nis),
		Name:       strings.TrimSpace(*name),
		GradeLevel: strings.TrimSpace(*level),
		Contact:    strings.TrimSpace(*contact),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "added student %s (%s)\n", res.Student.Name, res.Student.ID)
	return nil
}

func (cli *commandLine) deleteStudent(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("delete-student")
	id := fs.String("id", "", "Student id.")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	cli.confirm.assumeYes = *yes
	res, err := cli.cmds.DeleteStudent.Handle(ctx, command.DeleteStudentCommand{StudentID: *id})
	if err != nil {
		return err
	}

	switch {
	case !res.Applied:
		fmt.Fprintln(cli.out, "cancelled")
	case !res.Removed:
		fmt.Fprintf(cli.out, "no student with id %s\n", *id)
	default:
		fmt.Fprintf(cli.out, "deleted student %s and %d grade(s)\n", *id, res.GradesRemoved)
	}
	return nil
}

func (cli *commandLine) report(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("report")
	id := fs.String("id", "", "Student id.")
	nis := fs.String("nis", "", "School registration number.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var reports []query.StudentReportDTO
	switch {
	case *id != "":
		r, err := cli.qs.GetStudentReport.Handle(ctx, query.GetStudentReportQuery{StudentID: *id})
		if err != nil {
			return err
		}
		reports = append(reports, *r)
	case *nis != "":
		found, err := cli.qs.FindStudentByNIS.Handle(ctx, query.FindStudentByNISQuery{NIS: *nis})
		if errors.Is(err, shared.ErrStudentNotFound) {
			fmt.Fprintf(cli.out, "no student with NIS %s\n", *nis)
			return nil
		}
		if err != nil {
			return err
		}
		reports = found
	default:
		fs.Usage()
		return errHelp
	}

	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(cli.out)
		}
		if err := cli.printReport(r); err != nil {
			return err
		}
	}
	return nil
}

func (cli *commandLine) printReport(r query.StudentReportDTO) error {
	fmt.Fprintf(cli.out, "%s  NIS %s  class %s\n", r.Student.Name, r.Student.NIS, r.Student.GradeLevel)
	fmt.Fprintf(cli.out, "average: %s\n", formatScore(r.Average))

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tASSESSMENT\tSUBJECT\tSCORE\tFEEDBACK")
	for _, g := range r.Grades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s/%d\t%s\n", g.Date, g.Title, g.Subject, formatScore(g.Score), g.MaxScore, g.Feedback)
	}
	return tw.Flush()
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSESSMENTS
// ══════════════════════════════════════════════════════════════════════════════

func (cli *commandLine) listAssessments(ctx context.Context) error {
	items, err := cli.qs.ListAssessments.Handle(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tSUBJECT\tMAX\tGRADED\tAVERAGE")
	for _, a := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n", a.ID, a.Date, a.Title, a.Subject, a.MaxScore, a.Graded, formatScore(a.Average))
	}
	return tw.Flush()
}

func (cli *commandLine) addAssessment(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("add-assessment")
	title := fs.String("title", "", "Assessment title.")
	subject := fs.String("subject", "", "Subject, e.g. Matematika.")
	date := fs.String("date", "", "Date in YYYY-MM-DD format.")
	maxScore := fs.Int("max", 100, "Maximum score.")
	desc := fs.String("desc", "", "Description.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*title) == "" || *date == "" {
		fs.Usage()
		return errHelp
	}
	if _, err := time.Parse("2006-01-02", *date); err != nil {
		return fmt.Errorf("date must be of form YYYY-MM-DD (got '%s')", *date)
	}
	if *maxScore <= 0 {
		return fmt.Errorf("max must be greater than 0 (got %d)", *maxScore)
	}

	res, err := cli.cmds.AddAssessment.Handle(ctx, command.AddAssessmentCommand{
		Title:       strings.TrimSpace(*title),
		Subject:     strings.TrimSpace(*subject),
		Date:        *date,
		MaxScore:    *maxScore,
		Description: strings.TrimSpace(*desc),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "added assessment %s (%s)\n", res.Assessment.Title, res.Assessment.ID)
	return nil
}

func (cli *commandLine) deleteAssessment(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("delete-assessment")
	id := fs.String("id", "", "Assessment id.")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	cli.confirm.assumeYes = *yes
	res, err := cli.cmds.DeleteAssessment.Handle(ctx, command.DeleteAssessmentCommand{AssessmentID: *id})
	if err != nil {
		return err
	}

	switch {
	case !res.Applied:
		fmt.Fprintln(cli.out, "cancelled")
	case !res.Removed:
		fmt.Fprintf(cli.out, "no assessment with id %s\n", *id)
	default:
		fmt.Fprintf(cli.out, "deleted assessment %s and %d grade(s)\n", *id, res.GradesRemoved)
	}
	return nil
}

func (cli *commandLine) analyze(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("analyze")
	id := fs.String("assessment", "", "Assessment id.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	res, err := cli.qs.AnalyzeClass.Handle(ctx, query.AnalyzeClassQuery{AssessmentID: *id})
	if err != nil {
		return err
	}

	s := res.Summary
	fmt.Fprintf(cli.out, "%s: %d graded, average %s, highest %s, lowest %s\n",
		res.Assessment.Title, s.Graded, formatScore(s.Average), formatScore(s.Highest), formatScore(s.Lowest))
	if s.TopStudentName != "" {
		fmt.Fprintf(cli.out, "top: %s\n", s.TopStudentName)
	}
	fmt.Fprintln(cli.out)
	fmt.Fprintln(cli.out, res.Analysis)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADES
// ══════════════════════════════════════════════════════════════════════════════

func (cli *commandLine) grade(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("grade")
	studentID := fs.String("student", "", "Student id.")
	assessmentID := fs.String("assessment", "", "Assessment id.")
	scoreStr := fs.String("score", "", "Score.")
	feedback := fs.String("feedback", "", "Feedback for the student.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *studentID == "" || *assessmentID == "" || *scoreStr == "" {
		fs.Usage()
		return errHelp
	}
	score, err := parseScore(*scoreStr)
	if err != nil {
		return err
	}

	res, err := cli.cmds.UpsertGrade.Handle(ctx, command.UpsertGradeCommand{
		StudentID:    *studentID,
		AssessmentID: *assessmentID,
		Score:        score,
		Feedback:     strings.TrimSpace(*feedback),
	})
	if err != nil {
		return err
	}

	verb := "updated"
	if res.Created {
		verb = "recorded"
	}
	fmt.Fprintf(cli.out, "%s grade %s: %s\n", verb, res.Grade.ID, formatScore(res.Grade.Score))
	return nil
}

func (cli *commandLine) feedback(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("feedback")
	studentID := fs.String("student", "", "Student id.")
	assessmentID := fs.String("assessment", "", "Assessment id.")
	scoreStr := fs.String("score", "", "Score to comment on.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *studentID == "" || *assessmentID == "" || *scoreStr == "" {
		fs.Usage()
		return errHelp
	}
	score, err := parseScore(*scoreStr)
	if err != nil {
		return err
	}

	res, err := cli.qs.DraftFeedback.Handle(ctx, query.DraftFeedbackQuery{
		StudentID:    *studentID,
		AssessmentID: *assessmentID,
		Score:        score,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cli.out, res.Text)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DATASET
// ══════════════════════════════════════════════════════════════════════════════

func (cli *commandLine) dashboard(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("dashboard")
	recent := fs.Int("recent", query.DefaultRecentLimit, "Number of latest grades to show.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := cli.qs.GetDashboard.Handle(ctx, query.GetDashboardQuery{RecentLimit: *recent})
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "students: %d  assessments: %d  grades: %d\n",
		res.Stats.TotalStudents, res.Stats.TotalAssessments, res.Stats.TotalGrades)
	if len(res.Recent) == 0 {
		return nil
	}

	fmt.Fprintln(cli.out)
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STUDENT\tLEVEL\tASSESSMENT\tSCORE")
	for _, g := range res.Recent {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s/%d\n", g.StudentName, g.GradeLevel, g.Title, formatScore(g.Score), g.MaxScore)
	}
	return tw.Flush()
}

func (cli *commandLine) export(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("export")
	path := fs.String("o", "", "Output file. Defaults to stdout.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := cli.qs.GetState.Handle(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(res.State, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if *path == "" {
		_, err = cli.out.Write(data)
		return err
	}
	if err := os.WriteFile(*path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "exported to %s (fingerprint %s)\n", *path, res.Fingerprint)
	return nil
}

func (cli *commandLine) reset(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("reset")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cli.confirm.assumeYes = *yes
	res, err := cli.cmds.ResetState.Handle(ctx, command.ResetStateCommand{})
	if err != nil {
		return err
	}
	if !res.Applied {
		fmt.Fprintln(cli.out, "cancelled")
		return nil
	}

	fmt.Fprintf(cli.out, "restored sample data: %d students, %d assessments, %d grades\n",
		len(res.State.Students), len(res.State.Assessments), len(res.State.Grades))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func parseScore(s string) (float64, error) {
	score, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("score must be a number (got '%s')", s)
	}
	return score, nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
