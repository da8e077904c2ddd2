package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-playground/validator/v10"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	"github.com/mihas-katc/admissions-api/internal/config"
	"github.com/mihas-katc/admissions-api/internal/database"
	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/eligibility"
	"github.com/mihas-katc/admissions-api/internal/repository"
	"github.com/mihas-katc/admissions-api/internal/service"
)

func main() {
	var grades gradeFlags
	programID := flag.String("program", "", "programme id to assess against")
	applicationID := flag.String("application", "", "application id to store the assessment under")
	dryRun := flag.Bool("dry-run", false, "score without storing the assessment")
	flag.Var(&grades, "grade", "subject grade as Subject=N, repeatable")
	flag.Parse()

	if strings.TrimSpace(*programID) == "" || len(grades) == 0 {
		color.Red("usage: eligibility-check -program <id> -grade English=3 [-grade ...] [-application <id>] [-dry-run]")
		os.Exit(2)
	}
	if !*dryRun && strings.TrimSpace(*applicationID) == "" {
		color.Red("-application is required unless -dry-run is set")
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()

	cfg, err := config.LoadForTools()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	engine := eligibility.NewEngine(eligibility.Weights{
		SubjectCount: cfg.WeightSubjectCount,
		GradeAverage: cfg.WeightGradeAverage,
		CoreSubjects: cfg.WeightCoreSubjects,
	})
	catalog := service.NewProgramCatalog(repository.NewProgramRepository(db), nil, 0, logger)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	svc := service.NewEligibilityService(engine, catalog, repository.NewAssessmentRepository(db), activity,
		service.NewNoopEventPublisher(), validator.New(validator.WithRequiredStructEnabled()), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req := dto.AssessmentRequest{
		ApplicationID: strings.TrimSpace(*applicationID),
		ProgramID:     strings.TrimSpace(*programID),
		Grades:        grades,
	}

	if *dryRun {
		result, err := svc.Evaluate(ctx, req.ProgramID, req.SubjectGrades())
		if err != nil {
			logger.Fatal().Err(err).Msg("assessment failed")
		}
		render(req.ProgramID, string(result.Status), result.OverallScore, breakdownRows(result.Breakdown), missingRows(result.Missing), result.Recommendations)
		return
	}

	response, err := svc.Assess(ctx, req)
	if err != nil {
		logger.Fatal().Err(err).Msg("assessment failed")
	}

	b := response.DetailedBreakdown
	breakdown := eligibility.Breakdown{
		SubjectCountScore: b.SubjectCountScore,
		GradeAverageScore: b.GradeAverageScore,
		CoreSubjectsScore: b.CoreSubjectsScore,
		RequirementsMet:   b.RequirementsMet,
		TotalRequirements: b.TotalRequirements,
	}
	rows := make([][]string, 0, len(response.MissingRequirements))
	for _, item := range response.MissingRequirements {
		rows = append(rows, []string{item.Severity, item.Type, item.Description, item.Suggestion})
	}
	render(response.ProgramID, response.EligibilityStatus, response.OverallScore, breakdownRows(breakdown), rows, response.Recommendations)
	color.Cyan("stored as assessment #%d", response.ID)
}

func breakdownRows(b eligibility.Breakdown) [][]string {
	return [][]string{
		{"Subject count", formatScore(b.SubjectCountScore)},
		{"Grade average", formatScore(b.GradeAverageScore)},
		{"Core subjects", formatScore(b.CoreSubjectsScore)},
		{"Requirements met", fmt.Sprintf("%d/%d", b.RequirementsMet, b.TotalRequirements)},
	}
}

func missingRows(missing []eligibility.MissingRequirement) [][]string {
	rows := make([][]string, 0, len(missing))
	for _, item := range missing {
		rows = append(rows, []string{string(item.Severity), string(item.Type), item.Description, item.Suggestion})
	}
	return rows
}

func render(programID, status string, overall float64, breakdown, missing [][]string, recommendations []string) {
	color.Cyan("\n=== Eligibility for %s ===", programID)
	statusLine := fmt.Sprintf("%s (%s)", strings.ToUpper(status), formatScore(overall))
	switch eligibility.Status(status) {
	case eligibility.StatusEligible:
		color.Green("%s", statusLine)
	case eligibility.StatusConditional:
		color.Yellow("%s", statusLine)
	default:
		color.Red("%s", statusLine)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Component", "Score"})
	for _, row := range breakdown {
		table.Append(row)
	}
	table.Render()

	if len(missing) > 0 {
		color.Yellow("\nMissing requirements")
		gaps := tablewriter.NewWriter(os.Stdout)
		gaps.SetHeader([]string{"Severity", "Type", "Description", "Suggestion"})
		gaps.SetAutoWrapText(true)
		for _, row := range missing {
			gaps.Append(row)
		}
		gaps.Render()
	}

	if len(recommendations) > 0 {
		color.Yellow("\nRecommendations")
		for _, line := range recommendations {
			fmt.Printf("  - %s\n", line)
		}
	}
}

func formatScore(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
