package service

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mihas-katc/admissions-api/internal/database"
	"github.com/mihas-katc/admissions-api/internal/dto"
	"github.com/mihas-katc/admissions-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// newTestDB opens an isolated in-memory database. A single connection keeps
// concurrent writers serialised the way a real database would lock rows.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func jsonOf(t *testing.T, value interface{}) datatypes.JSON {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	return datatypes.JSON(data)
}

// seedClinicalMedicine stores a programme requiring English, Mathematics and
// Biology at grade 6 or better.
func seedClinicalMedicine(t *testing.T, db *gorm.DB) models.Program {
	t.Helper()

	program := models.Program{
		ID:          "clinical-medicine",
		Code:        "DCM",
		Name:        "Diploma in Clinical Medicine",
		Institution: "KATC",
		MinSubjects: 5,
		IsActive:    true,
	}
	program.SetGuidance([]string{"Biology and Chemistry carry the most weight in interviews"})
	program.SetAlternativePathways([]string{"Certificate in Health Sciences foundation"})
	require.NoError(t, db.Omit("Rules", "Requirements").Create(&program).Error)

	rules := []models.EligibilityRule{
		{ProgramID: program.ID, RuleName: "Five credits", RuleType: "subject_count", Weight: 1, IsActive: true,
			Condition: jsonOf(t, map[string]int{"min_subjects": 5, "grade_threshold": 6})},
		{ProgramID: program.ID, RuleName: "Core sciences", RuleType: "specific_subject", Weight: 2, IsActive: true,
			Condition: jsonOf(t, map[string]interface{}{"required_subjects": []string{"English", "Mathematics", "Biology"}, "min_grade": 6})},
	}
	require.NoError(t, db.Create(&rules).Error)

	requirements := []models.CourseRequirement{
		{ProgramID: program.ID, SubjectName: "English", MinimumGrade: 6, IsMandatory: true},
		{ProgramID: program.ID, SubjectName: "Mathematics", MinimumGrade: 6, IsMandatory: true},
		{ProgramID: program.ID, SubjectName: "Biology", MinimumGrade: 6, IsMandatory: true},
	}
	require.NoError(t, db.Create(&requirements).Error)

	return program
}

func conditionalCandidate(applicationID string) dto.AssessmentRequest {
	return dto.AssessmentRequest{
		ApplicationID: applicationID,
		ProgramID:     "clinical-medicine",
		Grades: []dto.SubjectGradeRequest{
			{SubjectName: "English Language", Grade: 3},
			{SubjectName: "Mathematics", Grade: 4},
			{SubjectName: "Biology", Grade: 7},
			{SubjectName: "Chemistry", Grade: 5},
			{SubjectName: "Physics", Grade: 6},
		},
	}
}

func strongCandidate(applicationID string) dto.AssessmentRequest {
	return dto.AssessmentRequest{
		ApplicationID: applicationID,
		ProgramID:     "clinical-medicine",
		Grades: []dto.SubjectGradeRequest{
			{SubjectName: "English", Grade: 1},
			{SubjectName: "Mathematics", Grade: 2},
			{SubjectName: "Biology", Grade: 1},
			{SubjectName: "Chemistry", Grade: 2},
			{SubjectName: "Physics", Grade: 3},
		},
	}
}
