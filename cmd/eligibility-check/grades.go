package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mihas-katc/admissions-api/internal/dto"
)

// gradeFlags collects repeated -grade Subject=N values.
type gradeFlags []dto.SubjectGradeRequest

func (g *gradeFlags) String() string {
	parts := make([]string, 0, len(*g))
	for _, grade := range *g {
		parts = append(parts, fmt.Sprintf("%s=%d", grade.SubjectName, grade.Grade))
	}
	return strings.Join(parts, ",")
}

func (g *gradeFlags) Set(value string) error {
	grade, err := parseGrade(value)
	if err != nil {
		return err
	}
	*g = append(*g, grade)
	return nil
}

func parseGrade(value string) (dto.SubjectGradeRequest, error) {
	name, raw, ok := strings.Cut(value, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return dto.SubjectGradeRequest{}, fmt.Errorf("grade %q must look like Subject=N", value)
	}

	grade, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return dto.SubjectGradeRequest{}, fmt.Errorf("grade %q: %w", value, err)
	}
	if grade < 1 || grade > 9 {
		return dto.SubjectGradeRequest{}, fmt.Errorf("grade %q must be between 1 and 9", value)
	}

	return dto.SubjectGradeRequest{SubjectName: name, Grade: grade}, nil
}
