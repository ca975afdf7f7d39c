// Package catalog holds the course catalog: the structured syllabus records
// the recommender indexes. Records live in a local SQLite database with one
// row per course and one row per syllabus; the syllabus sub-blocks are stored
// as JSON text and decoded into fixed, typed structs at this boundary so the
// rest of the system never sees loosely-typed maps.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord is returned when a stored record cannot be decoded into the
// fixed schema (malformed JSON in a sub-block, wrong field types).
var ErrInvalidRecord = errors.New("invalid course record")

// BasicInfo is the 기본 정보 block of a syllabus.
type BasicInfo struct {
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	CourseObjective string `json:"course_objective"`
	CourseType      string `json:"course_type"`
	Professor       string `json:"professor"`
	SubjectName     string `json:"subject_name"`
	MajorYear       string `json:"major_year"`
}

// ProfessorInfo is the 교수 정보 block of a syllabus.
type ProfessorInfo struct {
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Professor        string `json:"professor"`
	Office           string `json:"office"`
	ConsultationTime string `json:"consultation_time"`
}

// CourseInfo is the 강의 정보 block of a syllabus.
type CourseInfo struct {
	CourseObjective string `json:"course_objective"`
	Classroom       string `json:"classroom"`
	Schedule        string `json:"schedule"`
}

// Evaluation is the 평가 방법 block of a syllabus.
type Evaluation struct {
	ARatio           string `json:"a_ratio"`
	EvaluationMethod string `json:"evaluation_method"`
	Midterm          string `json:"midterm"`
	Final            string `json:"final"`
	Attendance       string `json:"attendance"`
	Assignment       string `json:"assignment"`
	Other            string `json:"other"`
}

// TextbookInfo is the 교재 정보 block of a syllabus.
type TextbookInfo struct {
	MainTextbook string `json:"main_textbook"`
	Reference    string `json:"reference"`
}

// CoreCompetencies is the 핵심역량 block of a syllabus.
type CoreCompetencies struct {
	Communication string `json:"communication"`
	Creativity    string `json:"creativity"`
	Personality   string `json:"personality"`
	Practical     string `json:"practical"`
	Challenge     string `json:"challenge"`
}

// CourseRecord is one course together with its parsed syllabus.
// Every field is a plain string; absent values are the empty string.
type CourseRecord struct {
	// ID is the catalog row id. Zero for records not yet stored.
	ID int64

	SubjectCode string
	SubjectName string
	ClassNumber string
	Professor   string
	College     string
	Major       string
	CourseType  string
	Year        string
	Semester    string

	Basic         BasicInfo
	ProfessorInfo ProfessorInfo
	Course        CourseInfo
	Evaluation    Evaluation
	Textbook      TextbookInfo
	Competencies  CoreCompetencies
}

// syllabusColumns is the JSON-encoded form of the six sub-blocks, in the
// order they are stored.
type syllabusColumns struct {
	basic, professor, course, evaluation, textbook, competencies string
}

// encodeBlocks marshals the record's sub-blocks into their column form.
func encodeBlocks(rec *CourseRecord) (syllabusColumns, error) {
	var cols syllabusColumns
	targets := []struct {
		dst *string
		src any
	}{
		{&cols.basic, rec.Basic},
		{&cols.professor, rec.ProfessorInfo},
		{&cols.course, rec.Course},
		{&cols.evaluation, rec.Evaluation},
		{&cols.textbook, rec.Textbook},
		{&cols.competencies, rec.Competencies},
	}
	for _, t := range targets {
		b, err := json.Marshal(t.src)
		if err != nil {
			return cols, fmt.Errorf("catalog: encode block: %w", err)
		}
		*t.dst = string(b)
	}
	return cols, nil
}

// decodeBlocks parses the six JSON columns into rec. An empty or null column
// decodes to the zero block.
func decodeBlocks(cols syllabusColumns, rec *CourseRecord) error {
	targets := []struct {
		name string
		raw  string
		dst  any
	}{
		{"basic_info", cols.basic, &rec.Basic},
		{"professor_info", cols.professor, &rec.ProfessorInfo},
		{"course_info", cols.course, &rec.Course},
		{"evaluation", cols.evaluation, &rec.Evaluation},
		{"textbook_info", cols.textbook, &rec.Textbook},
		{"core_competencies", cols.competencies, &rec.Competencies},
	}
	for _, t := range targets {
		raw := strings.TrimSpace(t.raw)
		if raw == "" || raw == "null" {
			continue
		}
		if err := json.Unmarshal([]byte(raw), t.dst); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, t.name, err)
		}
	}
	return nil
}
