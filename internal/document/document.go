// Package document renders catalog records into the flat text and metadata
// that get chunked, embedded and indexed.
package document

import (
	"strings"

	"github.com/54b3r/coursematch/internal/catalog"
)

// Metadata keys attached to every chunk of a rendered course.
const (
	KeySubjectCode      = "subject_code"
	KeySubjectName      = "subject_name"
	KeyClassNumber      = "class_number"
	KeyProfessor        = "professor"
	KeyCollege          = "college"
	KeyMajor            = "major"
	KeyCourseType       = "course_type"
	KeyYear             = "year"
	KeySemester         = "semester"
	KeyProfessorEmail   = "professor_email"
	KeyProfessorPhone   = "professor_phone"
	KeyCourseObjective  = "course_objective"
	KeyOffice           = "office"
	KeyConsultationTime = "consultation_time"
	KeyClassroom        = "classroom"
	KeySchedule         = "schedule"
)

// MetadataKeys lists every metadata key in canonical order.
var MetadataKeys = []string{
	KeySubjectCode, KeySubjectName, KeyClassNumber, KeyProfessor,
	KeyCollege, KeyMajor, KeyCourseType, KeyYear, KeySemester,
	KeyProfessorEmail, KeyProfessorPhone, KeyCourseObjective,
	KeyOffice, KeyConsultationTime, KeyClassroom, KeySchedule,
}

// Rendered is a course as searchable text plus flat string metadata.
type Rendered struct {
	Text     string
	Metadata map[string]string
}

type section struct {
	title string
	lines [][2]string
}

// Render produces the text and metadata for rec. It never fails: absent
// fields render as empty strings and every section and metadata key is
// always present.
func Render(rec catalog.CourseRecord) Rendered {
	sections := []section{
		{"강의 기본 정보", [][2]string{
			{"교과목명", rec.SubjectName},
			{"담당교수", rec.Professor},
			{"이수구분", rec.CourseType},
			{"학과/학년", rec.Major + " " + rec.Year},
			{"분반", rec.ClassNumber},
			{"학기", rec.Semester},
		}},
		{"기본 정보", [][2]string{
			{"이메일", rec.Basic.Email},
			{"연락처", rec.Basic.Phone},
			{"수업목표", rec.Basic.CourseObjective},
		}},
		{"교수 정보", [][2]string{
			{"연구실", rec.ProfessorInfo.Office},
			{"상담가능시간", rec.ProfessorInfo.ConsultationTime},
		}},
		{"강의 정보", [][2]string{
			{"강의실", rec.Course.Classroom},
			{"요일/시간", rec.Course.Schedule},
		}},
		{"평가 방법", [][2]string{
			{"A 비율", rec.Evaluation.ARatio},
			{"평가방법", rec.Evaluation.EvaluationMethod},
			{"중간고사", rec.Evaluation.Midterm},
			{"기말고사", rec.Evaluation.Final},
			{"출석", rec.Evaluation.Attendance},
			{"과제", rec.Evaluation.Assignment},
			{"기타", rec.Evaluation.Other},
		}},
		{"교재 정보", [][2]string{
			{"주교재", rec.Textbook.MainTextbook},
			{"참고자료", rec.Textbook.Reference},
		}},
		{"핵심역량", [][2]string{
			{"소통역량", rec.Competencies.Communication},
			{"창의역량", rec.Competencies.Creativity},
			{"인성역량", rec.Competencies.Personality},
			{"실무역량", rec.Competencies.Practical},
			{"도전역량", rec.Competencies.Challenge},
		}},
	}

	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.title)
		b.WriteString(":\n")
		for _, l := range s.lines {
			b.WriteString("- ")
			b.WriteString(l[0])
			b.WriteString(": ")
			b.WriteString(l[1])
			b.WriteString("\n")
		}
	}

	return Rendered{
		Text: b.String(),
		Metadata: map[string]string{
			KeySubjectCode:      rec.SubjectCode,
			KeySubjectName:      rec.SubjectName,
			KeyClassNumber:      rec.ClassNumber,
			KeyProfessor:        rec.Professor,
			KeyCollege:          rec.College,
			KeyMajor:            rec.Major,
			KeyCourseType:       rec.CourseType,
			KeyYear:             rec.Year,
			KeySemester:         rec.Semester,
			KeyProfessorEmail:   rec.Basic.Email,
			KeyProfessorPhone:   rec.Basic.Phone,
			KeyCourseObjective:  rec.Basic.CourseObjective,
			KeyOffice:           rec.ProfessorInfo.Office,
			KeyConsultationTime: rec.ProfessorInfo.ConsultationTime,
			KeyClassroom:        rec.Course.Classroom,
			KeySchedule:         rec.Course.Schedule,
		},
	}
}
