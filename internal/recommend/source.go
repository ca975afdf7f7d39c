package recommend

import (
	"fmt"

	"github.com/54b3r/coursematch/internal/document"
)

// Source is the structured course summary returned beside the answer.
// Missing values are empty strings.
type Source struct {
	SubjectName      string `json:"subject_name"`
	Professor        string `json:"professor"`
	Major            string `json:"major"`
	CourseType       string `json:"course_type"`
	ProfessorPhone   string `json:"professor_phone"`
	ProfessorEmail   string `json:"professor_email"`
	Office           string `json:"office"`
	ConsultationTime string `json:"consultation_time"`
	Classroom        string `json:"classroom"`
	Schedule         string `json:"schedule"`
	Content          string `json:"content"`
}

// sourceFromResult builds a Source from a result's metadata. Metadata that
// is missing, or lacks all of subject name, professor, major and course
// type, fails with ErrMetadataParse.
func sourceFromResult(meta map[string]string, content string) (Source, error) {
	if meta == nil {
		return Source{}, fmt.Errorf("recommend: no metadata: %w", ErrMetadataParse)
	}
	s := Source{
		SubjectName:      meta[document.KeySubjectName],
		Professor:        meta[document.KeyProfessor],
		Major:            meta[document.KeyMajor],
		CourseType:       meta[document.KeyCourseType],
		ProfessorPhone:   meta[document.KeyProfessorPhone],
		ProfessorEmail:   meta[document.KeyProfessorEmail],
		Office:           meta[document.KeyOffice],
		ConsultationTime: meta[document.KeyConsultationTime],
		Classroom:        meta[document.KeyClassroom],
		Schedule:         meta[document.KeySchedule],
		Content:          content,
	}
	if s.SubjectName == "" && s.Professor == "" && s.Major == "" && s.CourseType == "" {
		return Source{}, fmt.Errorf("recommend: no identifying fields: %w", ErrMetadataParse)
	}
	if year := meta[document.KeyYear]; s.Major != "" && year != "" {
		s.Major = s.Major + " " + year
	}
	return s, nil
}
