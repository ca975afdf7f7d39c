package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// rawSyllabus is the scraped syllabus layout: three sections of positional
// 항목_N fields.
type rawSyllabus struct {
	Basic      fields `json:"기본정보"`
	Evaluation fields `json:"평가방법"`
	Competency fields `json:"핵심역량"`
}

// fields is one section of a scraped syllabus. Values are usually strings;
// numbers and booleans are tolerated and formatted.
type fields map[string]any

func (f fields) get(key string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// ParseSyllabus converts one scraped syllabus JSON document into a
// CourseRecord. Missing sections or keys yield empty strings. Malformed JSON
// returns an error wrapping ErrInvalidRecord.
func ParseSyllabus(data []byte) (CourseRecord, error) {
	var raw rawSyllabus
	if err := json.Unmarshal(data, &raw); err != nil {
		return CourseRecord{}, fmt.Errorf("%w: syllabus: %v", ErrInvalidRecord, err)
	}
	b, ev, co := raw.Basic, raw.Evaluation, raw.Competency

	majorYear := b.get("항목_20")
	rec := CourseRecord{
		SubjectCode: b.get("항목_13"),
		SubjectName: b.get("항목_18"),
		ClassNumber: b.get("항목_11"),
		Professor:   professorName(b.get("항목_9")),
		College:     firstField(b.get("항목_1")),
		Major:       firstField(majorYear),
		CourseType:  b.get("항목_5"),
		Year:        lastField(majorYear),
		Semester:    semesterOf(b.get("항목_0")),
		Basic: BasicInfo{
			Email:           b.get("항목_4"),
			Phone:           b.get("항목_10"),
			CourseObjective: b.get("항목_29"),
			CourseType:      b.get("항목_5"),
			Professor:       b.get("항목_9"),
			SubjectName:     b.get("항목_18"),
			MajorYear:       majorYear,
		},
		ProfessorInfo: ProfessorInfo{
			Email:            b.get("항목_4"),
			Phone:            b.get("항목_10"),
			Professor:        b.get("항목_9"),
			Office:           b.get("항목_6"),
			ConsultationTime: b.get("항목_22"),
		},
		Course: CourseInfo{
			CourseObjective: b.get("항목_29"),
			Classroom:       b.get("전주"),
			Schedule:        b.get("항목_27"),
		},
		Evaluation: Evaluation{
			ARatio:           ev.get("항목_10"),
			EvaluationMethod: ev.get("항목_8"),
			Midterm:          co.get("항목_59"),
			Final:            co.get("항목_60"),
			Attendance:       co.get("항목_61"),
			Assignment:       co.get("항목_62"),
			Other:            co.get("항목_66"),
		},
		Textbook: TextbookInfo{
			MainTextbook: co.get("항목_21"),
			Reference:    co.get("항목_24"),
		},
		Competencies: CoreCompetencies{
			Communication: co.get("항목_12"),
			Creativity:    co.get("항목_13"),
			Personality:   co.get("항목_14"),
			Practical:     co.get("항목_15"),
			Challenge:     co.get("항목_16"),
		},
	}
	return rec, nil
}

// professorName extracts the name from a field like "홍길동교수 (컴퓨터공학과)".
// The first whitespace-separated token containing "교수" wins; the title is
// stripped when a name precedes it. Without such a token the field is
// returned as is.
func professorName(v string) string {
	for _, part := range strings.Fields(v) {
		idx := strings.Index(part, "교수")
		if idx < 0 {
			continue
		}
		if idx > 0 {
			return part[:idx]
		}
		return part
	}
	return v
}

func firstField(v string) string {
	f := strings.Fields(v)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

func lastField(v string) string {
	f := strings.Fields(v)
	if len(f) == 0 {
		return ""
	}
	return f[len(f)-1]
}

// semesterOf keeps the part before the first "/" ("2024-1/주간" -> "2024-1").
func semesterOf(v string) string {
	if v == "" {
		return ""
	}
	s, _, _ := strings.Cut(v, "/")
	return strings.TrimSpace(s)
}
