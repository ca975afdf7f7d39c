package catalog

import (
	"context"
	"errors"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory catalog: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord() CourseRecord {
	return CourseRecord{
		SubjectCode: "CS101",
		SubjectName: "인공지능개론",
		ClassNumber: "01",
		Professor:   "김교수",
		College:     "공과대학",
		Major:       "컴퓨터공학과",
		CourseType:  "전공선택",
		Year:        "3",
		Semester:    "2024-1",
		Basic:       BasicInfo{Email: "kim@example.ac.kr", CourseObjective: "AI 기초"},
		ProfessorInfo: ProfessorInfo{
			Office:           "공학관 301",
			ConsultationTime: "화 14:00",
		},
		Course:       CourseInfo{Classroom: "공학관 101", Schedule: "월 10:00"},
		Evaluation:   Evaluation{Midterm: "30", Final: "40"},
		Textbook:     TextbookInfo{MainTextbook: "인공지능: 현대적 접근"},
		Competencies: CoreCompetencies{Creativity: "30"},
	}
}

func Test_Store_UpsertAndList(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	want := sampleRecord()
	id, err := s.Upsert(ctx, want)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if id == 0 {
		t.Fatal("want non-zero id")
	}

	recs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("want 1 record, got %d", len(recs))
	}
	want.ID = id
	if recs[0] != want {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", recs[0], want)
	}
}

func Test_Store_ListLimitAndCount(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		rec := sampleRecord()
		rec.SubjectName = name
		if _, err := s.Upsert(ctx, rec); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("count: want 3, got %d", n)
	}

	recs, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2 records, got %d", len(recs))
	}
	if recs[0].SubjectName != "a" || recs[1].SubjectName != "b" {
		t.Errorf("want insertion order a,b; got %s,%s", recs[0].SubjectName, recs[1].SubjectName)
	}
}

func Test_Store_UpsertReplacesSameCourse(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Upsert(ctx, sampleRecord())
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	updated := sampleRecord()
	updated.Professor = "박교수"
	updated.Textbook.MainTextbook = "딥러닝"
	second, err := s.Upsert(ctx, updated)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second != first {
		t.Errorf("re-import must keep id %d, got %d", first, second)
	}

	other := sampleRecord()
	other.Semester = "2024-2"
	if _, err := s.Upsert(ctx, other); err != nil {
		t.Fatalf("other semester: %v", err)
	}

	recs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2 courses, got %d", len(recs))
	}
	if recs[0].Professor != "박교수" || recs[0].Textbook.MainTextbook != "딥러닝" {
		t.Errorf("course not updated: %+v", recs[0])
	}
	var syllabi int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM syllabus`).Scan(&syllabi); err != nil {
		t.Fatalf("count syllabi: %v", err)
	}
	if syllabi != 2 {
		t.Errorf("want one syllabus per course, got %d", syllabi)
	}
}

func Test_Store_MigrateCollapsesDuplicates(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx, `DROP INDEX idx_course_key`); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	for _, prof := range []string{"김교수", "이교수"} {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO course (subject_code, subject_name, professor) VALUES ('CS101', '인공지능개론', ?)`, prof)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		id, _ := res.LastInsertId()
		if _, err := s.db.ExecContext(ctx, `INSERT INTO syllabus (course_id) VALUES (?)`, id); err != nil {
			t.Fatalf("seed syllabus: %v", err)
		}
	}

	if err := s.migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	recs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || recs[0].Professor != "이교수" {
		t.Errorf("want the newest copy only, got %+v", recs)
	}
	var syllabi int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM syllabus`).Scan(&syllabi); err != nil {
		t.Fatalf("count syllabi: %v", err)
	}
	if syllabi != 1 {
		t.Errorf("orphaned syllabus rows left: %d", syllabi)
	}
}

func Test_Store_EmptyColumnsDecodeToZeroBlocks(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	res, err := s.db.ExecContext(ctx, `INSERT INTO course (subject_name) VALUES ('빈 강의')`)
	if err != nil {
		t.Fatalf("seed course: %v", err)
	}
	id, _ := res.LastInsertId()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO syllabus (course_id, basic_info, evaluation) VALUES (?, '', 'null')`, id); err != nil {
		t.Fatalf("seed syllabus: %v", err)
	}

	recs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("want 1 record, got %d", len(recs))
	}
	if recs[0].Basic != (BasicInfo{}) || recs[0].Evaluation != (Evaluation{}) {
		t.Errorf("want zero blocks, got %+v", recs[0])
	}
}

func Test_Store_MalformedBlockRejected(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	res, err := s.db.ExecContext(ctx, `INSERT INTO course (subject_name) VALUES ('깨진 강의')`)
	if err != nil {
		t.Fatalf("seed course: %v", err)
	}
	id, _ := res.LastInsertId()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO syllabus (course_id, professor_info) VALUES (?, '{"office": 12')`, id); err != nil {
		t.Fatalf("seed syllabus: %v", err)
	}

	_, err = s.List(ctx, 0)
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("want ErrInvalidRecord, got %v", err)
	}
}

func Test_Store_WrongFieldTypeRejected(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	res, err := s.db.ExecContext(ctx, `INSERT INTO course (subject_name) VALUES ('x')`)
	if err != nil {
		t.Fatalf("seed course: %v", err)
	}
	id, _ := res.LastInsertId()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO syllabus (course_id, course_info) VALUES (?, '{"classroom": 101}')`, id); err != nil {
		t.Fatalf("seed syllabus: %v", err)
	}

	if _, err := s.List(ctx, 0); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("want ErrInvalidRecord, got %v", err)
	}
}

func Test_ParseSyllabus(t *testing.T) {
	t.Parallel()
	raw := []byte(`{
		"기본정보": {
			"항목_0": "2024-1/주간",
			"항목_1": "공과대학 컴퓨터공학부",
			"항목_4": "kim@example.ac.kr",
			"항목_5": "전공선택",
			"항목_6": "공학관 301",
			"항목_9": "김철수교수 (컴퓨터공학과)",
			"항목_10": "063-000-0000",
			"항목_11": "01",
			"항목_13": "CS101",
			"항목_18": "인공지능개론",
			"항목_20": "컴퓨터공학과 3",
			"항목_22": "화 14:00",
			"항목_27": "월 10:00",
			"항목_29": "AI 기초",
			"전주": "공학관 101"
		},
		"평가방법": {"항목_8": "상대평가", "항목_10": "A40%"},
		"핵심역량": {"항목_12": 20, "항목_59": "30", "항목_60": "40", "항목_21": "교재", "항목_24": "참고"}
	}`)

	rec, err := ParseSyllabus(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	checks := []struct {
		name, got, want string
	}{
		{"subject_code", rec.SubjectCode, "CS101"},
		{"subject_name", rec.SubjectName, "인공지능개론"},
		{"class_number", rec.ClassNumber, "01"},
		{"professor", rec.Professor, "김철수"},
		{"college", rec.College, "공과대학"},
		{"major", rec.Major, "컴퓨터공학과"},
		{"year", rec.Year, "3"},
		{"semester", rec.Semester, "2024-1"},
		{"course_type", rec.CourseType, "전공선택"},
		{"basic.major_year", rec.Basic.MajorYear, "컴퓨터공학과 3"},
		{"professor_info.office", rec.ProfessorInfo.Office, "공학관 301"},
		{"course.classroom", rec.Course.Classroom, "공학관 101"},
		{"evaluation.a_ratio", rec.Evaluation.ARatio, "A40%"},
		{"evaluation.midterm", rec.Evaluation.Midterm, "30"},
		{"textbook.main", rec.Textbook.MainTextbook, "교재"},
		{"competencies.communication", rec.Competencies.Communication, "20"},
		{"competencies.challenge", rec.Competencies.Challenge, ""},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: want %q, got %q", c.name, c.want, c.got)
		}
	}
}

func Test_ParseSyllabus_MissingSections(t *testing.T) {
	t.Parallel()
	rec, err := ParseSyllabus([]byte(`{}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec != (CourseRecord{}) {
		t.Errorf("want zero record, got %+v", rec)
	}
}

func Test_ParseSyllabus_Malformed(t *testing.T) {
	t.Parallel()
	if _, err := ParseSyllabus([]byte(`{"기본정보": [`)); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("want ErrInvalidRecord, got %v", err)
	}
}

func Test_professorName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"김철수교수", "김철수"},
		{"컴퓨터공학과 이영희교수", "이영희"},
		{"교수 박민수", "교수"},
		{"박민수", "박민수"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := professorName(tt.in); got != tt.want {
			t.Errorf("professorName(%q): want %q, got %q", tt.in, tt.want, got)
		}
	}
}
