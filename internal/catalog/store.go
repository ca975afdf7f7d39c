package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Store is the SQLite-backed course catalog.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path and runs the schema
// migration. Use ":memory:" for an in-memory database in tests.
func Open(path string) (*Store, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS course (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    subject_code TEXT NOT NULL DEFAULT '',
    subject_name TEXT NOT NULL DEFAULT '',
    class_number TEXT NOT NULL DEFAULT '',
    professor    TEXT NOT NULL DEFAULT '',
    college      TEXT NOT NULL DEFAULT '',
    major        TEXT NOT NULL DEFAULT '',
    course_type  TEXT NOT NULL DEFAULT '',
    year         TEXT NOT NULL DEFAULT '',
    semester     TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS syllabus (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    course_id         INTEGER NOT NULL REFERENCES course(id) ON DELETE CASCADE,
    basic_info        TEXT,
    professor_info    TEXT,
    course_info       TEXT,
    evaluation        TEXT,
    textbook_info     TEXT,
    core_competencies TEXT
);
CREATE INDEX IF NOT EXISTS idx_syllabus_course ON syllabus (course_id);
`
	// Catalogs written before the natural key existed may hold repeated
	// imports; the newest copy of each course wins.
	const dedup = `
DELETE FROM syllabus WHERE course_id IN (
    SELECT id FROM course WHERE id NOT IN (
        SELECT MAX(id) FROM course GROUP BY ` + courseKeyCols + `));
DELETE FROM course WHERE id NOT IN (
    SELECT MAX(id) FROM course GROUP BY ` + courseKeyCols + `);
CREATE UNIQUE INDEX IF NOT EXISTS idx_course_key ON course (` + courseKeyCols + `);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	if _, err := s.db.Exec(dedup); err != nil {
		return fmt.Errorf("catalog: migrate course key: %w", err)
	}
	return nil
}

// courseKeyCols identify one offering of a course. Re-importing a syllabus
// with the same key updates the stored course instead of adding a copy.
const courseKeyCols = "subject_code, subject_name, class_number, year, semester"

// Upsert stores rec as a course row plus its syllabus row and returns the
// course id. A course already stored under the same subject code, subject
// name, class number, year and semester is updated in place and keeps its
// id. Both rows are written in one transaction.
func (s *Store) Upsert(ctx context.Context, rec CourseRecord) (int64, error) {
	cols, err := encodeBlocks(&rec)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("catalog: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const courseQ = `
INSERT INTO course (subject_code, subject_name, class_number, professor, college, major, course_type, year, semester)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (` + courseKeyCols + `) DO UPDATE SET
    professor   = excluded.professor,
    college     = excluded.college,
    major       = excluded.major,
    course_type = excluded.course_type
RETURNING id`
	var id int64
	if err := tx.QueryRowContext(ctx, courseQ,
		rec.SubjectCode, rec.SubjectName, rec.ClassNumber, rec.Professor,
		rec.College, rec.Major, rec.CourseType, rec.Year, rec.Semester).Scan(&id); err != nil {
		return 0, fmt.Errorf("catalog: upsert course: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM syllabus WHERE course_id = ?`, id); err != nil {
		return 0, fmt.Errorf("catalog: clear syllabus: %w", err)
	}
	const syllabusQ = `
INSERT INTO syllabus (course_id, basic_info, professor_info, course_info, evaluation, textbook_info, core_competencies)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, syllabusQ, id,
		cols.basic, cols.professor, cols.course, cols.evaluation, cols.textbook, cols.competencies); err != nil {
		return 0, fmt.Errorf("catalog: insert syllabus: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("catalog: commit: %w", err)
	}
	return id, nil
}

// List returns up to limit records ordered by course id. A limit <= 0 returns
// every record. Courses without a syllabus row decode with zero sub-blocks.
// A row whose syllabus JSON is malformed fails the whole call with an error
// wrapping ErrInvalidRecord.
func (s *Store) List(ctx context.Context, limit int) ([]CourseRecord, error) {
	const q = `
SELECT c.id, c.subject_code, c.subject_name, c.class_number, c.professor, c.college,
       c.major, c.course_type, c.year, c.semester,
       s.basic_info, s.professor_info, s.course_info, s.evaluation, s.textbook_info, s.core_competencies
FROM   course c
LEFT   JOIN syllabus s ON s.course_id = c.id
ORDER  BY c.id ASC
LIMIT  ?`
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []CourseRecord
	for rows.Next() {
		var rec CourseRecord
		var basic, prof, course, eval, text, comp sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.SubjectCode, &rec.SubjectName, &rec.ClassNumber, &rec.Professor,
			&rec.College, &rec.Major, &rec.CourseType, &rec.Year, &rec.Semester,
			&basic, &prof, &course, &eval, &text, &comp,
		); err != nil {
			return nil, fmt.Errorf("catalog: list scan: %w", err)
		}
		cols := syllabusColumns{
			basic:        basic.String,
			professor:    prof.String,
			course:       course.String,
			evaluation:   eval.String,
			textbook:     text.String,
			competencies: comp.String,
		}
		if err := decodeBlocks(cols, &rec); err != nil {
			return nil, fmt.Errorf("catalog: course %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list rows: %w", err)
	}
	return out, nil
}

// Count returns the number of courses in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM course`).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("catalog: close: %w", err)
	}
	return nil
}
