package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/54b3r/coursematch/internal/catalog"
)

// NewCoursesCmd constructs the `coursematch courses` command, which prints
// the catalog size and the first few records for inspection.
func NewCoursesCmd() *cobra.Command {
	var dbPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Inspect the course catalog",
		Long: `Print the number of courses in the catalog followed by the first --limit
records, section by section.

Examples:
  coursematch courses
  coursematch courses --limit 20 --db ./courses.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := catalog.Open(catalogPath(dbPath))
			if err != nil {
				return fmt.Errorf("courses: %w", err)
			}
			defer store.Close()

			n, err := store.Count(ctx)
			if err != nil {
				return fmt.Errorf("courses: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "총 강의 수: %d\n", n)
			if n == 0 || limit <= 0 {
				return nil
			}

			recs, err := store.List(ctx, limit)
			if err != nil {
				return fmt.Errorf("courses: %w", err)
			}
			for _, rec := range recs {
				printCourse(out, rec)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Catalog database path (default: CATALOG_DB or course_recommender.db)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "Number of records to print")

	return cmd
}

func printCourse(w io.Writer, rec catalog.CourseRecord) {
	fmt.Fprintf(w, "\n=== [%d] %s ===\n", rec.ID, rec.SubjectName)

	section := func(title string, rows ...[2]string) {
		fmt.Fprintf(w, "[%s]\n", title)
		for _, r := range rows {
			if r[1] != "" {
				fmt.Fprintf(w, "  %s: %s\n", r[0], r[1])
			}
		}
	}

	section("강의 정보",
		[2]string{"과목코드", rec.SubjectCode},
		[2]string{"분반", rec.ClassNumber},
		[2]string{"교수", rec.Professor},
		[2]string{"대학", rec.College},
		[2]string{"학과", rec.Major},
		[2]string{"이수구분", rec.CourseType},
		[2]string{"학년", rec.Year},
		[2]string{"학기", rec.Semester},
	)
	section("교수 정보",
		[2]string{"이메일", rec.ProfessorInfo.Email},
		[2]string{"전화번호", rec.ProfessorInfo.Phone},
		[2]string{"연구실", rec.ProfessorInfo.Office},
		[2]string{"상담시간", rec.ProfessorInfo.ConsultationTime},
	)
	section("수업 정보",
		[2]string{"강의목표", rec.Course.CourseObjective},
		[2]string{"강의실", rec.Course.Classroom},
		[2]string{"시간표", rec.Course.Schedule},
	)
	section("평가 방법",
		[2]string{"평가방식", rec.Evaluation.EvaluationMethod},
		[2]string{"A비율", rec.Evaluation.ARatio},
		[2]string{"중간", rec.Evaluation.Midterm},
		[2]string{"기말", rec.Evaluation.Final},
		[2]string{"출석", rec.Evaluation.Attendance},
		[2]string{"과제", rec.Evaluation.Assignment},
		[2]string{"기타", rec.Evaluation.Other},
	)
	section("교재",
		[2]string{"주교재", rec.Textbook.MainTextbook},
		[2]string{"참고문헌", rec.Textbook.Reference},
	)
	section("핵심역량",
		[2]string{"의사소통", rec.Competencies.Communication},
		[2]string{"창의", rec.Competencies.Creativity},
		[2]string{"인성", rec.Competencies.Personality},
		[2]string{"실무", rec.Competencies.Practical},
		[2]string{"도전", rec.Competencies.Challenge},
	)
}
