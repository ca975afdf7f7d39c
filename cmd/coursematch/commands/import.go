package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/54b3r/coursematch/internal/catalog"
	"github.com/54b3r/coursematch/internal/logging"
)

// NewImportCmd constructs the `coursematch import` command, which parses
// scraped syllabus JSON files into the course catalog.
func NewImportCmd() *cobra.Command {
	var pattern string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import scraped syllabus JSON files into the course catalog",
		Long: `Parse scraped syllabus JSON files (기본정보 / 평가방법 / 핵심역량 sections)
and store them in the course catalog database. A syllabus already imported
(same subject code, name, class number, year and semester) is updated in
place, so re-running an import does not duplicate courses.

Files that cannot be read or parsed are skipped with a warning. Re-run
'coursematch index' afterwards to make the new courses searchable.

Examples:
  coursematch import --glob 'data/**/*.json'
  coursematch import --glob 'syllabi/2024-1/*.json' --db ./courses.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			if pattern == "" {
				return fmt.Errorf("import: --glob is required")
			}
			files, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return fmt.Errorf("import: bad pattern %q: %w", pattern, err)
			}
			if len(files) == 0 {
				return fmt.Errorf("import: no files match %q", pattern)
			}

			path := catalogPath(dbPath)
			store, err := catalog.Open(path)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			defer store.Close()

			log.Info("starting import", slog.Int("files", len(files)), slog.String("db", path))

			bar := newProgress(len(files), "importing")
			imported, skipped := 0, 0
			for _, f := range files {
				bar.Add(1)

				data, err := os.ReadFile(f)
				if err != nil {
					log.Warn("import: skipping unreadable file", slog.String("file", f), slog.Any("error", err))
					skipped++
					continue
				}
				rec, err := catalog.ParseSyllabus(data)
				if err != nil {
					log.Warn("import: skipping malformed syllabus", slog.String("file", f), slog.Any("error", err))
					skipped++
					continue
				}
				if rec.SubjectName == "" {
					log.Warn("import: skipping syllabus without subject name", slog.String("file", f))
					skipped++
					continue
				}
				if _, err := store.Upsert(ctx, rec); err != nil {
					return fmt.Errorf("import: %s: %w", f, err)
				}
				imported++
			}
			bar.Finish()

			log.Info("import complete", slog.Int("imported", imported), slog.Int("skipped", skipped))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d files into %s (%d skipped)\n",
				imported, len(files), path, skipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pattern, "glob", "g", "", "File pattern, ** matches any depth (required)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Catalog database path (default: CATALOG_DB or course_recommender.db)")

	return cmd
}
