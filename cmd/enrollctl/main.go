package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/educonnect/educonnect-api/internal/repository"
	"github.com/educonnect/educonnect-api/internal/service"
	"github.com/educonnect/educonnect-api/pkg/config"
	"github.com/educonnect/educonnect-api/pkg/database"
	"github.com/educonnect/educonnect-api/pkg/logger"
)

const usage = `Usage: enrollctl <command> [flags]

Commands:
  check-orphaned          Count enrollments referencing deleted users or courses.
                          Exits 1 when any orphans are found.
  fix-orphaned [--dry-run]
                          Delete orphaned enrollments. With --dry-run only the
                          counts are printed and nothing is deleted.
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	svc := service.NewMaintenanceService(repository.NewEnrollmentRepository(db), logr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch flag.Arg(0) {
	case "check-orphaned":
		os.Exit(runCheck(ctx, svc))
	case "fix-orphaned":
		fixFlags := flag.NewFlagSet("fix-orphaned", flag.ExitOnError)
		dryRun := fixFlags.Bool("dry-run", false, "report orphans without deleting them")
		if err := fixFlags.Parse(flag.Args()[1:]); err != nil {
			os.Exit(2)
		}
		os.Exit(runFix(ctx, svc, *dryRun))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}
}

func runCheck(ctx context.Context, svc *service.MaintenanceService) int {
	report, err := svc.Check(ctx)
	if err != nil {
		log.Fatalf("check failed: %v", err)
	}

	fmt.Printf("Enrollments with deleted users: %d\n", report.DeletedUsers)
	fmt.Printf("Enrollments with deleted courses: %d\n", report.DeletedCourses)

	if report.Clean() {
		fmt.Println("No orphaned enrollments found.")
		return 0
	}
	fmt.Println("Orphaned enrollments detected. Run 'enrollctl fix-orphaned' to clean up.")
	return 1
}

func runFix(ctx context.Context, svc *service.MaintenanceService, dryRun bool) int {
	snapshot, err := svc.Snapshot(ctx)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}

	report := snapshot.Report()
	fmt.Printf("Enrollments with deleted users: %d\n", report.DeletedUsers)
	fmt.Printf("Enrollments with deleted courses: %d\n", report.DeletedCourses)

	if report.Clean() {
		fmt.Println("No orphaned enrollments found.")
		return 0
	}

	if dryRun {
		fmt.Printf("Dry run: %d enrollments would be deleted.\n", report.DeletedUsers+report.DeletedCourses)
		return 0
	}

	confirmed := service.OrphanSnapshot{}
	if len(snapshot.UserOrphans) > 0 {
		if confirm(fmt.Sprintf("Delete %d enrollments with missing users? [y/N] ", len(snapshot.UserOrphans))) {
			confirmed.UserOrphans = snapshot.UserOrphans
		}
	}
	if len(snapshot.CourseOrphans) > 0 {
		if confirm(fmt.Sprintf("Delete %d enrollments with missing courses? [y/N] ", len(snapshot.CourseOrphans))) {
			confirmed.CourseOrphans = snapshot.CourseOrphans
		}
	}
	if len(confirmed.UserOrphans) == 0 && len(confirmed.CourseOrphans) == 0 {
		fmt.Println("Nothing confirmed for deletion.")
		return 0
	}

	deleted, err := svc.Fix(ctx, confirmed)
	if err != nil {
		log.Fatalf("fix failed: %v", err)
	}

	fmt.Printf("Deleted %d enrollments with missing users.\n", deleted.DeletedUsers)
	fmt.Printf("Deleted %d enrollments with missing courses.\n", deleted.DeletedCourses)
	fmt.Printf("Total deleted: %d\n", deleted.DeletedUsers+deleted.DeletedCourses)
	return 0
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
