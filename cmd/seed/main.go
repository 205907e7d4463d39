package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/stemsi/siakad-backend/internal/config"
	"github.com/stemsi/siakad-backend/internal/database"
	"github.com/stemsi/siakad-backend/internal/logger"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/stemsi/siakad-backend/internal/repository"
	"github.com/stemsi/siakad-backend/internal/service"
	"github.com/stemsi/siakad-backend/internal/validator"
)

var names = [][2]string{
	{"Budi", "Santoso"}, {"Siti", "Aminah"}, {"Andi", "Pratama"}, {"Rina", "Wati"}, {"Joko", "Susilo"},
	{"Ayu", "Lestari"}, {"Dodi", "Kusuma"}, {"Eka", "Putri"}, {"Fahri", "Hamzah"}, {"Gita", "Savitri"},
	{"Hendra", "Gunawan"}, {"Ika", "Sari"}, {"Lukman", "Hakim"}, {"Maya", "Septiana"}, {"Nanda", "Pratama"},
	{"Oki", "Setiana"}, {"Putri", "Dian"}, {"Rafi", "Ahmad"}, {"Toni", "Setiawan"}, {"Wahyu", "Hidayat"},
}

var courses = []model.CourseInput{
	{Code: "CS101", Name: "Introduction to Programming", Department: "Computer Science", Instructor: "Dr. Hartono"},
	{Code: "CS201", Name: "Data Structures", Department: "Computer Science", Instructor: "Dr. Wibowo"},
	{Code: "MA101", Name: "Calculus I", Department: "Mathematics", Instructor: "Prof. Lestari"},
	{Code: "MA201", Name: "Linear Algebra", Department: "Mathematics", Instructor: "Dr. Nugroho"},
	{Code: "EN101", Name: "Academic Writing", Department: "Languages", Instructor: "Mrs. Kartika"},
}

var majors = []string{"Computer Science", "Mathematics", "Information Systems"}

func main() {
	count := flag.Int("students", len(names), "Number of students to seed")
	accounts := flag.Bool("accounts", true, "Create login accounts for seeded students")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	repo := repository.New(pool, repository.RetryPolicy{Attempts: cfg.DBRetryAttempts, Backoff: cfg.DBRetryBackoff})
	authService := service.NewAuthService(cfg, nil)
	studentService := service.NewStudentService(repo, log)
	courseService := service.NewCourseService(repo, log)
	enrollmentService := service.NewEnrollmentService(repo, service.StatusPolicyOverride, log)
	linkageService := service.NewLinkageService(repo, authService, log)

	if *count > len(names) {
		*count = len(names)
	}

	// ─── Courses ───────────────────────────────────────────────────────
	fmt.Println("=== Seeding Courses ===")
	courseIDs := make([]int, 0, len(courses))
	for i, in := range courses {
		credits := 2 + i%3
		in.Credits = &credits
		c, err := courseService.Create(ctx, in)
		if err != nil {
			fmt.Printf("Skipping course %s: %v\n", in.Code, err)
			continue
		}
		courseIDs = append(courseIDs, c.ID)
	}

	// ─── Students ──────────────────────────────────────────────────────
	fmt.Printf("=== Seeding %d Students ===\n", *count)
	studentIDs := make([]int, 0, *count)
	year := time.Now().Year()
	for i := 0; i < *count; i++ {
		enrollmentYear := year - i%4
		in := model.StudentInput{
			StudentCode:    fmt.Sprintf("S%04d%03d", enrollmentYear, i+1),
			FirstName:      names[i][0],
			LastName:       names[i][1],
			Gender:         "Male",
			Email:          fmt.Sprintf("student%03d@siakad.local", i+1),
			Major:          majors[i%len(majors)],
			EnrollmentYear: &enrollmentYear,
		}
		if i%2 != 0 {
			in.Gender = "Female"
		}

		st, err := studentService.Create(ctx, in)
		if err != nil {
			fmt.Printf("Error creating student %s: %v\n", in.StudentCode, err)
			continue
		}
		studentIDs = append(studentIDs, st.ID)
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d students...\n", i+1)
		}
	}

	// ─── Enrollments & Grades ──────────────────────────────────────────
	fmt.Println("=== Seeding Enrollments ===")
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	enrolled, graded := 0, 0
	for _, sid := range studentIDs {
		for _, cid := range courseIDs {
			if rng.Intn(3) == 0 {
				continue
			}
			_, err := enrollmentService.Enroll(ctx, model.EnrollmentInput{StudentID: sid, CourseID: cid})
			if err != nil {
				if !errors.Is(err, service.ErrDuplicateEnrollment) {
					fmt.Printf("Error enrolling student %d in course %d: %v\n", sid, cid, err)
				}
				continue
			}
			enrolled++

			if rng.Intn(2) == 0 {
				continue
			}
			grade := seedGrade(rng)
			if _, err := enrollmentService.RecordGrade(ctx, model.GradeInput{StudentID: sid, CourseID: cid, Grade: &grade}); err != nil {
				fmt.Printf("Error grading student %d in course %d: %v\n", sid, cid, err)
				continue
			}
			graded++
		}
	}

	if *accounts {
		res, err := linkageService.CreateAccountsForStudents(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create student accounts")
		}
		fmt.Printf("Accounts: %d created, %d linked, %d skipped, %d failed\n", res.Created, res.Linked, res.Skipped, res.Failed)
	}

	fmt.Printf("\nSeed completed! %d courses, %d students, %d enrollments, %d graded.\n",
		len(courseIDs), len(studentIDs), enrolled, graded)
}

// seedGrade returns a grade between 60 and 100 rounded to two decimals.
func seedGrade(rng *rand.Rand) float64 {
	g := 60 + rng.Float64()*40
	if g > 100 {
		g = 100
	}
	return float64(int(g*100)) / 100
}
