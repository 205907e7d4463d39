package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/siakad-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

// ErrExportFailed is returned when the workbook cannot be generated.
var ErrExportFailed = errors.New("failed to generate export file")

const gradeSheet = "Grades"

var gradeHeaders = []string{
	"Rank", "Student ID", "Student Name", "Course Code", "Course Name",
	"Credits", "Grade", "Status", "Enrollment Date", "Remarks",
}

// ExportService renders reports as Excel workbooks.
type ExportService struct {
	enrollments *EnrollmentService
	log         zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(enrollments *EnrollmentService, log zerolog.Logger) *ExportService {
	return &ExportService{
		enrollments: enrollments,
		log:         log.With().Str("component", "export_service").Logger(),
	}
}

// ExportGrades writes the ranked grade report matching filter to an .xlsx
// workbook and returns it with a suggested filename.
func (s *ExportService) ExportGrades(ctx context.Context, filter model.EnrollmentFilter) (*bytes.Buffer, string, error) {
	rows, err := s.enrollments.GradeReport(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	buf, err := RenderGradeReport(rows)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to render grade report")
		return nil, "", ErrExportFailed
	}

	filename := fmt.Sprintf("grades_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// RenderGradeReport writes already ranked enrollments to a single-sheet workbook.
func RenderGradeReport(rows []model.Enrollment) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(gradeSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range gradeHeaders {
		if err := f.SetCellValue(gradeSheet, cellName(i+1, 1), h); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(gradeSheet, cellName(1, 1), cellName(len(gradeHeaders), 1), headerStyle); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(gradeSheet, "A", "A", 6)
	_ = f.SetColWidth(gradeSheet, "B", "B", 14)
	_ = f.SetColWidth(gradeSheet, "C", "C", 26)
	_ = f.SetColWidth(gradeSheet, "D", "D", 12)
	_ = f.SetColWidth(gradeSheet, "E", "E", 30)
	_ = f.SetColWidth(gradeSheet, "F", "I", 14)
	_ = f.SetColWidth(gradeSheet, "J", "J", 30)

	for i := range rows {
		e := &rows[i]
		r := i + 2

		var studentCode, studentName, courseCode, courseName string
		var credits int
		if e.Student != nil {
			studentCode, studentName = e.Student.StudentCode, e.Student.FullName()
		}
		if e.Course != nil {
			courseCode, courseName, credits = e.Course.Code, e.Course.Name, e.Course.Credits
		}

		var grade any
		if e.Grade != nil {
			grade = *e.Grade
		}

		values := []any{
			i + 1, studentCode, studentName, courseCode, courseName,
			credits, grade, string(e.Status), e.EnrollmentDate.Format(model.DateLayout), e.Remarks,
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			if err := f.SetCellValue(gradeSheet, cellName(col+1, r), v); err != nil {
				return nil, err
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
