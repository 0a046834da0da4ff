package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"assessment-matrix/backend/internal/matrix"
	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoStudents   = errors.New("该课程暂无可见学生")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// Excel 格式：
//   - 每个可见学生一个 Sheet（名称截断到 31 字符并去重）
//   - 行：评估领域（按位置）
//   - 列：领域 | E 评分 | E 作业 | C 评分 | C 作业 | A 评分 | A 作业
//   - 作业单元格：按从新到旧列出 "名称 (颜色)"，每条一行
//
// 日历格式见 ExportCalendar。
type ExportService interface {
	ExportMatrix(ctx context.Context, courseName string) (*bytes.Buffer, string, error)
	ExportCalendar(ctx context.Context, courseName string) (string, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// gradeFills 评分颜色 → 单元格填充色
var gradeFills = map[matrix.Color]string{
	matrix.ColorGreen:  "#C6EFCE",
	matrix.ColorYellow: "#FFEB9C",
	matrix.ColorRed:    "#FFC7CE",
	matrix.ColorGrey:   "#D9D9D9",
}

// ═══════════════════════════════════════════════════════════
// ExportMatrix: 导出课程评估矩阵为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportMatrix(ctx context.Context, courseName string) (*bytes.Buffer, string, error) {
	// 1. 加载课程、领域与可见学生
	course, areas, records, err := s.loadVisible(ctx, courseName)
	if err != nil {
		return nil, "", err
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	fillStyles := make(map[matrix.Color]int, len(gradeFills))
	for c, fill := range gradeFills {
		id, _ := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
		})
		fillStyles[c] = id
	}

	used := make(map[string]bool, len(records))
	for i, rec := range records {
		sheet := sheetName(rec.Name, used)
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else if _, err := f.NewSheet(sheet); err != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("sheet", sheet), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		writeStudentSheet(f, sheet, rec, areas, headerStyle, wrapStyle, fillStyles)
	}
	f.SetActiveSheet(0)

	// 3. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s_评估矩阵.xlsx", course.DisplayName)
	return buf, filename, nil
}

// ── 辅助函数 ──

// loadVisible 加载课程、评估领域与可见学生的记录；无可见学生时返回 ErrExportNoStudents
func (s *exportService) loadVisible(ctx context.Context, courseName string) (*model.Course, []matrix.Area, []*matrix.Record, error) {
	course, err := getCourse(ctx, s.repo, s.logger, courseName)
	if err != nil {
		return nil, nil, nil, err
	}
	areas, err := loadAreas(ctx, s.repo, course.CourseID)
	if err != nil {
		s.logger.Error("查询评估领域失败", zap.String("course", courseName), zap.Error(err))
		return nil, nil, nil, err
	}
	students, err := s.repo.Student.ListByCourse(ctx, course.CourseID, false)
	if err != nil {
		s.logger.Error("查询学生失败", zap.String("course", courseName), zap.Error(err))
		return nil, nil, nil, err
	}
	if len(students) == 0 {
		return nil, nil, nil, ErrExportNoStudents
	}
	records, err := loadRecords(ctx, s.repo, students, areas)
	if err != nil {
		s.logger.Error("加载学生记录失败", zap.String("course", courseName), zap.Error(err))
		return nil, nil, nil, err
	}
	return course, areas, records, nil
}

func writeStudentSheet(
	f *excelize.File,
	sheet string,
	rec *matrix.Record,
	areas []matrix.Area,
	headerStyle, wrapStyle int,
	fillStyles map[matrix.Color]int,
) {
	f.SetColWidth(sheet, "A", "A", 24)
	for i := range matrix.Levels {
		f.SetColWidth(sheet, colName(1+2*i), colName(1+2*i), 10)
		f.SetColWidth(sheet, colName(2+2*i), colName(2+2*i), 36)
	}

	// 表头
	f.SetCellValue(sheet, cell("A", 1), "评估领域")
	for i, l := range matrix.Levels {
		f.SetCellValue(sheet, cell(colName(1+2*i), 1), fmt.Sprintf("%s 评分", l))
		f.SetCellValue(sheet, cell(colName(2+2*i), 1), fmt.Sprintf("%s 作业", l))
	}
	f.SetCellStyle(sheet, "A1", cell(colName(2*len(matrix.Levels)), 1), headerStyle)

	// 数据行
	for i, area := range areas {
		row := i + 2
		c := rec.Cell(i)
		f.SetCellValue(sheet, cell("A", row), area.Name)

		for j, l := range matrix.Levels {
			gradeCol := colName(1 + 2*j)
			entriesCol := colName(2 + 2*j)

			if g := c.Grades.Get(l); g != matrix.ColorNone {
				f.SetCellValue(sheet, cell(gradeCol, row), string(g))
				f.SetCellStyle(sheet, cell(gradeCol, row), cell(gradeCol, row), fillStyles[g])
			} else {
				f.SetCellValue(sheet, cell(gradeCol, row), "-")
			}

			lines := make([]string, 0, len(c.Entries(l)))
			for _, e := range c.Entries(l) {
				lines = append(lines, fmt.Sprintf("%s (%s)", e.Name, e.Color))
			}
			f.SetCellValue(sheet, cell(entriesCol, row), strings.Join(lines, "\n"))
			f.SetCellStyle(sheet, cell(entriesCol, row), cell(entriesCol, row), wrapStyle)
		}
	}
}

// sheetName Excel Sheet 名称：不超过 31 字符，不含 []:*?/\ ，同名追加序号
func sheetName(name string, used map[string]bool) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if cleaned == "" {
		cleaned = "Student"
	}

	base := truncateRunes(cleaned, 31)
	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(cleaned, 31-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
