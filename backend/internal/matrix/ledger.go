package matrix

import (
	"strings"
	"time"
)

// Record 学生记录：身份、隐藏标记与按评估领域顺序排列的单元格
type Record struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
	Cells  []Cell `json:"assignments"`
}

// NewRecord 创建学生记录，每个评估领域一个空单元格
func NewRecord(id, name string, areaCount int) *Record {
	r := &Record{ID: id, Name: name}
	r.ResetCells(areaCount)
	return r
}

// Cell 读取单元格，缺失时返回空单元格
func (r *Record) Cell(areaIndex int) Cell {
	return EffectiveCell(r.Cells, areaIndex)
}

// pad 将单元格补齐到 n 个
func (r *Record) pad(n int) {
	for len(r.Cells) < n {
		r.Cells = append(r.Cells, EmptyCell())
	}
}

// ────────────────────── Add ──────────────────────

// AddAssignment 按评估领域名称（区分大小写）为每个等级在列表头部插入一条作业。
// 未知领域名称静默跳过。返回实际写入的领域索引。
func (r *Record) AddAssignment(areas []Area, areaNames []string, levelColors []LevelColor, name string, now time.Time) []int {
	r.pad(len(areas))

	var touched []int
	for _, areaName := range areaNames {
		idx := IndexOfArea(areas, areaName)
		if idx < 0 {
			continue
		}
		cell := &r.Cells[idx]
		for _, lc := range levelColors {
			entries := cell.Entries(lc.Level)
			prepended := make([]Entry, 0, len(entries)+1)
			prepended = append(prepended, Entry{Name: name, Color: lc.Color, CreatedAt: now})
			prepended = append(prepended, entries...)
			cell.SetEntries(lc.Level, prepended)
		}
		touched = append(touched, idx)
	}
	return touched
}

// ────────────────────── Edit ──────────────────────

// EditAssignment 按名称整体替换某领域中的作业：保留首次出现（依 E、C、A 顺序扫描）的创建时间，
// 删除所有同名条目后按新的等级颜色重新插入，并将每个等级按创建时间降序排列。
func (r *Record) EditAssignment(areaCount, areaIndex int, name string, levelColors []LevelColor, now time.Time) error {
	if areaIndex < 0 || areaIndex >= areaCount {
		return ErrInvalidIndex
	}
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	r.pad(areaCount)
	cell := &r.Cells[areaIndex]

	createdAt := now
	found := false
	for _, l := range Levels {
		for _, e := range cell.Entries(l) {
			if e.Name == name {
				createdAt = e.CreatedAt
				found = true
				break
			}
		}
		if found {
			break
		}
	}

	for _, l := range Levels {
		kept := make([]Entry, 0, len(cell.Entries(l)))
		for _, e := range cell.Entries(l) {
			if e.Name != name {
				kept = append(kept, e)
			}
		}
		cell.SetEntries(l, kept)
	}

	for _, lc := range levelColors {
		cell.SetEntries(lc.Level, append(cell.Entries(lc.Level), Entry{Name: name, Color: lc.Color, CreatedAt: createdAt}))
	}

	for _, l := range Levels {
		sortNewestFirst(cell.Entries(l))
	}
	return nil
}

// ────────────────────── Delete ──────────────────────

// DeleteAssignment 按位置删除单条作业，路径不存在时返回 ErrInvalidPath
func (r *Record) DeleteAssignment(areaIndex int, level Level, position int) (Entry, error) {
	if areaIndex < 0 || areaIndex >= len(r.Cells) || !level.Valid() {
		return Entry{}, ErrInvalidPath
	}
	cell := &r.Cells[areaIndex]
	entries := cell.Entries(level)
	if position < 0 || position >= len(entries) {
		return Entry{}, ErrInvalidPath
	}

	removed := entries[position]
	rest := make([]Entry, 0, len(entries)-1)
	rest = append(rest, entries[:position]...)
	rest = append(rest, entries[position+1:]...)
	cell.SetEntries(level, rest)
	return removed, nil
}

// ResetCells 清空全部作业与评分，单元格数量与评估领域数量一致
func (r *Record) ResetCells(areaCount int) {
	r.Cells = make([]Cell, areaCount)
	for i := range r.Cells {
		r.Cells[i] = EmptyCell()
	}
}

// ────────────────────── Undo ──────────────────────

// Latest 返回创建时间最新的作业条目
func (r *Record) Latest() (Entry, bool) {
	var latest Entry
	found := false
	for i := range r.Cells {
		for _, l := range Levels {
			for _, e := range r.Cells[i].Entries(l) {
				if !found || e.CreatedAt.After(latest.CreatedAt) {
					latest = e
					found = true
				}
			}
		}
	}
	return latest, found
}

// RemoveEntries 删除所有名称与创建时间都匹配的条目，返回删除数量
func (r *Record) RemoveEntries(name string, createdAt time.Time) int {
	removed := 0
	for i := range r.Cells {
		cell := &r.Cells[i]
		for _, l := range Levels {
			kept := make([]Entry, 0, len(cell.Entries(l)))
			for _, e := range cell.Entries(l) {
				if e.Name == name && e.CreatedAt.Equal(createdAt) {
					removed++
					continue
				}
				kept = append(kept, e)
			}
			cell.SetEntries(l, kept)
		}
	}
	return removed
}

// ────────────────────── Grade ──────────────────────

// SetGrade 在指定领域与等级上评分，返回新的评分与变化的等级
func (r *Record) SetGrade(areaCount, areaIndex int, level Level, color Color) (Grades, []Level, error) {
	if areaIndex < 0 || areaIndex >= areaCount {
		return Grades{}, nil, ErrInvalidIndex
	}
	if err := ValidateGrade(level, color); err != nil {
		return Grades{}, nil, err
	}
	r.pad(areaCount)
	cell := &r.Cells[areaIndex]

	next, changed := ApplyGrade(cell.Grades, level, color)
	cell.Grades = next
	return next, changed, nil
}
