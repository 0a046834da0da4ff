package matrix

import (
	"sort"
	"time"
)

// Entry 单条作业记录
type Entry struct {
	Name      string    `json:"name"`
	Color     Color     `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
}

// LevelColor 某等级上的颜色（新增/编辑作业时使用）
type LevelColor struct {
	Level Level `json:"level"`
	Color Color `json:"color"`
}

// Validate 校验等级与条目颜色
func (lc LevelColor) Validate() error {
	if !lc.Level.Valid() {
		return ErrInvalidLevel
	}
	if !lc.Color.Valid() {
		return ErrInvalidColor
	}
	return nil
}

// Grades 每个等级的评分，ColorNone 表示未评分
type Grades struct {
	E Color `json:"E"`
	C Color `json:"C"`
	A Color `json:"A"`
}

// Get 读取某等级评分
func (g Grades) Get(l Level) Color {
	switch l {
	case LevelE:
		return g.E
	case LevelC:
		return g.C
	case LevelA:
		return g.A
	}
	return ColorNone
}

// Set 写入某等级评分
func (g *Grades) Set(l Level, c Color) {
	switch l {
	case LevelE:
		g.E = c
	case LevelC:
		g.C = c
	case LevelA:
		g.A = c
	}
}

// Cell 学生在单个评估领域上的数据：三个等级的作业列表（新→旧）与评分
type Cell struct {
	E      []Entry `json:"E"`
	C      []Entry `json:"C"`
	A      []Entry `json:"A"`
	Grades Grades  `json:"grades"`
}

// EmptyCell 返回空单元格（列表非 nil，保证序列化为 []）
func EmptyCell() Cell {
	return Cell{E: []Entry{}, C: []Entry{}, A: []Entry{}}
}

// Entries 返回某等级的作业列表
func (c *Cell) Entries(l Level) []Entry {
	switch l {
	case LevelE:
		return c.E
	case LevelC:
		return c.C
	case LevelA:
		return c.A
	}
	return nil
}

// SetEntries 替换某等级的作业列表
func (c *Cell) SetEntries(l Level, entries []Entry) {
	if entries == nil {
		entries = []Entry{}
	}
	switch l {
	case LevelE:
		c.E = entries
	case LevelC:
		c.C = entries
	case LevelA:
		c.A = entries
	}
}

// Clone 深拷贝
func (c Cell) Clone() Cell {
	out := Cell{Grades: c.Grades}
	for _, l := range Levels {
		src := c.Entries(l)
		dst := make([]Entry, len(src))
		copy(dst, src)
		out.SetEntries(l, dst)
	}
	return out
}

// IsEmpty 无作业且无评分
func (c Cell) IsEmpty() bool {
	return len(c.E) == 0 && len(c.C) == 0 && len(c.A) == 0 && c.Grades == (Grades{})
}

// sortNewestFirst 按 createdAt 降序稳定排序
func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// EffectiveCell 读取指定位置的单元格；越界或缺失时返回空单元格，从不报错
func EffectiveCell(cells []Cell, index int) Cell {
	if index < 0 || index >= len(cells) {
		return EmptyCell()
	}
	c := cells[index]
	for _, l := range Levels {
		if c.Entries(l) == nil {
			c.SetEntries(l, []Entry{})
		}
	}
	return c
}
