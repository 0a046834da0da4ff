package matrix

import (
	"slices"
	"strings"
)

// Area 评估领域。ID 为存储层的稳定标识，对外按位置寻址
type Area struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Matrix 一门课程的评估领域序列与全部学生，领域结构变更在此聚合上整体完成
type Matrix struct {
	Areas    []Area
	Students []*Record
}

// IndexOfArea 按名称（区分大小写）查找领域位置，不存在返回 -1
func IndexOfArea(areas []Area, name string) int {
	for i, a := range areas {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// InsertArea 在末尾追加领域，并为每个学生补齐空单元格
func (m *Matrix) InsertArea(a Area) (int, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return 0, ErrEmptyName
	}
	m.Areas = append(m.Areas, a)
	for _, s := range m.Students {
		s.pad(len(m.Areas))
	}
	return len(m.Areas) - 1, nil
}

// DeleteArea 删除指定位置的领域及每个学生对应位置的单元格；单元格不足的学生跳过
func (m *Matrix) DeleteArea(index int) (Area, error) {
	if index < 0 || index >= len(m.Areas) {
		return Area{}, ErrInvalidIndex
	}
	removed := m.Areas[index]
	m.Areas = slices.Delete(m.Areas, index, index+1)
	for _, s := range m.Students {
		if index < len(s.Cells) {
			s.Cells = slices.Delete(s.Cells, index, index+1)
		}
	}
	return removed, nil
}

// ReorderArea 将 from 位置的领域取出后插入到 to 位置，学生单元格同步移动
func (m *Matrix) ReorderArea(from, to int) error {
	n := len(m.Areas)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrInvalidIndex
	}
	m.Areas = move(m.Areas, from, to)
	for _, s := range m.Students {
		s.pad(n)
		s.Cells = move(s.Cells, from, to)
	}
	return nil
}

// UpdateArea 修改领域名称与描述，不影响学生数据
func (m *Matrix) UpdateArea(index int, name, description string) error {
	if index < 0 || index >= len(m.Areas) {
		return ErrInvalidIndex
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	m.Areas[index].Name = name
	m.Areas[index].Description = description
	return nil
}

func move[T any](s []T, from, to int) []T {
	item := s[from]
	s = slices.Delete(s, from, from+1)
	return slices.Insert(s, to, item)
}
