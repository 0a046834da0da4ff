// Package matrix 实现评估矩阵的核心领域逻辑：等级格、作业台账与评估领域的位置映射。
// 本包不依赖存储与传输层，所有操作均在内存中的聚合上完成，由 service 层负责持久化。
package matrix

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ── 核心领域错误 ──

var (
	ErrInvalidIndex = errors.New("评估领域索引无效")
	ErrInvalidPath  = errors.New("作业路径无效")
	ErrEmptyName    = errors.New("名称不能为空")
	ErrInvalidLevel = errors.New("熟练度等级无效")
	ErrInvalidColor = errors.New("颜色无效")
	ErrInvalidGrade = errors.New("该等级不允许此评分颜色")
)

// Level 熟练度等级，E < C < A
type Level string

const (
	LevelE Level = "E"
	LevelC Level = "C"
	LevelA Level = "A"
)

// Levels 按从低到高排列的全部等级
var Levels = []Level{LevelE, LevelC, LevelA}

// Valid 判断等级是否合法
func (l Level) Valid() bool {
	switch l {
	case LevelE, LevelC, LevelA:
		return true
	}
	return false
}

// ParseLevel 解析等级字符串
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", ErrInvalidLevel
	}
	return l, nil
}

// Color 评分/作业颜色。ColorNone 表示未评分（JSON 中为 null）
type Color string

const (
	ColorNone   Color = ""
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
	ColorGrey   Color = "grey"
)

// Ordinal 颜色强度：green=2, yellow=1, red=grey=0, 未评分=-1
func (c Color) Ordinal() int {
	switch c {
	case ColorGreen:
		return 2
	case ColorYellow:
		return 1
	case ColorRed, ColorGrey:
		return 0
	}
	return -1
}

// Valid 判断颜色是否为四种合法颜色之一（不含未评分）
func (c Color) Valid() bool {
	switch c {
	case ColorGreen, ColorYellow, ColorRed, ColorGrey:
		return true
	}
	return false
}

// MarshalJSON 未评分序列化为 null
func (c Color) MarshalJSON() ([]byte, error) {
	if c == ColorNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

// UnmarshalJSON null 与空字符串均视为未评分
func (c *Color) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ColorNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = Color(s)
	return nil
}

// ParseEntryColor 解析作业条目颜色，条目必须带颜色
func ParseEntryColor(s string) (Color, error) {
	c := Color(s)
	if !c.Valid() {
		return "", ErrInvalidColor
	}
	return c, nil
}

// ValidateGrade 校验某等级上的评分颜色。grey 仅允许出现在 E 级
func ValidateGrade(level Level, c Color) error {
	if !level.Valid() {
		return ErrInvalidLevel
	}
	if c == ColorNone {
		return nil
	}
	if !c.Valid() {
		return ErrInvalidColor
	}
	if c == ColorGrey && level != LevelE {
		return ErrInvalidGrade
	}
	return nil
}
