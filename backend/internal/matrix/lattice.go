package matrix

// ApplyGrade 在某等级上设置评分（ColorNone 表示清除），返回一致化后的评分与实际发生变化的等级。
//
// 规则：
//  1. 目标等级直接写入新颜色
//  2. 向上强化：设置 A 时抬升 C、E；设置 C 时抬升 E（未评分或强度更低才抬升）
//  3. 向下修正：依次处理 (E,C)、(C,A)，上一级未评分或为 grey 时下一级清空，
//     下一级强于上一级时压到上一级颜色
//
// 调用方只需持久化返回的变化等级。
func ApplyGrade(cur Grades, level Level, color Color) (Grades, []Level) {
	next := cur
	next.Set(level, color)

	if color != ColorNone {
		var raise []Level
		switch level {
		case LevelA:
			raise = []Level{LevelC, LevelE}
		case LevelC:
			raise = []Level{LevelE}
		}
		for _, l := range raise {
			existing := next.Get(l)
			if existing == ColorNone || existing.Ordinal() < color.Ordinal() {
				next.Set(l, color)
			}
		}
	}

	for _, pair := range [][2]Level{{LevelE, LevelC}, {LevelC, LevelA}} {
		base, upper := next.Get(pair[0]), next.Get(pair[1])
		switch {
		case base == ColorNone || base == ColorGrey:
			next.Set(pair[1], ColorNone)
		case upper.Ordinal() > base.Ordinal():
			next.Set(pair[1], base)
		}
	}

	var changed []Level
	for _, l := range Levels {
		if next.Get(l) != cur.Get(l) {
			changed = append(changed, l)
		}
	}
	return next, changed
}
