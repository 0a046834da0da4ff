package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"assessment-matrix/backend/internal/matrix"
)

// calendarEventDuration 作业在日历中的显示时长
const calendarEventDuration = 30 * time.Minute

// calendarEvent 同名且同一时间创建的作业条目（批量布置时跨学生、跨领域）
type calendarEvent struct {
	name      string
	createdAt time.Time
	lines     []string
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar: 导出课程作业时间线为 iCalendar
// ═══════════════════════════════════════════════════════════

// ExportCalendar 每组 (作业名称, 创建时间) 生成一个 VEVENT，描述中逐行列出
// "学生 · 领域 · 等级 (颜色)"。UID 由课程 ID、作业名称与创建时间派生，多次导出保持不变。
func (s *exportService) ExportCalendar(ctx context.Context, courseName string) (string, string, error) {
	course, areas, records, err := s.loadVisible(ctx, courseName)
	if err != nil {
		return "", "", err
	}

	events := collectCalendarEvents(records, areas)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//assessment-matrix//作业日历//ZH")
	cal.SetXWRCalName(course.DisplayName)

	for _, ev := range events {
		key := fmt.Sprintf("%s/%s/%s", course.CourseID, ev.name, ev.createdAt.UTC().Format(time.RFC3339Nano))
		vevent := cal.AddEvent(uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + "@assessment-matrix")
		vevent.SetDtStampTime(ev.createdAt)
		vevent.SetCreatedTime(ev.createdAt)
		vevent.SetStartAt(ev.createdAt)
		vevent.SetEndAt(ev.createdAt.Add(calendarEventDuration))
		vevent.SetSummary(ev.name)
		vevent.SetDescription(strings.Join(ev.lines, "\n"))
	}

	filename := fmt.Sprintf("%s_作业日历.ics", course.DisplayName)
	return cal.Serialize(), filename, nil
}

// collectCalendarEvents 按创建时间升序（同时间按名称）归并作业条目
func collectCalendarEvents(records []*matrix.Record, areas []matrix.Area) []*calendarEvent {
	byKey := make(map[string]*calendarEvent)
	var events []*calendarEvent

	for _, rec := range records {
		for i, area := range areas {
			c := rec.Cell(i)
			for _, l := range matrix.Levels {
				for _, e := range c.Entries(l) {
					key := e.Name + "\x00" + e.CreatedAt.UTC().Format(time.RFC3339Nano)
					ev, ok := byKey[key]
					if !ok {
						ev = &calendarEvent{name: e.Name, createdAt: e.CreatedAt.UTC()}
						byKey[key] = ev
						events = append(events, ev)
					}
					ev.lines = append(ev.lines, fmt.Sprintf("%s · %s · %s (%s)", rec.Name, area.Name, l, e.Color))
				}
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].createdAt.Equal(events[j].createdAt) {
			return events[i].createdAt.Before(events[j].createdAt)
		}
		return events[i].name < events[j].name
	})
	return events
}
