package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rbright/waybar-weekfitter/internal/planner"
	"github.com/xuri/excelize/v2"
)

const (
	weeksSheet  = "Weeks"
	eventsSheet = "Events"
)

// WriteWorkbook writes the month containing ref as a workbook with a weekly
// sport summary sheet and a sheet listing the month's events.
func WriteWorkbook(w io.Writer, events []planner.Event, ref time.Time) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	idx, err := f.NewSheet(weeksSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(eventsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeWeeksSheet(f, planner.WeeklySummaries(events, ref), ref, headerStyle); err != nil {
		return err
	}
	if err := writeEventsSheet(f, planner.InMonth(events, ref), headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeWeeksSheet(f *excelize.File, weeks []planner.WeeklySummary, ref time.Time, headerStyle int) error {
	lastCol := colName(1 + 2*len(planner.SportTypes) + 1)

	title := fmt.Sprintf("%s — sport per week", ref.Format("January 2006"))
	if err := f.SetCellValue(weeksSheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(weeksSheet, "A1", lastCol+"1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(weeksSheet, "A1", lastCol+"2", headerStyle); err != nil {
		return err
	}

	headers := []string{"Week"}
	for _, sportType := range planner.SportTypes {
		headers = append(headers, sportType.Label())
	}
	for _, sportType := range planner.SportTypes {
		headers = append(headers, sportType.Label()+" km")
	}
	headers = append(headers, "Total")
	if err := writeRow(f, weeksSheet, 2, headers); err != nil {
		return err
	}

	_ = f.SetColWidth(weeksSheet, "A", "A", 16)
	_ = f.SetColWidth(weeksSheet, "B", lastCol, 12)

	row := 3
	for _, week := range weeks {
		formatted := week.Formatted()
		values := []any{week.Label()}
		for _, sportType := range planner.SportTypes {
			values = append(values, formatted[sportType])
		}
		for _, sportType := range planner.SportTypes {
			values = append(values, week.DistanceKm[sportType])
		}
		values = append(values, planner.FormatHM(week.TotalMinutes()))
		if err := writeRow(f, weeksSheet, row, values); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeEventsSheet(f *excelize.File, events []planner.Event, headerStyle int) error {
	headers := []string{"Start", "End", "Title", "Category", "Sport", "Duration", "Distance km", "Note"}
	if err := writeRow(f, eventsSheet, 1, headers); err != nil {
		return err
	}
	if err := f.SetCellStyle(eventsSheet, "A1", colName(len(headers))+"1", headerStyle); err != nil {
		return err
	}

	_ = f.SetColWidth(eventsSheet, "A", "B", 18)
	_ = f.SetColWidth(eventsSheet, "C", "C", 28)
	_ = f.SetColWidth(eventsSheet, "H", "H", 40)

	for i, event := range events {
		values := []any{
			planner.FormatWallClock(event.Start),
			planner.FormatWallClock(event.End),
			event.Title,
			event.Category.Label(),
			"", "", "",
			event.Description,
		}
		if event.Sport != nil {
			values[4] = event.Sport.Type.Label()
			if event.Sport.DurationMinutes != nil {
				values[5] = planner.FormatHM(*event.Sport.DurationMinutes)
			}
			if event.Sport.DistanceKm != nil {
				values[6] = *event.Sport.DistanceKm
			}
		}
		if err := writeRow(f, eventsSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func colName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64) + " km"
}
