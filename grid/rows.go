package grid

import "time"

// DateLabelLayout formats the label shown above each row, e.g. "Mon, 1/1/2024".
const DateLabelLayout = "Mon, 1/2/2006"

// Cell is the render state of one hour block.
type Cell struct {
	Key       BlockKey
	Checked   bool
	CheckedAt time.Time
	Level     int
	Unlocked  bool

	// Countdown is set only on the unlocked cell while its row holds a
	// mounted timer.
	Countdown    time.Duration
	HasCountdown bool
}

// Row is the render state of one day.
type Row struct {
	Index   int
	Date    time.Time
	Label   string
	IsToday bool
	Cells   [Columns]Cell
}

// Pass fixes the inputs of one render pass so every row agrees on "now".
type Pass struct {
	Now    time.Time
	Scale  Scale
	Timers *Timers
}

// RenderRows builds descriptors for the rows in w only. Rows outside
// [0, RowCount) are skipped.
func RenderRows(p Pass, w Window, blocks Blocks) []Row {
	start := max(w.Start, 0)
	stop := min(w.Stop, RowCount-1)
	if stop < start {
		return nil
	}
	rows := make([]Row, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		rows = append(rows, p.row(i, blocks))
	}
	return rows
}

func (p Pass) row(index int, blocks Blocks) Row {
	date := DateForRow(index, p.Now)
	r := Row{
		Index:   index,
		Date:    date,
		Label:   date.Format(DateLabelLayout),
		IsToday: IsTodayRow(index, p.Now),
	}
	for hour := 0; hour < Columns; hour++ {
		key := BlockKey{Row: index, Hour: hour}
		ts, checked := blocks.Get(key)
		c := Cell{
			Key:      key,
			Checked:  checked,
			Level:    p.Scale.IntensityMillis(ts, checked, date, hour),
			Unlocked: r.IsToday && hour == p.Now.Hour(),
		}
		if checked {
			c.CheckedAt = time.UnixMilli(ts).In(p.Now.Location())
		}
		if c.Unlocked && p.Timers != nil {
			if cd, ok := p.Timers.Get(index); ok {
				c.Countdown = cd.Remaining
				c.HasCountdown = true
			}
		}
		r.Cells[hour] = c
	}
	return r
}
