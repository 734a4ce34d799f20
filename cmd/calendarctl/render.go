package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/hackgods/clinic-calendar-console/internal/calendar"
)

var weekdayHeader = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func renderView(w io.Writer, v calendar.View) {
	fmt.Fprintf(w, "%s (%s)\n", v.Range.Title, v.Mode)

	switch v.Status {
	case calendar.ViewLoading:
		fmt.Fprintln(w, "Loading...")
		return
	case calendar.ViewError:
		fmt.Fprintln(w, calendar.GenericLoadError)
		return
	}

	switch {
	case v.Month != nil:
		renderMonth(w, v.Month)
	case v.Week != nil:
		header := make([]string, len(v.Week.Days))
		for i, d := range v.Week.Days {
			header[i] = columnLabel(d)
		}
		renderRows(w, header, v.Week.Rows)
		renderOffHours(w, v.Week.OffHours)
	case v.Day != nil:
		renderRows(w, []string{columnLabel(v.Day.Day)}, v.Day.Rows)
		renderOffHours(w, v.Day.OffHours)
		s := v.Day.Summary
		fmt.Fprintf(w, "Total slots: %d  Available: %d  Booked: %d\n", s.Total, s.Available, s.Booked)
	}
}

func renderOffHours(w io.Writer, appts []calendar.Appointment) {
	if len(appts) == 0 {
		return
	}
	fmt.Fprintln(w, "Outside clinic hours:")
	for _, a := range appts {
		fmt.Fprintf(w, "  %s  %s (%s)\n", a.AppointmentTime.Format("Mon 1/2 15:04"), a.PatientName, a.VisitType.Label())
	}
}

func renderMonth(w io.Writer, g *calendar.MonthGrid) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(weekdayHeader)
	table.SetAutoWrapText(false)
	table.SetRowLine(true)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, week := range g.Weeks() {
		row := make([]string, len(week))
		for i, c := range week {
			row[i] = monthCellText(c)
		}
		table.Append(row)
	}
	table.Render()
}

func monthCellText(c calendar.MonthCell) string {
	if !c.InMonth {
		return ""
	}
	day := strconv.Itoa(c.Day)
	if c.IsToday {
		day = "[" + day + "]"
	}
	switch {
	case c.Aggregate == nil:
		return day
	case c.Closed():
		return day + "\nclosed"
	}
	lines := []string{day}
	if n := c.Aggregate.AppointmentCount; n > 0 {
		lines = append(lines, fmt.Sprintf("%d appt", n))
	}
	if n := c.Aggregate.AvailableSlots; n > 0 {
		lines = append(lines, fmt.Sprintf("%d open", n))
	}
	return strings.Join(lines, "\n")
}

func renderRows(w io.Writer, header []string, rows []calendar.Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(append([]string{"Time"}, header...))
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)

	for _, r := range rows {
		line := make([]string, 0, len(r.Cells)+1)
		line = append(line, r.Label)
		for _, c := range r.Cells {
			line = append(line, cellText(c))
		}
		table.Append(line)
	}
	table.Render()
}

func columnLabel(d calendar.DayColumn) string {
	label := d.Date.Format("Mon 1/2")
	if d.IsToday {
		label += " *"
	}
	return label
}

func cellText(c calendar.Cell) string {
	switch c := c.(type) {
	case *calendar.AppointmentsCell:
		names := make([]string, len(c.Appointments))
		for i, a := range c.Appointments {
			names[i] = a.PatientName + " (" + a.VisitType.Label() + ")"
		}
		return strings.Join(names, "\n")
	case *calendar.BookableCell:
		return "open " + c.Slot.SlotID
	case *calendar.BlockedCell:
		return "-"
	case *calendar.ClosedCell:
		return "closed"
	default:
		panic(fmt.Sprintf("unhandled cell %T", c))
	}
}

func renderDetails(w io.Writer, d *calendar.AppointmentDetails) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.Append([]string{"Booking", d.BookingID})
	if d.ConfirmationNumber != "" {
		table.Append([]string{"Confirmation", d.ConfirmationNumber})
	}
	table.Append([]string{"Patient", d.PatientName})
	table.Append([]string{"Phone", d.PatientPhone})
	table.Append([]string{"When", d.AppointmentTime.Format("Mon Jan 2, 2006 15:04")})
	table.Append([]string{"Visit", d.VisitType.Label()})
	table.Append([]string{"Provider", d.Provider})
	table.Append([]string{"Status", string(d.Status)})
	table.Append([]string{"Booked via", string(d.BookedVia)})
	if d.Notes != nil && *d.Notes != "" {
		table.Append([]string{"Notes", *d.Notes})
	}
	table.Render()

	if len(d.Transcript) == 0 {
		return
	}
	fmt.Fprintln(w, "Transcript:")
	for _, turn := range d.Transcript {
		fmt.Fprintf(w, "  %s: %s\n", turn.Speaker, turn.Text)
	}
}
