package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/hackgods/clinic-calendar-console/internal/booking"
	"github.com/hackgods/clinic-calendar-console/internal/calendar"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type RangeResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Title string `json:"title"`
}

type ViewResponse struct {
	Mode   string         `json:"mode"`
	Anchor string         `json:"anchor"`
	Status string         `json:"status"`
	Range  RangeResponse  `json:"range"`
	Month  *MonthResponse `json:"month,omitempty"`
	Week   *GridResponse  `json:"week,omitempty"`
	Day    *DayResponse   `json:"day,omitempty"`
}

type MonthResponse struct {
	Weeks [][]MonthCellResponse `json:"weeks"`
}

type MonthCellResponse struct {
	Date      string                 `json:"date"`
	Day       int                    `json:"day"`
	InMonth   bool                   `json:"in_month"`
	IsToday   bool                   `json:"is_today"`
	Closed    bool                   `json:"closed"`
	Aggregate *calendar.DayAggregate `json:"counts,omitempty"`
}

type DayColumnResponse struct {
	Date      string `json:"date"`
	IsToday   bool   `json:"is_today"`
	IsWeekend bool   `json:"is_weekend"`
}

type GridResponse struct {
	Days     []DayColumnResponse   `json:"days"`
	Rows     []RowResponse         `json:"rows"`
	OffHours []AppointmentResponse `json:"off_hours,omitempty"`
}

type DayResponse struct {
	GridResponse
	Summary calendar.DaySummary `json:"summary"`
}

type RowResponse struct {
	Label string         `json:"label"`
	Cells []CellResponse `json:"cells"`
}

// CellResponse is the JSON form of a grid cell, tagged by kind.
type CellResponse struct {
	Kind         calendar.CellKind     `json:"kind"`
	Start        string                `json:"start"`
	SlotID       string                `json:"slot_id,omitempty"`
	Provider     string                `json:"provider,omitempty"`
	Appointments []AppointmentResponse `json:"appointments,omitempty"`
}

type AppointmentResponse struct {
	BookingID          string `json:"booking_id"`
	ConfirmationNumber string `json:"confirmation_number,omitempty"`
	PatientName        string `json:"patient_name"`
	PatientPhone       string `json:"patient_phone"`
	Time               string `json:"appointment_time"`
	VisitType          string `json:"visit_type"`
	VisitLabel         string `json:"visit_label"`
	Provider           string `json:"provider,omitempty"`
	Status             string `json:"status"`
	BookedVia          string `json:"booked_via"`
	Notes              string `json:"notes,omitempty"`
}

type NavigateResponse struct {
	Mode   string        `json:"mode"`
	Anchor string        `json:"anchor"`
	Range  RangeResponse `json:"range"`
}

// BookingRequest books either a grid slot (slot_id set) or a free-form admin date and time.
type BookingRequest struct {
	SlotID string `json:"slot_id,omitempty"`
	booking.Form
}

type BookingResponse struct {
	SlotID      string              `json:"slot_id"`
	Appointment AppointmentResponse `json:"appointment"`
	Invalidated []calendar.Resource `json:"invalidated"`
}

func toRange(r calendar.DateRange) RangeResponse {
	return RangeResponse{Start: r.StartDay(), End: r.EndDay(), Title: r.Title}
}

func toAppointment(a calendar.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		BookingID:          a.BookingID,
		ConfirmationNumber: a.ConfirmationNumber,
		PatientName:        a.PatientName,
		PatientPhone:       a.PatientPhone,
		VisitType:          string(a.VisitType),
		VisitLabel:         a.VisitType.Label(),
		Provider:           a.Provider,
		Status:             string(a.Status),
		BookedVia:          string(a.BookedVia),
	}
	if !a.AppointmentTime.IsZero() {
		resp.Time = a.AppointmentTime.Format(timeLayout)
	}
	if a.Notes != nil {
		resp.Notes = *a.Notes
	}
	return resp
}

func toCell(c calendar.Cell) CellResponse {
	resp := CellResponse{Kind: c.Kind(), Start: c.Start().Format(timeLayout)}
	switch cell := c.(type) {
	case *calendar.AppointmentsCell:
		resp.Appointments = toAppointments(cell.Appointments)
	case *calendar.BookableCell:
		resp.SlotID = cell.Slot.SlotID
		resp.Provider = cell.Slot.Provider
	case *calendar.BlockedCell:
		if cell.Slot != nil {
			resp.SlotID = cell.Slot.SlotID
		}
	case *calendar.ClosedCell:
	}
	return resp
}

func toRows(rows []calendar.Row) []RowResponse {
	out := make([]RowResponse, len(rows))
	for i, row := range rows {
		cells := make([]CellResponse, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = toCell(c)
		}
		out[i] = RowResponse{Label: row.Label, Cells: cells}
	}
	return out
}

func toAppointments(appts []calendar.Appointment) []AppointmentResponse {
	if len(appts) == 0 {
		return nil
	}
	out := make([]AppointmentResponse, len(appts))
	for i, a := range appts {
		out[i] = toAppointment(a)
	}
	return out
}

func toColumns(days []calendar.DayColumn) []DayColumnResponse {
	out := make([]DayColumnResponse, len(days))
	for i, d := range days {
		out[i] = DayColumnResponse{Date: d.Date.Format(dateLayout), IsToday: d.IsToday, IsWeekend: d.IsWeekend}
	}
	return out
}

func toView(v calendar.View) ViewResponse {
	resp := ViewResponse{
		Mode:   string(v.Mode),
		Anchor: v.Anchor.Format(dateLayout),
		Status: string(v.Status),
		Range:  toRange(v.Range),
	}

	switch {
	case v.Month != nil:
		m := &MonthResponse{}
		for _, week := range v.Month.Weeks() {
			cells := make([]MonthCellResponse, len(week))
			for i, c := range week {
				cells[i] = MonthCellResponse{
					Date:      c.Date.Format(dateLayout),
					Day:       c.Day,
					InMonth:   c.InMonth,
					IsToday:   c.IsToday,
					Closed:    c.Closed(),
					Aggregate: c.Aggregate,
				}
			}
			m.Weeks = append(m.Weeks, cells)
		}
		resp.Month = m
	case v.Week != nil:
		resp.Week = &GridResponse{
			Days:     toColumns(v.Week.Days),
			Rows:     toRows(v.Week.Rows),
			OffHours: toAppointments(v.Week.OffHours),
		}
	case v.Day != nil:
		resp.Day = &DayResponse{
			GridResponse: GridResponse{
				Days:     toColumns([]calendar.DayColumn{v.Day.Day}),
				Rows:     toRows(v.Day.Rows),
				OffHours: toAppointments(v.Day.OffHours),
			},
			Summary: v.Day.Summary,
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func parseDate(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	if raw == "" {
		return calendar.Today(now), nil
	}
	return calendar.ParseDay(raw, loc)
}
