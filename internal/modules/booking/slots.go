package booking

import (
	"context"
	"log"
	"sort"
	"time"

	"courtbooking/internal/domain"
)

type slotReader interface {
	ListOccupyingCourtOnDay(ctx context.Context, courtID int64, day time.Time) ([]domain.Booking, error)
}

// SlotCalculator reports court occupancy from non-cancelled bookings.
type SlotCalculator struct {
	bookings slotReader
}

func NewSlotCalculator(bookings slotReader) *SlotCalculator {
	return &SlotCalculator{bookings: bookings}
}

type occupied struct {
	bookingID int64
	window    domain.Window
}

func (s *SlotCalculator) occupied(ctx context.Context, courtID int64, day time.Time) ([]occupied, error) {
	rows, err := s.bookings.ListOccupyingCourtOnDay(ctx, courtID, domain.Day(day))
	if err != nil {
		return nil, err
	}
	out := make([]occupied, 0, len(rows))
	for _, b := range rows {
		w, err := domain.ParseWindow(b.StartTime, b.EndTime)
		if err != nil {
			log.Printf("slot_skip booking_id=%d error=%q", b.ID, err.Error())
			continue
		}
		out = append(out, occupied{bookingID: b.ID, window: w})
	}
	return out, nil
}

// Conflict returns a slot ConflictError when w overlaps an existing booking
// for the court on day. Back-to-back windows do not conflict.
func (s *SlotCalculator) Conflict(ctx context.Context, courtID int64, day time.Time, w domain.Window) error {
	busy, err := s.occupied(ctx, courtID, day)
	if err != nil {
		return err
	}
	for _, o := range busy {
		if o.window.Overlaps(w) {
			return &domain.ConflictError{
				Kind:      domain.ConflictSlot,
				Date:      domain.Day(day),
				CourtID:   courtID,
				Window:    o.window.String(),
				BookingID: o.bookingID,
			}
		}
	}
	return nil
}

type Slot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	BookingID int64  `json:"booking_id,omitempty"`
}

type Availability struct {
	CourtID  int64  `json:"court_id"`
	Date     string `json:"date"`
	Open     string `json:"open"`
	Close    string `json:"close"`
	Occupied []Slot `json:"occupied"`
	Free     []Slot `json:"free"`
}

func (s *SlotCalculator) Availability(ctx context.Context, court *domain.Court, day time.Time) (*Availability, error) {
	hours, err := court.Hours()
	if err != nil {
		return nil, domain.NewValidationError("court_hours", "%s", err.Error())
	}
	busy, err := s.occupied(ctx, court.ID, day)
	if err != nil {
		return nil, err
	}

	out := &Availability{
		CourtID:  court.ID,
		Date:     domain.Day(day).Format(domain.DateLayout),
		Open:     domain.FormatClock(hours.Start),
		Close:    domain.FormatClock(hours.End),
		Occupied: make([]Slot, 0, len(busy)),
	}
	windows := make([]domain.Window, 0, len(busy))
	for _, o := range busy {
		out.Occupied = append(out.Occupied, Slot{
			Start:     domain.FormatClock(o.window.Start),
			End:       domain.FormatClock(o.window.End),
			BookingID: o.bookingID,
		})
		windows = append(windows, o.window)
	}
	free := freeWindows(hours, windows)
	out.Free = make([]Slot, 0, len(free))
	for _, w := range free {
		out.Free = append(out.Free, Slot{Start: domain.FormatClock(w.Start), End: domain.FormatClock(w.End)})
	}
	return out, nil
}

// freeWindows subtracts busy from hours, merging overlapping busy ranges first.
func freeWindows(hours domain.Window, busy []domain.Window) []domain.Window {
	if len(busy) == 0 {
		return []domain.Window{hours}
	}

	sorted := append([]domain.Window(nil), busy...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := make([]domain.Window, 0, len(sorted))
	for _, w := range sorted {
		if w.End <= hours.Start || w.Start >= hours.End {
			continue
		}
		w.Start = max(w.Start, hours.Start)
		w.End = min(w.End, hours.End)

		if n := len(merged); n > 0 && w.Start <= merged[n-1].End {
			merged[n-1].End = max(merged[n-1].End, w.End)
			continue
		}
		merged = append(merged, w)
	}

	cur := hours.Start
	out := make([]domain.Window, 0, len(merged)+1)
	for _, b := range merged {
		if b.Start > cur {
			out = append(out, domain.Window{Start: cur, End: b.Start})
		}
		cur = max(cur, b.End)
	}
	if cur < hours.End {
		out = append(out, domain.Window{Start: cur, End: hours.End})
	}
	return out
}
