// Package availability decides whether a store is currently taking orders
// and whether individual products can be sold at a given instant.
package availability

import (
	"time"

	"github.com/SmartNuvem/smartpedidos-sub002/models"
)

const minutesPerDay = 24 * 60

// isoWeekday maps time.Weekday to the 1=Mon..7=Sun numbering used by
// StoreHour and Product.Weekdays.
func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// StoreLocation resolves the store's timezone. A nil location means the
// zone could not be loaded and callers should fail open.
func StoreLocation(store models.Store) *time.Location {
	loc, err := time.LoadLocation(store.Timezone)
	if err != nil {
		return nil
	}
	return loc
}

// StoreOpenAt reports whether the store is accepting orders at now.
// A manual override always wins. If the store's timezone cannot be
// resolved the store is treated as open: refusing every order over a
// broken tz entry is worse than letting the store turn one away.
func StoreOpenAt(store models.Store, hours []models.StoreHour, now time.Time) bool {
	switch store.HoursOverride {
	case models.OverrideForceOpen:
		return true
	case models.OverrideForceClosed:
		return false
	}

	loc := StoreLocation(store)
	if loc == nil {
		return true
	}
	local := now.In(loc)
	weekday := isoWeekday(local.Weekday())
	minute := local.Hour()*60 + local.Minute()

	for _, h := range hours {
		if h.Weekday != weekday {
			continue
		}
		if !h.Enabled {
			return false
		}
		if h.OpenMinute == 0 && h.CloseMinute == 0 {
			return false
		}
		if h.CloseMinute < h.OpenMinute {
			// Window wraps past midnight, e.g. 22:00-06:00.
			return minute >= h.OpenMinute || minute < h.CloseMinute
		}
		return minute >= h.OpenMinute && minute <= h.CloseMinute
	}
	return false
}

// ProductAvailableAt reports whether the product can be ordered at now.
// An empty weekday set means every day; no active windows means all day.
func ProductAvailableAt(product models.Product, now time.Time, loc *time.Location) bool {
	if loc != nil {
		now = now.In(loc)
	}
	weekdays := product.WeekdaySet()
	if len(weekdays) > 0 && !weekdays[isoWeekday(now.Weekday())] {
		return false
	}

	windows := activeWindows(product)
	if len(windows) == 0 {
		return true
	}
	minute := now.Hour()*60 + now.Minute()
	for _, w := range windows {
		if minute >= w.StartMinute && minute < w.EndMinute {
			return true
		}
	}
	return false
}

// NextChangeMinutes returns the smallest positive offset, in minutes, until
// any product's availability can flip: a window edge or, for weekday-gated
// products, a day boundary. It scans at most 7 days ahead and returns -1
// when every product is unconditionally available (or there are none).
func NextChangeMinutes(products []models.Product, now time.Time, loc *time.Location) int {
	if loc != nil {
		now = now.In(loc)
	}
	minuteOfDay := now.Hour()*60 + now.Minute()

	best := -1
	consider := func(offset int) {
		if offset > 0 && (best == -1 || offset < best) {
			best = offset
		}
	}

	for _, p := range products {
		weekdays := p.WeekdaySet()
		windows := activeWindows(p)
		if len(weekdays) == 0 && len(windows) == 0 {
			continue
		}
		if len(weekdays) > 0 {
			consider(minutesPerDay - minuteOfDay)
		}
		for day := 0; day < 7; day++ {
			base := day*minutesPerDay - minuteOfDay
			for _, w := range windows {
				consider(base + w.StartMinute)
				consider(base + w.EndMinute)
			}
		}
	}
	return best
}

func activeWindows(p models.Product) []models.AvailabilityWindow {
	var out []models.AvailabilityWindow
	for _, w := range p.AvailabilityWindows {
		if w.IsActive {
			out = append(out, w)
		}
	}
	return out
}
