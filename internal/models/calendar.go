package models

// Weekday is the numeric day code used by the source data, 0 = Sunday
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// WeekdayDisplayOrder is the Monday-first order used on every weekday axis
var WeekdayDisplayOrder = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Valid reports whether the code is 0..6
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// DisplayIndex is the position of the day on a Monday-first axis
func (d Weekday) DisplayIndex() int {
	return (int(d) + 6) % 7
}

// Name returns the localized day name
func (d Weekday) Name(loc *Locale) string {
	if !d.Valid() {
		return ""
	}
	return loc.DayNames[d]
}

// Month is a calendar month, 1 = January
type Month int

const (
	January Month = iota + 1
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

// Valid reports whether the month is 1..12
func (m Month) Valid() bool {
	return m >= January && m <= December
}

// ShortName returns the abbreviated localized name used on chart axes
func (m Month) ShortName(loc *Locale) string {
	if !m.Valid() {
		return ""
	}
	return loc.MonthShort[m-1]
}

// LongName returns the full localized name used in KPI tiles
func (m Month) LongName(loc *Locale) string {
	if !m.Valid() {
		return ""
	}
	return loc.MonthLong[m-1]
}
