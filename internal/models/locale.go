package models

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Locale carries the fixed display vocabulary of one language
type Locale struct {
	Tag        language.Tag
	DayNames   [7]string // indexed by Weekday code
	MonthShort [12]string
	MonthLong  [12]string
	Labels     Labels
}

// Labels are axis, legend and KPI captions
type Labels struct {
	Title            string
	Year             string
	Hour             string
	Day              string
	Month            string
	Season           string
	Weather          string
	Rentals          string
	UserType         string
	Casual           string
	Registered       string
	Total            string
	CasualRatio      string
	Correlation      string
	Temperature      string
	TotalRentals     string
	CasualPercentage string
	PeakMonth        string
	PeakHour         string
	DataUnavailable  string
}

var indonesian = &Locale{
	Tag:        language.Indonesian,
	DayNames:   [7]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"},
	MonthShort: [12]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agt", "Sep", "Okt", "Nov", "Des"},
	MonthLong: [12]string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	},
	Labels: Labels{
		Title:            "Bike Sharing Analysis Dashboard",
		Year:             "Tahun",
		Hour:             "Jam",
		Day:              "Hari",
		Month:            "Bulan",
		Season:           "Musim",
		Weather:          "Kondisi Cuaca",
		Rentals:          "Jumlah Penyewaan",
		UserType:         "Tipe Pengguna",
		Casual:           "Kasual",
		Registered:       "Terdaftar",
		Total:            "Total",
		CasualRatio:      "Rasio Pengguna Kasual",
		Correlation:      "Korelasi",
		Temperature:      "Suhu (°C)",
		TotalRentals:     "Total Penyewaan",
		CasualPercentage: "Persentase Pengguna Kasual",
		PeakMonth:        "Bulan Puncak",
		PeakHour:         "Jam Puncak",
		DataUnavailable:  "Data tidak dapat dimuat. Periksa lokasi berkas data.",
	},
}

var english = &Locale{
	Tag:        language.English,
	DayNames:   [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	MonthShort: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	MonthLong: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	Labels: Labels{
		Title:            "Bike Sharing Analysis Dashboard",
		Year:             "Year",
		Hour:             "Hour",
		Day:              "Day",
		Month:            "Month",
		Season:           "Season",
		Weather:          "Weather",
		Rentals:          "Rentals",
		UserType:         "User type",
		Casual:           "Casual",
		Registered:       "Registered",
		Total:            "Total",
		CasualRatio:      "Casual user ratio",
		Correlation:      "Correlation",
		Temperature:      "Temperature (°C)",
		TotalRentals:     "Total rentals",
		CasualPercentage: "Casual users",
		PeakMonth:        "Peak month",
		PeakHour:         "Peak hour",
		DataUnavailable:  "Data could not be loaded. Check the configured data locations.",
	},
}

// LookupLocale resolves a BCP 47 tag ("id", "en-US") to a supported locale
func LookupLocale(code string) (*Locale, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", code, err)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "id":
		return indonesian, nil
	case "en":
		return english, nil
	default:
		return nil, fmt.Errorf("unsupported locale %q", code)
	}
}

// DefaultLocale is the locale used when none is configured
func DefaultLocale() *Locale {
	return indonesian
}

// FormatCount renders an integer with the locale's digit grouping
func (l *Locale) FormatCount(n int64) string {
	return message.NewPrinter(l.Tag).Sprintf("%d", n)
}

// FormatPercent renders a percentage with one decimal, or "-" when undefined
func (l *Locale) FormatPercent(v NullableFloat) string {
	if !v.Valid() {
		return "-"
	}
	return message.NewPrinter(l.Tag).Sprintf("%.1f%%", float64(v))
}
