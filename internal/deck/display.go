package deck

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	starFull  = "★"
	starHalf  = "⯨"
	starEmpty = "☆"
)

// StarRating renders a 0..5 rating as five star glyphs, rounding to the
// nearest half star. Values at or below zero give five empty stars, values
// at or above five give five full ones.
func StarRating(value float64) string {
	rounded := math.Round(value*2) / 2
	if rounded < 0 {
		rounded = 0
	}
	if rounded > 5 {
		rounded = 5
	}
	full := int(rounded)
	half := rounded-float64(full) >= 0.5

	var b strings.Builder
	for i := 0; i < 5; i++ {
		switch {
		case i < full:
			b.WriteString(starFull)
		case i == full && half:
			b.WriteString(starHalf)
		default:
			b.WriteString(starEmpty)
		}
	}
	return b.String()
}

// OpenStatus reports whether a restaurant is open at the given time.
// A missing time on either side, or identical opening and closing times,
// means the place never closes. Windows that close before they open wrap
// past midnight.
func OpenStatus(openingTime, closingTime string, now time.Time) (status string, isOpen bool) {
	if openingTime == "" || closingTime == "" || openingTime == closingTime {
		return "Open 24/7", true
	}

	openMin, okOpen := minutesSinceMidnight(openingTime)
	closeMin, okClose := minutesSinceMidnight(closingTime)
	if !okOpen || !okClose {
		return "Open 24/7", true
	}

	nowMin := now.Hour()*60 + now.Minute()

	var open bool
	if closeMin < openMin {
		open = nowMin >= openMin || nowMin < closeMin
	} else {
		open = nowMin >= openMin && nowMin < closeMin
	}
	if open {
		return "Open", true
	}
	return "Closed", false
}

// minutesSinceMidnight parses "HH:MM" or "HH:MM:SS".
func minutesSinceMidnight(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

// FormatPriceRange strips ".00" fraction markers from a free-form price
// string, preserving its structure: "RM10.00 - RM20.00" => "RM10 - RM20".
func FormatPriceRange(raw string) string {
	return strings.ReplaceAll(raw, ".00", "")
}

// MapURL builds a map-embed URL from a "lat,lon" location string. It
// returns ok=false when either coordinate or the API key is missing.
func MapURL(location, apiKey string) (string, bool) {
	lat, lon, ok := splitLocation(location)
	if !ok || apiKey == "" {
		return "", false
	}
	q := url.QueryEscape(lat + "," + lon)
	return fmt.Sprintf("https://www.google.com/maps/embed/v1/place?key=%s&q=%s", url.QueryEscape(apiKey), q), true
}

func splitLocation(location string) (lat, lon string, ok bool) {
	parts := strings.SplitN(location, ",", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	lat = strings.TrimSpace(parts[0])
	lon = strings.TrimSpace(parts[1])
	if lat == "" || lon == "" {
		return "", "", false
	}
	return lat, lon, true
}
