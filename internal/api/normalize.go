package api

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/nomnomhq/nomnom/internal/model"
)

// NormalizeRecord converts one raw recommendation object into the
// canonical model.Restaurant. The service's record shape drifted across
// deployments: lowercase snake_case keys, capitalized keys, ratings under
// either "google_rating" or "rating", tags as a list or as tag_1..tag_3
// columns, and price as a preformatted string or a nested {min,max}
// object. All of that is absorbed here so nothing downstream cares.
func NormalizeRecord(raw json.RawMessage) (model.Restaurant, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return model.Restaurant{}, fmt.Errorf("api: record is not an object: %w", err)
	}

	rec := model.Restaurant{
		ID:          pickString(fields, "id", "Id", "ID"),
		Name:        pickString(fields, "name", "Name"),
		PriceRange:  pickString(fields, "price_range", "PriceRange", "priceRange"),
		Address:     pickString(fields, "address", "Address"),
		Description: pickString(fields, "description", "Description"),
		Phone:       pickString(fields, "phone", "Phone"),
		OpeningTime: pickString(fields, "opening_time", "OpeningTime"),
		ClosingTime: pickString(fields, "closing_time", "ClosingTime"),
		Location:    pickString(fields, "location", "Location"),
		Rating:      pickNumber(fields, "google_rating", "GoogleRating", "rating", "Rating"),
		Tags:        pickTags(fields),
	}

	if rec.PriceRange == "" {
		rec.PriceRange = nestedPriceRange(fields)
	}

	if rec.ID == "" {
		return model.Restaurant{}, fmt.Errorf("api: record has no id")
	}
	return rec, nil
}

// nestedPriceRange folds a nested {"price": {"min": ..., "max": ...}}
// object into the flat "min - max" form.
func nestedPriceRange(fields map[string]json.RawMessage) string {
	raw, ok := fields["price"]
	if !ok {
		raw, ok = fields["Price"]
	}
	if !ok {
		return ""
	}
	var price struct {
		Min string `json:"min"`
		Max string `json:"max"`
	}
	if err := json.Unmarshal(raw, &price); err != nil {
		return ""
	}
	switch {
	case price.Min != "" && price.Max != "":
		return price.Min + " - " + price.Max
	case price.Min != "":
		return price.Min
	default:
		return price.Max
	}
}

func pickString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return ""
}

func pickNumber(fields map[string]json.RawMessage, keys ...string) float64 {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return f
		}
		// Some exports carry the rating as a quoted number.
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// pickTags accepts tags as a JSON list (dropping empties and nulls) or as
// the flat tag_1..tag_3 columns older payloads exposed.
func pickTags(fields map[string]json.RawMessage) []string {
	for _, key := range []string{"tags", "Tags"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var list []*string
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		out := make([]string, 0, len(list))
		for _, t := range list {
			if t != nil && *t != "" {
				out = append(out, *t)
			}
		}
		return out
	}

	var out []string
	for _, key := range []string{"tag_1", "tag_2", "tag_3"} {
		if t := pickString(fields, key); t != "" {
			out = append(out, t)
		}
	}
	return out
}
