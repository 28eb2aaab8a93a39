package api

import (
	"testing"

	json "github.com/goccy/go-json"
)

func TestNormalizeRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantID  string
		wantErr bool
	}{
		{
			name:   "canonical lowercase",
			raw:    `{"id":"RST_001","name":"A","tags":["Thai"],"google_rating":4.5,"price_range":"RM10 - RM20","opening_time":"09:00","closing_time":"22:00"}`,
			wantID: "RST_001",
		},
		{
			name:   "capitalized keys",
			raw:    `{"ID":"RST_002","Name":"B","Tags":["Indian"],"Rating":3.5,"PriceRange":"RM5"}`,
			wantID: "RST_002",
		},
		{
			name:   "flat tag columns",
			raw:    `{"id":"RST_003","name":"C","tag_1":"Mamak","tag_2":"Halal","tag_3":null}`,
			wantID: "RST_003",
		},
		{
			name:    "missing id",
			raw:     `{"name":"D"}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			raw:     `[1,2,3]`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, err := NormalizeRecord(json.RawMessage(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeRecord: %v", err)
			}
			if rec.ID != tt.wantID {
				t.Fatalf("id = %q, want %q", rec.ID, tt.wantID)
			}
		})
	}
}

func TestNormalizeRecord_FlatTagColumns(t *testing.T) {
	t.Parallel()

	rec, err := NormalizeRecord(json.RawMessage(
		`{"id":"RST_003","name":"C","tag_1":"Mamak","tag_2":"Halal"}`))
	if err != nil {
		t.Fatalf("NormalizeRecord: %v", err)
	}
	if len(rec.Tags) != 2 || rec.Tags[0] != "Mamak" || rec.Tags[1] != "Halal" {
		t.Fatalf("tags = %v", rec.Tags)
	}
}

func TestNormalizeRecord_QuotedRating(t *testing.T) {
	t.Parallel()

	rec, err := NormalizeRecord(json.RawMessage(`{"id":"R","name":"N","google_rating":"4.2"}`))
	if err != nil {
		t.Fatalf("NormalizeRecord: %v", err)
	}
	if rec.Rating != 4.2 {
		t.Fatalf("rating = %v, want 4.2", rec.Rating)
	}
}

func TestNormalizeRecord_NestedPrice(t *testing.T) {
	t.Parallel()

	rec, err := NormalizeRecord(json.RawMessage(`{"id":"R","name":"N","price":{"min":"RM8","max":"RM18"}}`))
	if err != nil {
		t.Fatalf("NormalizeRecord: %v", err)
	}
	if rec.PriceRange != "RM8 - RM18" {
		t.Fatalf("price range = %q", rec.PriceRange)
	}
}
