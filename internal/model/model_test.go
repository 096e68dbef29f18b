package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewDate(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		month   time.Month
		day     int
		wantErr bool
	}{
		{"ordinary day", 1998, time.March, 28, false},
		{"leap day", 2020, time.February, 29, false},
		{"first apod", 1995, time.June, 16, false},
		{"april 31", 2020, time.April, 31, true},
		{"february 30", 2020, time.February, 30, true},
		{"non leap february 29", 2019, time.February, 29, true},
		{"day zero", 2020, time.January, 0, true},
		{"month thirteen", 2020, 13, 1, true},
		{"month zero", 2020, 0, 1, true},
		{"year zero", 0, time.January, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDate(tt.year, tt.month, tt.day)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Errorf("NewDate(%d, %d, %d) error = %v, want ErrInvalidDate", tt.year, tt.month, tt.day, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := Date{Year: tt.year, Month: tt.month, Day: tt.day}
			if d != want {
				t.Errorf("NewDate() = %v, want %v", d, want)
			}
		})
	}
}

func TestDate_Formatting(t *testing.T) {
	d := Date{Year: 1998, Month: time.March, Day: 8}

	if got := d.ISO(); got != "1998-03-08" {
		t.Errorf("ISO() = %q, want %q", got, "1998-03-08")
	}
	if got := d.String(); got != "1998-03-08" {
		t.Errorf("String() = %q, want %q", got, "1998-03-08")
	}
	if got := d.Display(); got != "Mar 08, 1998" {
		t.Errorf("Display() = %q, want %q", got, "Mar 08, 1998")
	}
}

func TestDate_Ordering(t *testing.T) {
	a := Date{Year: 1995, Month: time.June, Day: 16}
	b := Date{Year: 1995, Month: time.June, Day: 17}

	if !a.Before(b) || a.After(b) {
		t.Errorf("%v should be before %v", a, b)
	}
	if !b.After(a) || b.Before(a) {
		t.Errorf("%v should be after %v", b, a)
	}
	if a.Before(a) || a.After(a) {
		t.Errorf("%v should be neither before nor after itself", a)
	}
}

func TestDate_AddDays(t *testing.T) {
	tests := []struct {
		from Date
		n    int
		want Date
	}{
		{Date{2024, time.March, 1}, -1, Date{2024, time.February, 29}},
		{Date{2023, time.January, 1}, -1, Date{2022, time.December, 31}},
		{Date{2023, time.December, 31}, 1, Date{2024, time.January, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.from.ISO(), func(t *testing.T) {
			if got := tt.from.AddDays(tt.n); got != tt.want {
				t.Errorf("AddDays(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestDateOf_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	instant := time.Date(2024, time.May, 31, 20, 0, 0, 0, time.UTC)

	if got, want := DateOf(instant.In(loc)), (Date{2024, time.June, 1}); got != want {
		t.Errorf("DateOf() = %v, want %v", got, want)
	}
}

func TestParseTriple(t *testing.T) {
	tests := []struct {
		input   string
		want    Triple
		wantErr bool
	}{
		{"03 28 1998", Triple{3, 28, 1998}, false},
		{"3/28/1998", Triple{3, 28, 1998}, false},
		{"03-28-1998", Triple{3, 28, 1998}, false},
		{"  12  1  2020 ", Triple{12, 1, 2020}, false},
		{"02 30 2020", Triple{2, 30, 2020}, false},
		{"1998-03-28", Triple{}, true},
		{"march 28 1998", Triple{}, true},
		{"", Triple{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTriple(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTriple(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTriple(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTriple_Date(t *testing.T) {
	d, err := Triple{Month: 3, Day: 28, Year: 1998}.Date()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != (Date{1998, time.March, 28}) {
		t.Errorf("Date() = %v", d)
	}

	if _, err := (Triple{Month: 2, Day: 30, Year: 2020}).Date(); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("02/30/2020 error = %v, want ErrInvalidDate", err)
	}
}

func TestParseMetadata(t *testing.T) {
	body := []byte(`{
		"copyright": "The League of Lost Causes",
		"date": "2017-09-24",
		"hdurl": "https://apod.nasa.gov/apod/image/1709/astronomy101_hk_750.jpg",
		"media_type": "image",
		"service_version": "v1",
		"title": "How to Identify that Light in the Sky",
		"url": "https://apod.nasa.gov/apod/image/1709/astronomy101_hk_960.jpg"
	}`)

	md, err := ParseMetadata(body)
	if err != nil {
		t.Fatalf("ParseMetadata failed: %v", err)
	}

	if md.Title != "How to Identify that Light in the Sky" {
		t.Errorf("Title = %q", md.Title)
	}
	if md.URL != "https://apod.nasa.gov/apod/image/1709/astronomy101_hk_960.jpg" {
		t.Errorf("URL = %q", md.URL)
	}
	if md.Date != "2017-09-24" {
		t.Errorf("Date = %q", md.Date)
	}
	if md.Copyright != "The League of Lost Causes" {
		t.Errorf("Copyright = %q", md.Copyright)
	}
	if md.Fields["service_version"] != "v1" {
		t.Errorf("Fields[service_version] = %v, want passthrough of unknown field", md.Fields["service_version"])
	}
	if !md.IsImage() {
		t.Error("IsImage() = false for media_type image")
	}
	if got := md.ImageURL(true); got != md.HDURL {
		t.Errorf("ImageURL(true) = %q, want hdurl", got)
	}
	if got := md.ImageURL(false); got != md.URL {
		t.Errorf("ImageURL(false) = %q, want url", got)
	}
}

func TestParseMetadata_Errors(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want error
	}{
		{"not json", []byte(`<html>oops</html>`), ErrMetadataParse},
		{"json array", []byte(`[{"title":"x","url":"y"}]`), ErrMetadataParse},
		{"python literal", []byte(`{'title': 'x', 'url': 'y'}`), ErrMetadataParse},
		{"trailing garbage", []byte(`{"title":"x","url":"y"} extra`), ErrMetadataParse},
		{"invalid utf8", []byte("{\"title\":\"\xff\",\"url\":\"y\"}"), ErrMetadataParse},
		{"empty body", []byte(``), ErrMetadataParse},
		{"wrong type", []byte(`{"title":"x","url":"y","hdurl":42}`), ErrMetadataParse},
		{"missing url", []byte(`{"title":"x","date":"1998-03-28"}`), ErrMissingField},
		{"missing title", []byte(`{"url":"https://example/img.jpg"}`), ErrMissingField},
		{"empty title", []byte(`{"title":"","url":"https://example/img.jpg"}`), ErrMissingField},
		{"null url", []byte(`{"title":"x","url":null}`), ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetadata(tt.body)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseMetadata() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestErrRandomDateExhausted_IsNoValidDate(t *testing.T) {
	if !errors.Is(ErrRandomDateExhausted, ErrNoValidDate) {
		t.Error("ErrRandomDateExhausted should match ErrNoValidDate")
	}
}
