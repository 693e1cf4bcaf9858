package timestamp

import (
	"testing"
	"time"
)

func TestNew_RejectsOutOfRangeFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		f    Fields
	}{
		{"month zero", Fields{Year: 2024, Month: 0, Day: 1}},
		{"month thirteen", Fields{Year: 2024, Month: 13, Day: 1}},
		{"feb 30", Fields{Year: 2024, Month: 2, Day: 30}},
		{"feb 29 non leap", Fields{Year: 2023, Month: 2, Day: 29}},
		{"hour 24", Fields{Year: 2024, Month: 1, Day: 1, Hour: 24}},
		{"millis 1000", Fields{Year: 2024, Month: 1, Day: 1, Millisecond: 1000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.f, "Asia/Tokyo"); err == nil {
				t.Fatalf("expected error for %+v", tc.f)
			}
		})
	}

	if _, err := New(Fields{Year: 2024, Month: 1, Day: 1}, "Mars/Olympus"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestNew_FieldsMatchZone(t *testing.T) {
	t.Parallel()

	in := Fields{Year: 2024, Month: 7, Day: 1, Hour: 9, Minute: 30, Second: 15, Millisecond: 250}
	ts := MustNew(in, "Europe/London")

	if got := ts.Fields(); got != in {
		t.Fatalf("expected fields %+v, got %+v", in, got)
	}
	if ts.Zone() != "Europe/London" {
		t.Fatalf("expected zone Europe/London, got %s", ts.Zone())
	}
	if ts.Time().Location().String() != "Europe/London" {
		t.Fatalf("expected location Europe/London, got %s", ts.Time().Location())
	}
	if !ts.DST() {
		t.Fatalf("expected BST to be active in July")
	}
}

func TestAddSeconds_Carries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		from Fields
		n    int
		want Fields
	}{
		{
			name: "day rollover",
			from: Fields{Year: 2024, Month: 5, Day: 10, Hour: 23, Minute: 59, Second: 59},
			n:    1,
			want: Fields{Year: 2024, Month: 5, Day: 11},
		},
		{
			name: "leap day",
			from: Fields{Year: 2024, Month: 2, Day: 28, Hour: 23, Minute: 59, Second: 59},
			n:    1,
			want: Fields{Year: 2024, Month: 2, Day: 29},
		},
		{
			name: "non leap february",
			from: Fields{Year: 2023, Month: 2, Day: 28, Hour: 23, Minute: 59, Second: 59},
			n:    1,
			want: Fields{Year: 2023, Month: 3, Day: 1},
		},
		{
			name: "year rollover",
			from: Fields{Year: 2024, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 59},
			n:    1,
			want: Fields{Year: 2025, Month: 1, Day: 1},
		},
		{
			name: "many seconds",
			from: Fields{Year: 2024, Month: 1, Day: 1, Hour: 10, Minute: 58, Second: 30},
			n:    95,
			want: Fields{Year: 2024, Month: 1, Day: 1, Hour: 11, Minute: 0, Second: 5},
		},
		{
			name: "millis preserved",
			from: Fields{Year: 2024, Month: 1, Day: 1, Second: 59, Millisecond: 420},
			n:    1,
			want: Fields{Year: 2024, Month: 1, Day: 1, Minute: 1, Millisecond: 420},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MustNew(tc.from, "Asia/Tokyo").AddSeconds(tc.n)
			if got.Fields() != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got.Fields())
			}
			if got.Zone() != "Asia/Tokyo" {
				t.Fatalf("expected zone preserved, got %s", got.Zone())
			}
		})
	}
}

func TestAddSeconds_AcrossDSTStart(t *testing.T) {
	t.Parallel()

	// London clocks jump from 00:59:59 GMT to 02:00:00 BST on 2024-03-31.
	ts := MustNew(Fields{Year: 2024, Month: 3, Day: 31, Hour: 0, Minute: 59, Second: 59}, "Europe/London")
	if ts.DST() {
		t.Fatalf("expected GMT before the transition")
	}
	next := ts.AddSeconds(1)
	want := Fields{Year: 2024, Month: 3, Day: 31, Hour: 2}
	if next.Fields() != want {
		t.Fatalf("expected %+v, got %+v", want, next.Fields())
	}
	if !next.DST() {
		t.Fatalf("expected BST after the transition")
	}
}

func TestTimestamp_IsImmutable(t *testing.T) {
	t.Parallel()

	ts := MustNew(Fields{Year: 2024, Month: 1, Day: 1}, "UTC")
	_ = ts.Add(time.Hour)
	if ts.Fields().Hour != 0 {
		t.Fatalf("expected original to be unchanged, got hour %d", ts.Fields().Hour)
	}
}

func TestFromTime(t *testing.T) {
	t.Parallel()

	instant := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts, err := FromTime(instant, "Asia/Tokyo")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ts.Fields().Hour != 9 {
		t.Fatalf("expected 09:00 in Tokyo, got %02d", ts.Fields().Hour)
	}
	if !ts.Time().Equal(instant) {
		t.Fatalf("expected same instant")
	}
}
