package translate

import (
	"fmt"
	"math"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"

	"github.com/xtxerr/ktimport/internal/document"
	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/kind"
	"github.com/xtxerr/ktimport/internal/metric"
	"github.com/xtxerr/ktimport/internal/storage/types"
)

const (
	summer = 1625140800 // 2021-07-01 12:00 UTC
	winter = 1610712000 // 2021-01-15 12:00 UTC
)

func strp(s string) *string { return &s }

func loadLA(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return loc
}

func TestTranslateNumber(t *testing.T) {
	m := &document.Metric{
		Name:  "Weight",
		Type:  "number",
		Units: strp("kg"),
		Values: []document.Entry{
			{Time: 1000, Text: "70.5"},
			{Time: 2000, Text: "71.0"},
		},
	}

	b, err := Translate(m, metric.DefaultConfig(), Options{Location: time.UTC, ApplyDST: true})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	want := []types.Row{
		{TimeNs: 1_000_000_000_000, TZ: 0, Value: kind.FloatValue(kind.Float64, 70.5), HasValue: true},
		{TimeNs: 2_000_000_000_000, TZ: 0, Value: kind.FloatValue(kind.Float64, 71.0), HasValue: true},
	}
	if diff := cmp.Diff(want, b.Rows.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if b.Type != metric.TypeNumber {
		t.Errorf("expected NUMBER, got %s", b.Type)
	}
	if got := b.Schema.String(); got != "time:Int64Col, tz:Int8Col, value:Float64Col" {
		t.Errorf("unexpected schema %s", got)
	}
	if col, _ := b.Schema.Value(); col.Unit != "kg" {
		t.Errorf("expected unit kg, got %q", col.Unit)
	}
	if len(b.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", b.Warnings)
	}
}

func TestTranslateNumberColumnKind(t *testing.T) {
	m := &document.Metric{
		Name:   "Steps",
		Type:   "NUMBER",
		Values: []document.Entry{{Time: 10, Text: " 12345 "}},
	}
	cfg := metric.Config{Category: "Fitness", Numeric: kind.Int32, Column: kind.Int16Col}

	b, err := Translate(m, cfg, Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	row := b.Rows.Rows[0]
	if !row.Value.Equal(kind.IntValue(kind.Int16, 12345)) {
		t.Errorf("expected int16 12345, got %v (%s)", row.Value, row.Value.Kind())
	}
	if len(b.Warnings) != 1 || !errors.Is(b.Warnings[0], errors.ErrMissingUnits) {
		t.Errorf("expected missing units warning, got %v", b.Warnings)
	}
	if !errors.IsRecoverable(b.Warnings[0]) {
		t.Error("missing units must be recoverable")
	}
}

func TestTranslateConversionError(t *testing.T) {
	m := &document.Metric{
		Name: "Weight",
		Type: "number",
		Values: []document.Entry{
			{Time: 1000, Text: "70.5"},
			{Time: 2000, Text: "heavy"},
		},
	}

	b, err := Translate(m, metric.DefaultConfig(), Options{})
	if b != nil {
		t.Error("expected no batch on conversion failure")
	}

	var ce *errors.ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConversionError, got %v", err)
	}
	if ce.Text != "heavy" || ce.Kind != "float64" || ce.Metric != "Weight" {
		t.Errorf("unexpected error fields: %+v", ce)
	}
	if !errors.Is(err, errors.ErrConversion) || !errors.IsFatal(err) {
		t.Error("conversion failure must be fatal")
	}
}

func TestTranslateConversionAfterCutoffIgnored(t *testing.T) {
	m := &document.Metric{
		Name:   "Weight",
		Type:   "number",
		Values: []document.Entry{{Time: 1000, Text: "bad"}, {Time: 2000, Text: "71"}},
	}

	b, err := Translate(m, metric.DefaultConfig(), Options{CutoffNs: 1_000_000_000_000})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if b.Len() != 1 || b.Dropped != 1 {
		t.Errorf("expected 1 row and 1 dropped, got %d/%d", b.Len(), b.Dropped)
	}
}

func TestTranslateMarker(t *testing.T) {
	m := &document.Metric{
		Name:   "Headache",
		Type:   "marker",
		Units:  strp("ignored"),
		Values: []document.Entry{{Time: 5, Text: "anything"}},
	}

	b, err := Translate(m, metric.DefaultConfig(), Options{BaseOffset: 20})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	want := []types.Row{{TimeNs: 5_000_000_000, TZ: 20}}
	if diff := cmp.Diff(want, b.Rows.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if b.Schema.HasValue() {
		t.Error("marker schema must not have a value column")
	}
}

func TestTranslateSet(t *testing.T) {
	m := &document.Metric{
		Name:       "Mood",
		Type:       "set",
		Predefined: []string{"Low", "Medium", "High"},
		Values: []document.Entry{
			{Time: 1, Text: "High"},
			{Time: 2, Text: "Low"},
			{Time: 3, Text: "Medium"},
		},
	}

	b, err := Translate(m, metric.DefaultConfig(), Options{})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	var codes []int64
	for _, r := range b.Rows.Rows {
		if r.Value.Kind() != kind.Int16 {
			t.Errorf("expected int16 codes, got %s", r.Value.Kind())
		}
		codes = append(codes, r.Value.Int64())
	}
	if diff := cmp.Diff([]int64{2, 0, 1}, codes); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}

	col, ok := b.Schema.Value()
	if !ok || col.Kind != kind.Int16Col {
		t.Fatalf("expected Int16Col value column, got %v", b.Schema)
	}
	if col.Unit != "0: Low, 1: Medium, 2: High" {
		t.Errorf("unexpected unit %q", col.Unit)
	}
}

func TestTranslateSetUndeclared(t *testing.T) {
	m := &document.Metric{
		Name:       "Mood",
		Type:       "set",
		Predefined: []string{"Low", "High"},
		Values:     []document.Entry{{Time: 7, Text: "Ecstatic"}},
	}

	_, err := Translate(m, metric.DefaultConfig(), Options{})

	var ue *errors.UndeclaredLabelError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UndeclaredLabelError, got %v", err)
	}
	if ue.Label != "Ecstatic" || ue.TimeNs != 7_000_000_000 {
		t.Errorf("unexpected error fields: %+v", ue)
	}
	if !errors.IsFatal(err) {
		t.Error("undeclared label must be fatal")
	}
}

func TestTranslateUnknownType(t *testing.T) {
	m := &document.Metric{Name: "Notes", Type: "text"}

	_, err := Translate(m, metric.DefaultConfig(), Options{})
	if !errors.Is(err, errors.ErrUnknownMetricType) {
		t.Fatalf("expected ErrUnknownMetricType, got %v", err)
	}
	if !errors.IsRecoverable(err) {
		t.Error("unknown metric type must be recoverable")
	}
}

func TestTranslateCutoff(t *testing.T) {
	m := &document.Metric{
		Name: "Weight",
		Type: "number",
		Values: []document.Entry{
			{Time: 1000, Text: "70"},
			{Time: 2000, Text: "71"},
			{Time: 3000, Text: "72"},
		},
	}

	// Equality with the cutoff means the row is already stored.
	b, err := Translate(m, metric.DefaultConfig(), Options{CutoffNs: 2_000_000_000_000})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if b.Len() != 1 || b.Rows.Rows[0].TimeNs != 3_000_000_000_000 {
		t.Errorf("expected only the 3000s row, got %+v", b.Rows.Rows)
	}
	if b.Dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", b.Dropped)
	}

	b, err = Translate(m, metric.DefaultConfig(), Options{CutoffNs: 3_000_000_000_000})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !b.Empty() {
		t.Errorf("expected empty batch, got %d rows", b.Len())
	}
}

func TestOffsetDST(t *testing.T) {
	la := loadLA(t)
	base, err := OffsetBlocks(8 * 3600)
	if err != nil {
		t.Fatalf("OffsetBlocks: %v", err)
	}
	if base != 32 {
		t.Fatalf("expected 32 blocks for 8h west, got %d", base)
	}

	tests := []struct {
		name     string
		applyDST bool
		t        int64
		want     int8
	}{
		{"summer dst", true, summer, 28},
		{"winter dst", true, winter, 32},
		{"summer nodst", false, summer, 32},
		{"winter nodst", false, winter, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{BaseOffset: base, ApplyDST: tt.applyDST, Location: la}
			got, err := opts.Offset(tt.t)
			if err != nil {
				t.Fatalf("Offset: %v", err)
			}
			if got != tt.want {
				t.Errorf("Offset = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTranslateAppliesDST(t *testing.T) {
	m := &document.Metric{
		Name:   "Headache",
		Type:   "marker",
		Values: []document.Entry{{Time: winter}, {Time: summer}},
	}

	b, err := Translate(m, metric.DefaultConfig(), Options{BaseOffset: 32, ApplyDST: true, Location: loadLA(t)})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if b.Rows.Rows[0].TZ != 32 || b.Rows.Rows[1].TZ != 28 {
		t.Errorf("expected tz 32 then 28, got %d then %d", b.Rows.Rows[0].TZ, b.Rows.Rows[1].TZ)
	}
}

func TestOffsetBlocks(t *testing.T) {
	tests := []struct {
		seconds int
		want    int8
		wantErr bool
	}{
		{0, 0, false},
		{28800, 32, false},
		{-3600, -4, false},
		{-19800, -22, false}, // India, 5:30 east
		{1000, 1, false},
		{-1000, -2, false},
		{200 * 900, 0, true},
		{-200 * 900, 0, true},
	}

	for _, tt := range tests {
		got, err := OffsetBlocks(tt.seconds)
		if tt.wantErr {
			if !errors.Is(err, errors.ErrOffsetRange) {
				t.Errorf("OffsetBlocks(%d): expected ErrOffsetRange, got %v", tt.seconds, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("OffsetBlocks(%d): %v", tt.seconds, err)
		}
		if got != tt.want {
			t.Errorf("OffsetBlocks(%d) = %d, want %d", tt.seconds, got, tt.want)
		}
	}
}

func TestEnumeration(t *testing.T) {
	e, warnings, err := NewEnumeration([]string{"Low", "Medium", "High"})
	if err != nil {
		t.Fatalf("NewEnumeration: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	for label, want := range map[string]int16{"Low": 0, "Medium": 1, "High": 2} {
		got, ok := e.Code(label)
		if !ok || got != want {
			t.Errorf("Code(%s) = %d, %v; want %d", label, got, ok, want)
		}
	}
	if _, ok := e.Code("low"); ok {
		t.Error("labels are case sensitive")
	}
	if e.Unit() != "0: Low, 1: Medium, 2: High" {
		t.Errorf("unexpected unit %q", e.Unit())
	}
}

func TestEnumerationDuplicate(t *testing.T) {
	e, warnings, err := NewEnumeration([]string{"Low", "High", "Low"})
	if err != nil {
		t.Fatalf("NewEnumeration: %v", err)
	}

	if len(warnings) != 1 || !errors.Is(warnings[0], errors.ErrDuplicateLabel) {
		t.Fatalf("expected one duplicate warning, got %v", warnings)
	}
	if e.Len() != 2 {
		t.Errorf("expected 2 labels, got %d", e.Len())
	}
	if c, _ := e.Code("Low"); c != 0 {
		t.Errorf("duplicate must keep the first code, got %d", c)
	}
	if e.Unit() != "0: Low, 1: High" {
		t.Errorf("unexpected unit %q", e.Unit())
	}
}

func TestEnumerationEmpty(t *testing.T) {
	e, _, err := NewEnumeration(nil)
	if err != nil {
		t.Fatalf("NewEnumeration: %v", err)
	}
	if e.Unit() != "" {
		t.Errorf("expected empty unit, got %q", e.Unit())
	}
}

func TestEnumerationCodeRange(t *testing.T) {
	labels := make([]string, math.MaxInt16+1)
	for i := range labels {
		labels[i] = fmt.Sprintf("L%d", i)
	}

	e, _, err := NewEnumeration(labels)
	if err != nil {
		t.Fatalf("NewEnumeration: %v", err)
	}
	if c, ok := e.Code(labels[len(labels)-1]); !ok || c != math.MaxInt16 {
		t.Errorf("last label: got code %d, %v", c, ok)
	}

	_, _, err = NewEnumeration(append(labels, "overflow"))
	if !errors.Is(err, errors.ErrTooManyLabels) || !errors.IsFatal(err) {
		t.Errorf("expected fatal ErrTooManyLabels, got %v", err)
	}
}

func TestTranslateSetTooManyLabels(t *testing.T) {
	m := &document.Metric{
		Name:   "Mood",
		Type:   "set",
		Values: []document.Entry{{Time: 1000, Text: "L0"}},
	}
	for i := 0; i <= math.MaxInt16+1; i++ {
		m.Predefined = append(m.Predefined, fmt.Sprintf("L%d", i))
	}

	if _, err := Translate(m, metric.DefaultConfig(), Options{}); !errors.Is(err, errors.ErrTooManyLabels) {
		t.Errorf("expected ErrTooManyLabels, got %v", err)
	}
}

func TestTranslateTimeOutOfRange(t *testing.T) {
	for _, ts := range []int64{20_000_000_000, -20_000_000_000} {
		m := &document.Metric{
			Name:  "Weight",
			Type:  "number",
			Units: strp("kg"),
			Values: []document.Entry{
				{Time: 1000, Text: "70.5"},
				{Time: ts, Text: "71.0"},
			},
		}

		b, err := Translate(m, metric.DefaultConfig(), Options{Location: time.UTC})
		if b != nil {
			t.Errorf("time %d: expected no batch", ts)
		}
		var te *errors.TimeRangeError
		if !errors.As(err, &te) || te.Time != ts {
			t.Fatalf("time %d: expected *TimeRangeError, got %v", ts, err)
		}
		if !errors.Is(err, errors.ErrTimeRange) || !errors.IsFatal(err) {
			t.Errorf("time %d: out of range timestamp must be fatal", ts)
		}
	}

	// The largest representable second still converts.
	m := &document.Metric{
		Name:   "Check-in",
		Type:   "marker",
		Values: []document.Entry{{Time: math.MaxInt64 / 1_000_000_000}},
	}
	b, err := Translate(m, metric.DefaultConfig(), Options{Location: time.UTC})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if b.Rows.Rows[0].TimeNs <= 0 {
		t.Errorf("timestamp wrapped: %d", b.Rows.Rows[0].TimeNs)
	}
}
