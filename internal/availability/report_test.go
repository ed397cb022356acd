package availability

import (
	"testing"
	"time"

	"cowin-slot-mailer/internal/cowin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adults = Eligibility{MinAgeLimit: 18}

func session(capacity float64, age int, date string) cowin.Sessions {
	return cowin.Sessions{AvailableCapacity: capacity, MinAgeLimit: age, Date: date, Vaccine: "COVISHIELD"}
}

func day(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregate_EmptyCentersIsNotOpen(t *testing.T) {
	report := Aggregate("Pune", &cowin.CowinSlots{Centers: []cowin.Centers{}}, adults)
	assert.Equal(t, StatusNotOpen, report.Status)
	assert.Empty(t, report.Rows)
	assert.Equal(t, "Pune", report.DistrictName)
}

func TestAggregate_NilPayloadIsNotOpen(t *testing.T) {
	report := Aggregate("Pune", nil, adults)
	assert.Equal(t, StatusNotOpen, report.Status)
}

func TestAggregate_SentinelIsNotOpen(t *testing.T) {
	report := Aggregate("Pune", cowin.EmptySlots("http://x", 500), adults)
	assert.Equal(t, StatusNotOpen, report.Status)
}

func TestAggregate_ZeroCapacityIsNotAvailable(t *testing.T) {
	slots := &cowin.CowinSlots{Centers: []cowin.Centers{
		{Name: "PHC", Sessions: []cowin.Sessions{session(0, 18, "15-10-2026")}},
	}}
	report := Aggregate("Pune", slots, adults)
	assert.Equal(t, StatusNotAvailable, report.Status)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, 0, report.Rows[0].AvailableCapacity)
}

func TestAggregate_ExcludesOtherAgeGroups(t *testing.T) {
	slots := &cowin.CowinSlots{Centers: []cowin.Centers{
		{Name: "PHC", Sessions: []cowin.Sessions{
			session(50, 45, "15-10-2026"),
			session(3, 18, "15-10-2026"),
		}},
	}}
	report := Aggregate("Pune", slots, adults)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, 3, report.Rows[0].AvailableCapacity)

	seniors := Aggregate("Pune", slots, Eligibility{MinAgeLimit: 45})
	require.Len(t, seniors.Rows, 1)
	assert.Equal(t, 50, seniors.Rows[0].AvailableCapacity)
}

func TestAggregate_ExcludesNegativeCapacity(t *testing.T) {
	slots := &cowin.CowinSlots{Centers: []cowin.Centers{
		{Sessions: []cowin.Sessions{session(-1, 18, "15-10-2026")}},
	}}
	report := Aggregate("Pune", slots, adults)
	assert.Empty(t, report.Rows)
	assert.Equal(t, StatusNotOpen, report.Status)
}

func TestAggregate_CopiesCenterFields(t *testing.T) {
	slots := &cowin.CowinSlots{Centers: []cowin.Centers{{
		Name:      "Civil Hospital",
		Address:   "MG Road",
		BlockName: "Haveli",
		Pincode:   411001,
		FeeType:   "Paid",
		Sessions:  []cowin.Sessions{session(7.9, 18, "16-10-2026")},
	}}}
	report := Aggregate("Pune", slots, adults)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, SessionRecord{
		Pincode:           411001,
		AvailableCapacity: 7,
		Date:              day(16),
		Vaccine:           "COVISHIELD",
		BlockName:         "Haveli",
		FeeType:           "Paid",
		CenterName:        "Civil Hospital",
		Address:           "MG Road",
	}, report.Rows[0])
	assert.Equal(t, StatusAvailable, report.Status)
}

func TestAggregate_SortsByCapacityThenDate(t *testing.T) {
	slots := &cowin.CowinSlots{Centers: []cowin.Centers{
		{Name: "A", Sessions: []cowin.Sessions{
			session(5, 18, "20-10-2026"),
			session(0, 18, "14-10-2026"),
		}},
		{Name: "B", Sessions: []cowin.Sessions{
			session(5, 18, "02-11-2026"),
			session(9, 18, "30-10-2026"),
			session(5, 18, "15-10-2026"),
		}},
	}}
	report := Aggregate("Pune", slots, adults)
	require.Len(t, report.Rows, 5)

	got := make([]string, len(report.Rows))
	for i, r := range report.Rows {
		got[i] = r.Date.Format(cowin.DateLayout)
	}
	// 02-11 sorts after 20-10 as a calendar date even though it is smaller as text.
	assert.Equal(t, []string{"30-10-2026", "15-10-2026", "20-10-2026", "02-11-2026", "14-10-2026"}, got)

	for i := 1; i < len(report.Rows); i++ {
		prev, cur := report.Rows[i-1], report.Rows[i]
		assert.GreaterOrEqual(t, prev.AvailableCapacity, cur.AvailableCapacity)
		if prev.AvailableCapacity == cur.AvailableCapacity {
			assert.False(t, cur.Date.Before(prev.Date))
		}
	}
}

func TestAggregate_SkipsUnparsableDates(t *testing.T) {
	slots := &cowin.CowinSlots{Centers: []cowin.Centers{
		{Sessions: []cowin.Sessions{session(4, 18, "2026-10-15"), session(4, 18, "15-10-2026")}},
	}}
	report := Aggregate("Pune", slots, adults)
	assert.Len(t, report.Rows, 1)
	assert.Equal(t, 1, report.Skipped)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		rows []SessionRecord
		want Status
	}{
		{"no rows", nil, StatusNotOpen},
		{"all zero", []SessionRecord{{AvailableCapacity: 0}, {AvailableCapacity: 0}}, StatusNotAvailable},
		{"one open", []SessionRecord{{AvailableCapacity: 0}, {AvailableCapacity: 1}}, StatusAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.rows))
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "NOT OPEN", StatusNotOpen.String())
	assert.Equal(t, "NOT AVAILABLE", StatusNotAvailable.String())
	assert.Equal(t, "AVAILABLE", StatusAvailable.String())
	assert.Equal(t, "UNKNOWN", Status(9).String())
}
