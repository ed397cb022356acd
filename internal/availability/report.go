// Package availability flattens calendar payloads into ranked session tables.
package availability

import (
	"sort"
	"time"

	"cowin-slot-mailer/internal/cowin"
)

// Status is the overall slot situation of one district.
type Status int

const (
	StatusNotOpen Status = iota
	StatusNotAvailable
	StatusAvailable
)

func (s Status) String() string {
	switch s {
	case StatusNotOpen:
		return "NOT OPEN"
	case StatusNotAvailable:
		return "NOT AVAILABLE"
	case StatusAvailable:
		return "AVAILABLE"
	}
	return "UNKNOWN"
}

type SessionRecord struct {
	Pincode           int
	AvailableCapacity int
	Date              time.Time
	Vaccine           string
	BlockName         string
	FeeType           string
	CenterName        string
	Address           string
}

type Report struct {
	DistrictName string
	Status       Status
	Rows         []SessionRecord
	// Skipped counts eligible sessions dropped for an unparsable date.
	Skipped int
}

// Eligibility selects the sessions a report keeps.
type Eligibility struct {
	MinAgeLimit int
}

func (e Eligibility) allows(s *cowin.Sessions) bool {
	return s.AvailableCapacity >= 0 && s.MinAgeLimit == e.MinAgeLimit
}

// Aggregate builds the report of one district from its calendar payload.
func Aggregate(districtName string, slots *cowin.CowinSlots, elig Eligibility) Report {
	report := Report{DistrictName: districtName}
	if slots != nil {
		for _, center := range slots.Centers {
			for i := range center.Sessions {
				session := &center.Sessions[i]
				if !elig.allows(session) {
					continue
				}
				date, err := time.Parse(cowin.DateLayout, session.Date)
				if err != nil {
					report.Skipped++
					continue
				}
				report.Rows = append(report.Rows, SessionRecord{
					Pincode:           center.Pincode,
					AvailableCapacity: session.RoundedAvailableCapacity(),
					Date:              date,
					Vaccine:           session.Vaccine,
					BlockName:         center.BlockName,
					FeeType:           center.FeeType,
					CenterName:        center.Name,
					Address:           center.Address,
				})
			}
		}
	}
	SortRows(report.Rows)
	report.Status = Classify(report.Rows)
	return report
}

// SortRows orders rows by capacity descending, then date ascending.
func SortRows(rows []SessionRecord) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].AvailableCapacity != rows[j].AvailableCapacity {
			return rows[i].AvailableCapacity > rows[j].AvailableCapacity
		}
		return rows[i].Date.Before(rows[j].Date)
	})
}

func Classify(rows []SessionRecord) Status {
	if len(rows) == 0 {
		return StatusNotOpen
	}
	for _, r := range rows {
		if r.AvailableCapacity > 0 {
			return StatusAvailable
		}
	}
	return StatusNotAvailable
}
