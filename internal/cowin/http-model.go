package cowin

type CowinStates struct {
	States []States `json:"states"`
	TTL    int      `json:"ttl"`
}

type States struct {
	StateID   int    `json:"state_id"`
	StateName string `json:"state_name"`
}

type CowinDistricts struct {
	Districts []Districts `json:"districts"`
	TTL       int         `json:"ttl"`
}

type Districts struct {
	DistrictID   int    `json:"district_id"`
	DistrictName string `json:"district_name"`
}

// CowinSlots is the calendarByDistrict payload. Message and Status are only
// set on the empty sentinel built when the call fails.
type CowinSlots struct {
	Centers []Centers `json:"centers"`
	Message string    `json:"message,omitempty"`
	Status  int       `json:"status,omitempty"`

	// Keys holds the top-level keys of the decoded document, for diagnostics.
	Keys []string `json:"-"`
	URL  string   `json:"-"`
	// Failed marks the sentinel returned for a failed call.
	Failed bool `json:"-"`
}

type Sessions struct {
	SessionID         string   `json:"session_id"`
	Date              string   `json:"date"`
	AvailableCapacity float64  `json:"available_capacity"`
	MinAgeLimit       int      `json:"min_age_limit"`
	Vaccine           string   `json:"vaccine"`
	Slots             []string `json:"slots"`
}

func (s *Sessions) RoundedAvailableCapacity() int {
	return int(s.AvailableCapacity)
}

type Centers struct {
	CenterID     int        `json:"center_id"`
	Name         string     `json:"name"`
	Address      string     `json:"address"`
	StateName    string     `json:"state_name"`
	DistrictName string     `json:"district_name"`
	BlockName    string     `json:"block_name"`
	Pincode      int        `json:"pincode"`
	Lat          float64    `json:"lat"`
	Long         float64    `json:"long"`
	From         string     `json:"from"`
	To           string     `json:"to"`
	FeeType      string     `json:"fee_type"`
	Sessions     []Sessions `json:"sessions"`
}

// EmptySlots is the sentinel payload for a failed availability call.
func EmptySlots(url string, status int) *CowinSlots {
	return &CowinSlots{
		Centers: []Centers{},
		Message: url,
		Status:  status,
		Keys:    []string{"centers", "message", "status"},
		URL:     url,
		Failed:  true,
	}
}
