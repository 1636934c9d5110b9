package model

// Shift is one bookable shift_tracker row.
type Shift struct {
	ID                     int     `json:"id"`
	FacilityID             int     `json:"facility_id"`
	NurseType              string  `json:"nurse_type"`
	Shift                  string  `json:"shift"`
	NurseID                *int    `json:"nurse_id"`
	Status                 string  `json:"status"`
	Date                   Date    `json:"date"`
	BookedBy               *string `json:"booked_by"`
	AdditionalInstructions *string `json:"additional_instructions"`
	CoordinatorID          *int    `json:"coordinator_id"`
}

// ShiftListing is a Shift joined with display names for the admin table.
type ShiftListing struct {
	Shift
	NurseName       string `json:"nurse_name"`
	FacilityName    string `json:"facility_name"`
	CoordinatorName string `json:"coordinator_name"`
}

// TodayAssignment is a filled shift for today with its nurse and facility.
type TodayAssignment struct {
	ShiftID      int
	Nurse        Nurse
	FacilityName string
}

// ShiftQuery filters a coordinator's shift_tracker rows. Empty fields are ignored;
// Date wins over the Start/End range.
type ShiftQuery struct {
	CoordinatorID int
	Date          *Date
	Start, End    *Date
	Shift         string
	NurseType     string
	Status        string
}

// CalendarEvent is one row of the admin calendar.
type CalendarEvent struct {
	ID            int            `json:"id"`
	Title         string         `json:"title"`
	Start         string         `json:"start"`
	End           string         `json:"end"`
	ExtendedProps CalendarDetail `json:"extendedProps"`
}

type CalendarDetail struct {
	NurseType string `json:"nurse_type"`
	Facility  string `json:"facility"`
	Status    string `json:"status"`
	Date      string `json:"date"`
	Shift     string `json:"shift"`
	Nurse     string `json:"nurse"`
}

// Pagination is the page block returned with listings.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func NewPagination(total, page, limit int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
