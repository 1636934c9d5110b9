package model

type Facility struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name"`
	Address            string   `json:"address"`
	CityStateZip       string   `json:"city_state_zip"`
	OvertimeMultiplier *float64 `json:"overtime_multiplier"`
	Lat                *float64 `json:"lat"`
	Lng                *float64 `json:"lng"`
}

// HasLocation reports whether the facility was geocoded.
func (f *Facility) HasLocation() bool {
	return f.Lat != nil && f.Lng != nil
}

type Coordinator struct {
	ID         int    `json:"id"`
	FacilityID int    `json:"facility_id"`
	FirstName  string `json:"coordinator_first_name"`
	LastName   string `json:"coordinator_last_name"`
	Phone      string `json:"coordinator_phone"`
	Email      string `json:"coordinator_email"`
}

// ShiftTemplate is a facility's schedule for one role, exposed to the admin UI
// as a "service". Times are HH:MM:SS or nil when the period is not staffed.
type ShiftTemplate struct {
	ID           int     `json:"id"`
	FacilityID   int     `json:"facility_id"`
	Role         string  `json:"role"`
	Rate         float64 `json:"rate"`
	Hours        float64 `json:"hours"`
	AMTimeStart  *string `json:"am_time_start"`
	AMTimeEnd    *string `json:"am_time_end"`
	PMTimeStart  *string `json:"pm_time_start"`
	PMTimeEnd    *string `json:"pm_time_end"`
	NOCTimeStart *string `json:"noc_time_start"`
	NOCTimeEnd   *string `json:"noc_time_end"`
	AMMealStart  *string `json:"am_meal_start"`
	AMMealEnd    *string `json:"am_meal_end"`
	PMMealStart  *string `json:"pm_meal_start"`
	PMMealEnd    *string `json:"pm_meal_end"`
	NOCMealStart *string `json:"noc_meal_start"`
	NOCMealEnd   *string `json:"noc_meal_end"`
}

// PeriodTimes returns the start and end of a period (AM, PM or NOC). ok is
// false for an unknown period or when either bound is unset.
func (t *ShiftTemplate) PeriodTimes(period string) (start, end string, ok bool) {
	var s, e *string
	switch period {
	case PeriodAM:
		s, e = t.AMTimeStart, t.AMTimeEnd
	case PeriodPM:
		s, e = t.PMTimeStart, t.PMTimeEnd
	case PeriodNOC:
		s, e = t.NOCTimeStart, t.NOCTimeEnd
	}
	if s == nil || e == nil || *s == "" || *e == "" {
		return "", "", false
	}
	return *s, *e, true
}
