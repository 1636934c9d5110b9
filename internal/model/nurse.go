package model

type Nurse struct {
	ID           int      `json:"id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Location     string   `json:"location"`
	NurseType    string   `json:"nurse_type"`
	Shift        string   `json:"shift"`
	MobileNumber string   `json:"mobile_number"`
	ScheduleName string   `json:"schedule_name"`
	Rate         float64  `json:"rate"`
	ShiftDif     float64  `json:"shift_dif"`
	OTRate       float64  `json:"ot_rate"`
	Email        string   `json:"email"`
	TalentID     string   `json:"talent_id"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
}

func (n *Nurse) FullName() string {
	return n.FirstName + " " + n.LastName
}

func (n *Nurse) HasLocation() bool {
	return n.Lat != nil && n.Lng != nil
}

type NurseType struct {
	ID        int    `json:"id"`
	NurseType string `json:"nurse_type"`
}
