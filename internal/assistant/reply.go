package assistant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadReply is returned when model output is not the expected JSON.
var ErrBadReply = errors.New("invalid AI response format")

// OneOrMany decodes a JSON value that may be a single T, a list of T or null.
// Null list elements are dropped.
type OneOrMany[T any] []T

func (o *OneOrMany[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*o = nil
		return nil
	}

	if b[0] == '[' {
		var items []*T
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		out := make([]T, 0, len(items))
		for _, it := range items {
			if it != nil {
				out = append(out, *it)
			}
		}
		*o = out
		return nil
	}

	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*o = OneOrMany[T]{one}
	return nil
}

// FlexInt accepts 7 as well as "7".
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	*f = FlexInt(n)
	return nil
}

// NurseDetail is one staffing request from a coordinator.
type NurseDetail struct {
	NurseType              string  `json:"nurse_type"`
	Shift                  string  `json:"shift"`
	Date                   string  `json:"date"`
	AdditionalInstructions *string `json:"additional_instructions"`
}

// ShiftDetail identifies a shift to cancel. Nurses only send Date.
type ShiftDetail struct {
	NurseType string `json:"nurse_type"`
	Shift     string `json:"shift"`
	Date      string `json:"date"`
}

type InstructionUpdate struct {
	ID                     FlexInt `json:"id"`
	AdditionalInstructions string  `json:"additional_instructions"`
}

// ShiftInformation is a coordinator's question about existing shifts.
type ShiftInformation struct {
	Date      string `json:"date"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Shift     string `json:"shift"`
	NurseType string `json:"nurse_type"`
	Status    string `json:"status"`
}

func (s *ShiftInformation) Empty() bool {
	return s == nil || *s == ShiftInformation{}
}

// CoordinatorReply is the parsed intent of a coordinator message.
type CoordinatorReply struct {
	Message                 string                 `json:"message"`
	NurseDetails            OneOrMany[NurseDetail] `json:"nurse_details"`
	InstructionUpdateTarget *InstructionUpdate     `json:"instruction_update_target"`
	ShiftDetails            OneOrMany[ShiftDetail] `json:"shift_details"`
	ShiftIDs                OneOrMany[FlexInt]     `json:"shift_id"`
	Cancellation            bool                   `json:"cancellation"`
	FollowUp                bool                   `json:"follow_up"`
	NurseName               string                 `json:"nurse_name"`
	FollowUpMessage         string                 `json:"follow_up_message"`
	ShiftInformation        *ShiftInformation      `json:"shift_information"`
}

// NurseReply is the parsed intent of a nurse message. Shift maps a facility
// name to one or more dates.
type NurseReply struct {
	Message            string                       `json:"message"`
	Confirmation       bool                         `json:"confirmation"`
	FacilityNames      OneOrMany[string]            `json:"facility_name"`
	Shift              map[string]OneOrMany[string] `json:"shift"`
	ShiftDetails       OneOrMany[ShiftDetail]       `json:"shift_details"`
	Cancellation       bool                         `json:"cancellation"`
	FollowUpReply      bool                         `json:"follow_up_reply"`
	CoordinatorMessage string                       `json:"coordinator_message"`
}

type messageReply struct {
	Message string `json:"message"`
}

// stripFences removes a surrounding ``` or ```json markdown block.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.ReplaceAll(strings.ReplaceAll(s, "```json", ""), "```", "")
	case strings.HasPrefix(s, "```"):
		s = strings.ReplaceAll(s, "```", "")
	}
	return strings.TrimSpace(s)
}

func decode(raw string, v any) error {
	if err := json.Unmarshal([]byte(stripFences(raw)), v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	return nil
}

func ParseCoordinatorReply(raw string) (*CoordinatorReply, error) {
	var r CoordinatorReply
	if err := decode(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func ParseNurseReply(raw string) (*NurseReply, error) {
	var r NurseReply
	if err := decode(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ParseMessage extracts the "message" field of a drafted text.
func ParseMessage(raw string) (string, error) {
	var r messageReply
	if err := decode(raw, &r); err != nil {
		return "", err
	}
	if strings.TrimSpace(r.Message) == "" {
		return "", fmt.Errorf("%w: empty message", ErrBadReply)
	}
	return r.Message, nil
}
