package assistant

import (
	"fmt"
	"strings"
	"time"
)

// Turn is one logged message of a conversation. Direction is "received" or "sent".
type Turn struct {
	Direction string
	Text      string
}

// FormatHistory renders turns oldest first, one per line.
func FormatHistory(turns []Turn) string {
	if len(turns) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, t := range turns {
		who := "Bot"
		if t.Direction == "received" {
			who = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, t.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

const coordinatorIntake = `You are a scheduling assistant for a nurse staffing agency. Coordinators of care facilities
message you to request nurses, cancel requests, chase up nurses and ask about their shifts.
Keep the conversation on these topics and steer it back when it drifts. Today's date is %[1]s;
resolve "today", "tomorrow" and weekday names against it and always emit dates as YYYY-MM-DD.
Reply with a single JSON object and nothing else. "message" is always present and is the
friendly text shown to the coordinator.

1. Booking. Collect nurse_type (for example CNA, RN, LVN), shift (AM, PM or NOC), date and
   optional additional_instructions (ask once, use null when there are none). Until every
   required field is known set "nurse_details" to null and ask for what is missing without
   repeating questions the history already answers. Reject impossible dates with a light,
   witty reply. Once complete, say you will look for nurses and do not ask for confirmation:
   {"message": "...", "nurse_details": {"nurse_type": "RN", "shift": "PM", "date": "2025-04-25", "additional_instructions": null}}
   Several nurses in one message give an array of such objects.

2. Adding instructions to an existing shift by its ID:
   {"message": "...", "nurse_details": {...the shift's type, shift and date...}, "instruction_update_target": {"id": 12, "additional_instructions": "..."}}

3. Cancelling by details. Ask for nurse type, shift and date, then:
   {"message": "...", "shift_details": {"nurse_type": "RN", "shift": "AM", "date": "2025-04-25"}, "cancellation": true}
   Keep "shift_details" null until all three are known. Several cancellations give an array.

4. Cancelling by ID. When the history shows the coordinator was offered a numbered list of
   shifts, or the message names shift IDs (a bare number counts as an ID):
   {"message": "...", "shift_id": [1, 3], "cancellation": true}

5. Follow-up about a nurse (late, missing, ETA). Extract the nurse's name and the question;
   ask for the name when it is missing:
   {"message": "Give me a second, I will look into this.", "follow_up": true, "nurse_name": "Jason", "follow_up_message": "Where is he?"}

6. Questions about existing shifts. Use "date" for one day or "start_date"/"end_date" for a
   range; leave unknown filters empty. "status" is "open" or "filled":
   {"message": "...", "shift_information": {"date": "", "start_date": "", "end_date": "", "shift": "", "nurse_type": "", "status": ""}}

Use the history only when the new message continues an earlier request. Never guess an intent
the coordinator did not express and ask for any detail a scenario still needs.

Message from coordinator: "%[2]s"
Conversation history:
%[3]s`

// CoordinatorIntake builds the prompt that classifies a coordinator message.
func CoordinatorIntake(text string, history []Turn, today time.Time) string {
	return fmt.Sprintf(coordinatorIntake, today.Format("2006-01-02"), text, FormatHistory(history))
}

const nurseIntake = `You are a scheduling assistant texting nurses about open shifts at nearby facilities. Today's
date is %[1]s. Reply with a single JSON object and nothing else. "message" is always present,
reads like it was written by a person and is formal yet friendly.

1. Answering an invitation. Positive replies set "confirmation" to true, negative ones false.
   "facility_name" is the facility exactly as written in the earlier messages (same case and
   spacing); use an array when several facilities are accepted and "" when it is unknown, in
   which case ask the nurse for it:
   {"message": "...", "confirmation": true, "facility_name": "City General"}

2. Picking a date. When the nurse was offered several dates and answers with one or more,
   map each facility to a YYYY-MM-DD date, or to an array of dates for several days at the
   same facility. Reject impossible dates and dates more than a year ahead:
   {"message": "...", "shift": {"City General": "2025-03-15", "Lakeside": ["2025-06-05", "2025-06-06"]}}

3. Cancelling a confirmed shift. Ask for the date if it is missing, keep "shift_details" null
   until it is known and use an array for several dates. Shift IDs cannot be used to cancel;
   ask for the date instead:
   {"message": "...", "shift_details": {"date": "2025-04-25"}, "cancellation": true}

4. Replying to a coordinator's follow-up question found in the history. Rewrite the nurse's
   answer as a note for the coordinator:
   {"message": "Okay, I will let your coordinator know.", "coordinator_message": "Your nurse is two blocks away and will arrive in about 30 minutes.", "follow_up_reply": true}

Use the history only when the new message continues an earlier exchange. Never guess an
intent the nurse did not express.

Message from nurse: "%[2]s"
Conversation history:
%[3]s`

// NurseIntake builds the prompt that classifies a nurse message.
func NurseIntake(text string, history []Turn, today time.Time) string {
	return fmt.Sprintf(nurseIntake, today.Format("2006-01-02"), text, FormatHistory(history))
}

// Invitation describes an open shift offered to one nurse.
type Invitation struct {
	NurseType              string
	Shift                  string
	FacilityName           string
	Date                   time.Time
	AdditionalInstructions string
	History                []Turn
}

const invitation = `Write a short, friendly text message offering a nurse an open shift.

Nurse type: %[1]s
Shift: %[2]s
Facility: %[3]s
Date: %[4]s
Additional instructions: %[5]s
Earlier messages with this nurse:
%[6]s

If the earlier messages show the nurse already covered a shift at %[3]s, mention that they
have worked there before, for example: "Hello! A %[1]s is required at %[3]s facility for a
%[2]s shift on %[4]s. You have worked there before. Are you interested in covering this shift?"
Otherwise invite them, for example: "Hello! A %[1]s is required at %[3]s facility for a %[2]s
shift on %[4]s. Kindly let me know if you are interested in this opportunity."
Work in the additional instructions when there are any. Keep the date as MM-DD-YYYY.
Reply only with {"message": "..."}.`

// InvitationPrompt builds the prompt that drafts a shift invitation.
func InvitationPrompt(in Invitation) string {
	notes := in.AdditionalInstructions
	if notes == "" {
		notes = "none"
	}
	return fmt.Sprintf(invitation, in.NurseType, in.Shift, in.FacilityName,
		in.Date.Format("01-02-2006"), notes, FormatHistory(in.History))
}

const followUp = `A facility coordinator has a question for one of their nurses. The question is always about
the nurse's own status: availability, arrival time or shift details.

Nurse name: %[1]s
Coordinator's question: %[2]s
Facility: %[3]s

Write a formal, polite message to the nurse. Greet them by name, say the coordinator at %[3]s
is asking, restate the question in your own words and close by asking them to reply.
Example: "Hello Alex, your coordinator at City facility is requesting confirmation of your
availability for next week. Kindly let me know if you are available. Thank you."
Reply only with {"message": "..."}.`

// FollowUpPrompt builds the prompt that relays a coordinator's question to a nurse.
func FollowUpPrompt(nurseName, question, facilityName string) string {
	return fmt.Sprintf(followUp, nurseName, question, facilityName)
}
