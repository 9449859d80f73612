package events

// KindFinalResponse identifies the terminal assistant answer for a turn.
const KindFinalResponse Kind = "turn_output.final_response"

// FinalResponse marks the terminal assistant answer for the turn.
type FinalResponse struct {
	Base
	Content string
}

func (r FinalResponse) String() string { return r.Content }

// NewFinalResponse creates a final response event.
func NewFinalResponse(content string) FinalResponse {
	return FinalResponse{Base: NewBase(KindFinalResponse), Content: content}
}
