package dto

// VoteRequest is the body of POST /polls/{id}/vote.
type VoteRequest struct {
	OptionID string `json:"option_id" validate:"required"`
}

// VoteResponse acknowledges a recorded ballot.
type VoteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
