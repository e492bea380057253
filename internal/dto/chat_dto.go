package dto

type ChatRequest struct {
	SessionID *string `json:"session_id" validate:"omitempty,uuid"`
	Message   string  `json:"message"    validate:"required,min=1,max=4000"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}
