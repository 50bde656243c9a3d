package types

// DiscussionAnswer is a child's response to a discussion prompt. MemoryID
// names the memory that owns the answer.
type DiscussionAnswer struct {
	ID         string `json:"id" validate:"required"`
	MemoryID   string `json:"memory_id,omitempty"`
	QuestionID string `json:"question_id" validate:"required"`
	Response   string `json:"response" validate:"required"`
	ChildAge   int    `json:"child_age" validate:"gte=0,lte=18"`
}

// NewDiscussionAnswer returns an answer with a fresh UUID v7 and no owner.
func NewDiscussionAnswer(questionID, response string, childAge int) DiscussionAnswer {
	return DiscussionAnswer{
		ID:         NewID(),
		QuestionID: questionID,
		Response:   response,
		ChildAge:   childAge,
	}
}
