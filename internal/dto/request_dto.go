package dto

type SaveAnswerRequest struct {
	QuestionID uint `json:"question_id" binding:"required"`
	ChoiceID   uint `json:"choice_id" binding:"required"`
}

type FlagQuestionRequest struct {
	QuestionID uint `json:"question_id" binding:"required"`
	Flagged    bool `json:"flagged"`
}

// TimingReportRequest is the client's claimed elapsed time, checked
// against the server's for the advisory anomaly signal.
type TimingReportRequest struct {
	ElapsedSeconds int64 `json:"elapsed_seconds" binding:"min=0"`
}

// TimestampEchoRequest is a previously issued secure timestamp echoed
// back for verification.
type TimestampEchoRequest struct {
	ServerTimeUnix int64  `json:"server_time_unix" binding:"required"`
	Hash           string `json:"hash" binding:"required"`
}
