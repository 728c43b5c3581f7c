package booking

type CreateBookingRequest struct {
	CourtID       int64    `json:"court_id" validate:"required,gt=0"`
	Dates         []string `json:"dates" validate:"required,min=1,dive,day"`
	StartTime     string   `json:"start_time" validate:"required,clock"`
	EndTime       string   `json:"end_time" validate:"required,clock"`
	TeamMemberIDs []int64  `json:"team_member_ids" validate:"omitempty,dive,gt=0"`
	IsPublic      bool     `json:"is_public"`
}

func (r CreateBookingRequest) toInput(ownerID int64) CreateBookingInput {
	return CreateBookingInput{
		OwnerID:       ownerID,
		CourtID:       r.CourtID,
		Dates:         r.Dates,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		TeamMemberIDs: r.TeamMemberIDs,
		IsPublic:      r.IsPublic,
	}
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type UpdatePaymentRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Status string `json:"status" validate:"required,oneof=unpaid paid refunded"`
}
