package model

import (
	"time"

	"gorm.io/datatypes"
)

type LiveRequestStatus string

const (
	LiveRequestStatusPending LiveRequestStatus = "PENDING"
	LiveRequestStatusActive  LiveRequestStatus = "ACTIVE"
	// LiveRequestStatusDone is terminal; nothing in the service sets it yet.
	LiveRequestStatusDone LiveRequestStatus = "DONE"
)

// Rating: рейтинг товара из каталога.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is the catalog snapshot taken when the customer requested the session.
type Product struct {
	ID          int     `json:"id" validate:"required,gt=0"`
	Title       string  `json:"title" validate:"required"`
	Price       float64 `json:"price,omitempty"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Image       string  `json:"image,omitempty"`
	Rating      *Rating `json:"rating,omitempty"`
}

type LiveVideoRequest struct {
	ID                           uint64                      `gorm:"primaryKey" json:"id"`
	UserEmail                    string                      `gorm:"type:varchar(254);not null" json:"user_email"`
	UserName                     string                      `gorm:"type:varchar(255);not null" json:"user_name"`
	UserDyteParticipantID        string                      `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_dyte_participant_id"`
	DyteMeetingID                string                      `gorm:"type:varchar(64);uniqueIndex;not null" json:"dyte_meeting_id"`
	SupportUserDyteParticipantID *string                     `gorm:"type:varchar(64)" json:"support_user_dyte_participant_id"`
	Status                       LiveRequestStatus           `gorm:"type:varchar(16);index;not null;default:PENDING" json:"status"`
	Feedback                     string                      `gorm:"type:text;not null;default:''" json:"feedback"`
	Product                      datatypes.JSONType[Product] `gorm:"not null" json:"product"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LiveVideoRequest) TableName() string { return "live_video_requests" }

// HasSupport сообщает, подключался ли уже оператор поддержки.
func (r *LiveVideoRequest) HasSupport() bool {
	return r.SupportUserDyteParticipantID != nil && *r.SupportUserDyteParticipantID != ""
}

// CreateLiveRequest is the request body for POST /live-requests/.
type CreateLiveRequest struct {
	UserName  string   `json:"user_name" validate:"required,max=255"`
	UserEmail string   `json:"user_email" validate:"required,email,max=254"`
	Product   *Product `json:"product" validate:"required"`
}

// AuthTokenResponse is returned by start and user-token.
type AuthTokenResponse struct {
	DyteAuthToken string `json:"dyte_auth_token"`
}
