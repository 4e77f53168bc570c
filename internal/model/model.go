package model

import "time"

// LeaveTypeCasual is the only ledger leave type the console mutates.
const LeaveTypeCasual = "casual"

// TokenResponse is the body returned by the ledger token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	UserInfo     User   `json:"user_info"`
}

// User is the identity bound to a session. It is replaced wholesale on re-login.
type User struct {
	ID         int    `json:"id,omitempty"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	EmployeeID string `json:"employee_id"`
	Email      string `json:"email,omitempty"`
}

// LeaveRow is one employee line of the roster. EmployeeID is only unique within a page.
type LeaveRow struct {
	EmployeeID        string  `json:"employee_id"`
	EmployeeName      string  `json:"employee_name"`
	TotalLeaves       float64 `json:"total_leaves"`
	RemainingLeaves   float64 `json:"remaining_leaves"`
	LeaveTypesSummary string  `json:"leave_types"`
	LeaveDetailID     *int    `json:"leave_detail_id,omitempty"`
}

// RosterPage is one page of the combined leave listing plus the unpaginated total.
type RosterPage struct {
	Data  []LeaveRow `json:"data"`
	Total int        `json:"total"`
}

// QueryParams shapes a roster fetch. Page is 1-based.
type QueryParams struct {
	Year       int    `json:"year" validate:"gte=2000,lte=2100"`
	Month      int    `json:"month" validate:"gte=1,lte=12"`
	SearchText string `json:"search_text" validate:"max=100"`
	Page       int    `json:"page" validate:"gte=1"`
	PageSize   int    `json:"page_size" validate:"gte=1,lte=100"`
}

// Offset is the zero-based row offset of the page.
func (q QueryParams) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// MutationRequest is the remaining-leaves write sent to the ledger.
type MutationRequest struct {
	EmployeeID      string  `json:"employee_id"`
	Year            int     `json:"year"`
	LeaveType       string  `json:"leave_type"`
	TotalLeaves     float64 `json:"total_leaves"`
	RemainingLeaves float64 `json:"remaining_leaves"`
	LeaveDetailID   *int    `json:"leave_detail_id,omitempty"`
}

// MutationResponse is the ledger's view of the record after a write.
type MutationResponse struct {
	ID              int     `json:"id"`
	LeaveDetailID   int     `json:"leave_detail_id"`
	TotalLeaves     float64 `json:"total_leaves"`
	RemainingLeaves float64 `json:"remaining_leaves"`
	Year            int     `json:"year"`
}

// Profile is the editable employee profile.
type Profile struct {
	EmployeeID           string  `json:"employee_id" validate:"required"`
	Name                 string  `json:"name" validate:"required"`
	Address              string  `json:"address"`
	Designation          string  `json:"designation"`
	Role                 string  `json:"role"`
	Status               string  `json:"status"`
	Email                string  `json:"email" validate:"required,email"`
	ManagerID            string  `json:"manager_id"`
	ProfileImage         *string `json:"profile_image"`
	Gender               *string `json:"gender"`
	BloodType            *string `json:"blood_type"`
	HeadquartersAddress  *string `json:"headquarters_address"`
	OfficeLocations      *string `json:"office_locations"`
	PhoneNumber          *string `json:"phone_number"`
	SocialLinks          *string `json:"social_links"`
	Specializations      *string `json:"specializations"`
	ProductsServices     *string `json:"products_services"`
	ClientsPartners      *string `json:"clients_partners"`
	CertificationsAwards *string `json:"certifications_awards"`
	TechStack            *string `json:"tech_stack"`
	Executives           *string `json:"executives"`
	OpenSourceLinks      *string `json:"open_source_links"`
	EventsHosted         *string `json:"events_hosted"`
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a user-facing outcome of an action.
type Notification struct {
	Level   Level     `json:"severity"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}
