package model

type Project struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	CompanyID   string `json:"company_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   *int64 `json:"start_date,omitempty"`
	EndDate     *int64 `json:"end_date,omitempty"`
	Ctime       int64  `json:"ctime"`
	Mtime       int64  `json:"mtime"`
}
