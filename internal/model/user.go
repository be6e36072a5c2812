package model

type Company struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ctime int64  `json:"ctime"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CompanyID string `json:"company_id,omitempty"`
	Ctime     int64  `json:"ctime"`
}
