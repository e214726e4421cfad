package models

// AdminFilter narrows the admin listing.
type AdminFilter struct {
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPage keeps (Page-1)*Limit well inside int.
	MaxPage = 1_000_000
)

// Normalize applies the paging defaults and bounds.
func (f AdminFilter) Normalize() AdminFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

// Offset is the number of rows to skip for the current page.
func (f AdminFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// AccountPage is one page of a listing.
type AccountPage struct {
	Data       []PublicAccount `json:"data"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

// NewAccountPage computes TotalPages as ceil(total/limit).
func NewAccountPage(data []PublicAccount, total int, f AdminFilter) AccountPage {
	if data == nil {
		data = []PublicAccount{}
	}
	pages := 0
	if f.Limit > 0 {
		pages = (total + f.Limit - 1) / f.Limit
	}
	return AccountPage{Data: data, Total: total, Page: f.Page, Limit: f.Limit, TotalPages: pages}
}
