package domain

type Address struct {
	ID            int64  `json:"id"`
	RecipientName string `json:"name"`
	Phone         string `json:"phone"`
	Province      string `json:"province"`
	City          string `json:"city"`
	District      string `json:"district"`
	Detail        string `json:"detail"`
	IsDefault     bool   `json:"is_default"`
}

// FullText joins the region parts and the street detail for display.
func (a Address) FullText() string {
	return a.Province + a.City + a.District + a.Detail
}
