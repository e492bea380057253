package dto

// ExpiringFilter is bound from the query string of GET /v1/inventory/expiring.
type ExpiringFilter struct {
	Days int `form:"days,default=30" validate:"min=0,max=3650"`
}
