package models

// RoleType defines the user role type
type RoleType string

const (
	RoleProducer RoleType = "producer"
	RoleRecycler RoleType = "recycler"
	RoleConsumer RoleType = "consumer"
	RoleExpert   RoleType = "expert"
	RoleAdmin    RoleType = "admin"
)

// Roles lists every role in display order
var Roles = []RoleType{RoleProducer, RoleRecycler, RoleConsumer, RoleExpert, RoleAdmin}

// IsValid reports whether r is one of the known roles
func (r RoleType) IsValid() bool {
	switch r {
	case RoleProducer, RoleRecycler, RoleConsumer, RoleExpert, RoleAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether users may pick the role at registration
func (r RoleType) SelfAssignable() bool {
	return r.IsValid() && r != RoleAdmin
}

// ListingType classifies marketplace listings
type ListingType string

const (
	ListingTypeWaste    ListingType = "waste"
	ListingTypeRecycled ListingType = "recycled"
)

// IsValid reports whether t is a known listing type
func (t ListingType) IsValid() bool {
	return t == ListingTypeWaste || t == ListingTypeRecycled
}
