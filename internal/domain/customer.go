package domain

// Customer is a registry entry correlated across the bank and telecom
// services by NationalID only. Both services keep their own copy; neither
// shares surrogate keys with the other.
type Customer struct {
	ID         int32  `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	NationalID string `json:"nationalId"`
}

type CustomerRepository interface {
	GetByNationalID(nationalID string) (*Customer, error)
}
