package customer

import (
	"github.com/flexprice/billsync/internal/types"
)

// Address is a postal address owned by a customer
type Address struct {
	ID              string `json:"id"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Company         string `json:"company,omitempty"`
	StreetAddress   string `json:"street_address"`
	ExtendedAddress string `json:"extended_address,omitempty"`
	Locality        string `json:"locality"`
	Region          string `json:"region,omitempty"`
	PostalCode      string `json:"postal_code"`
	// CountryCode is ISO 3166-1 alpha-2
	CountryCode string `json:"country_code"`

	Link types.ProcessorLink `json:"processor"`
}

func NewAddress() *Address {
	return &Address{
		ID:   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ADDRESS),
		Link: types.NewProcessorLink(),
	}
}

// AddressSnapshot holds the tracked fields of an address.
type AddressSnapshot struct {
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Company         string `json:"company,omitempty"`
	StreetAddress   string `json:"street_address"`
	ExtendedAddress string `json:"extended_address,omitempty"`
	Locality        string `json:"locality"`
	Region          string `json:"region,omitempty"`
	PostalCode      string `json:"postal_code"`
	CountryCode     string `json:"country_code"`
}

func (a *Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Company:         a.Company,
		StreetAddress:   a.StreetAddress,
		ExtendedAddress: a.ExtendedAddress,
		Locality:        a.Locality,
		Region:          a.Region,
		PostalCode:      a.PostalCode,
		CountryCode:     a.CountryCode,
	}
}
