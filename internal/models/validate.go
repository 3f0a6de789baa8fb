package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate validates a character record.
func (c Character) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
	)
}

// Validate validates a location record.
func (l Location) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.ID, validation.Required),
		validation.Field(&l.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&l.Type, validation.Required,
			validation.In(LocationIndoor, LocationOutdoor, LocationVehicle, LocationAbstract)),
	)
}
