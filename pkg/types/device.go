package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDevice = errors.New("invalid device")

type DeviceType string

const (
	DeviceAC             DeviceType = "AC"
	DeviceFridge         DeviceType = "Fridge"
	DeviceTV             DeviceType = "TV"
	DeviceWashingMachine DeviceType = "WashingMachine"
	DeviceGeyser         DeviceType = "Geyser"
	DeviceCeilingFan     DeviceType = "CeilingFan"
	DeviceWiFiRouter     DeviceType = "WiFiRouter"
	DeviceLights         DeviceType = "Lights"
	DeviceHeater         DeviceType = "Heater"
	DeviceOther          DeviceType = "Other"
)

var deviceTypes = []DeviceType{
	DeviceAC, DeviceFridge, DeviceTV, DeviceWashingMachine, DeviceGeyser,
	DeviceCeilingFan, DeviceWiFiRouter, DeviceLights, DeviceHeater, DeviceOther,
}

type Location string

const (
	LocationLivingRoom Location = "Living Room"
	LocationBedroom    Location = "Bedroom"
	LocationKitchen    Location = "Kitchen"
	LocationBathroom   Location = "Bathroom"
	LocationBalcony    Location = "Balcony"
	LocationOther      Location = "Other"
)

var locations = []Location{
	LocationLivingRoom, LocationBedroom, LocationKitchen,
	LocationBathroom, LocationBalcony, LocationOther,
}

// Device is a registered appliance owned by one user.
type Device struct {
	ID        DeviceID   `json:"id"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Type      DeviceType `json:"type"`
	Wattage   float64    `json:"wattage"`
	Location  Location   `json:"location"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ParseDeviceType matches case-insensitively and ignores spaces,
// so "Washing Machine" resolves to WashingMachine.
func ParseDeviceType(s string) (DeviceType, error) {
	want := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	for _, t := range deviceTypes {
		if strings.EqualFold(string(t), want) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidDevice, s)
}

// ParseLocation defaults to the living room when s is empty.
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LocationLivingRoom, nil
	}
	for _, l := range locations {
		if strings.EqualFold(string(l), s) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: unknown location %q", ErrInvalidDevice, s)
}

// Validate checks the fields a client controls.
func (d Device) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDevice)
	}
	if d.Wattage <= 0 {
		return fmt.Errorf("%w: wattage must be positive", ErrInvalidDevice)
	}
	if _, err := ParseDeviceType(string(d.Type)); err != nil {
		return err
	}
	if _, err := ParseLocation(string(d.Location)); err != nil {
		return err
	}
	return nil
}

// User is an account. PasswordHash and the pending OTP never leave the server.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	PasswordHash string     `json:"-"`
	Verified     bool       `json:"isVerified"`
	OTP          string     `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
}
