package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/accountdb"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

func (s *Service) ListDevices(ctx context.Context, userID string) ([]types.Device, error) {
	devices, err := s.store.Devices(ctx, userID)
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []types.Device{}
	}
	return devices, nil
}

func (s *Service) CreateDevice(ctx context.Context, userID string, in DeviceInput) (types.Device, error) {
	d, err := applyInput(types.Device{UserID: userID, IsActive: true}, in)
	if err != nil {
		return types.Device{}, err
	}
	d.CreatedAt = s.now()
	if err := s.store.CreateDevice(ctx, &d); err != nil {
		return types.Device{}, err
	}
	return d, nil
}

// UpdateDevice replaces the client-controlled fields of a device the user owns.
func (s *Service) UpdateDevice(ctx context.Context, userID string, id types.DeviceID, in DeviceInput) (types.Device, error) {
	current, err := s.deviceByID(ctx, userID, id)
	if err != nil {
		return types.Device{}, err
	}
	d, err := applyInput(current, in)
	if err != nil {
		return types.Device{}, err
	}
	if err := s.store.UpdateDevice(ctx, d); err != nil {
		if errors.Is(err, accountdb.ErrNotFound) {
			return types.Device{}, ErrDeviceNotFound
		}
		return types.Device{}, err
	}
	return d, nil
}

// DeleteDevice removes the device and all of its readings.
func (s *Service) DeleteDevice(ctx context.Context, userID string, id types.DeviceID) error {
	if err := s.store.DeleteDevice(ctx, userID, id); err != nil {
		if errors.Is(err, accountdb.ErrNotFound) {
			return ErrDeviceNotFound
		}
		return err
	}
	removed, err := s.readings.DeleteDeviceReadings(ctx, id)
	if err != nil {
		return fmt.Errorf("purging readings of %s: %w", id, err)
	}
	s.logger.Info("Deleted device", zap.String("device_id", string(id)), zap.Int64("readings_removed", removed))
	return nil
}

func (s *Service) deviceByID(ctx context.Context, userID string, id types.DeviceID) (types.Device, error) {
	d, err := s.store.DeviceByID(ctx, userID, id)
	if errors.Is(err, accountdb.ErrNotFound) {
		return types.Device{}, ErrDeviceNotFound
	}
	return d, err
}

func applyInput(d types.Device, in DeviceInput) (types.Device, error) {
	typ, err := types.ParseDeviceType(in.Type)
	if err != nil {
		return types.Device{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	loc, err := types.ParseLocation(in.Location)
	if err != nil {
		return types.Device{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	d.Name = strings.TrimSpace(in.Name)
	d.Type = typ
	d.Location = loc
	d.Wattage = in.Wattage
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}
	if err := d.Validate(); err != nil {
		return types.Device{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return d, nil
}
