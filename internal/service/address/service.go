// Package address implements the address correction service over the USPS
// Web Tools API.
package address

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/model"
	"github.com/stefancrain/GeoApi/pkg/usps"
)

// Validator is the USPS client surface the service depends on.
type Validator interface {
	Validate(ctx context.Context, addrs []*model.Address) ([]usps.Validation, error)
	CityState(ctx context.Context, zip5 string) (city, state string, err error)
	ZipLookup(ctx context.Context, addr *model.Address) (zip5, zip4 string, err error)
	Available() bool
}

// Service corrects and completes addresses.
type Service struct {
	usps Validator
}

// New creates an address Service.
func New(v Validator) *Service {
	return &Service{usps: v}
}

// Validate corrects a single address against the USPS database.
func (s *Service) Validate(ctx context.Context, addr *model.Address) *model.AddressResult {
	results := s.ValidateBatch(ctx, []*model.Address{addr})
	return results[0]
}

// ValidateBatch corrects a batch of addresses, preserving input order. A
// USPS outage degrades every slot to NO_ADDRESS_VALIDATE_RESULT with the
// original address untouched, never an empty slice.
func (s *Service) ValidateBatch(ctx context.Context, addrs []*model.Address) []*model.AddressResult {
	out := make([]*model.AddressResult, len(addrs))
	now := time.Now()
	for i := range out {
		out[i] = &model.AddressResult{
			Address:   addrs[i],
			Source:    "usps",
			Status:    model.StatusNoAddressValidateResult,
			Timestamp: now,
		}
	}

	var toValidate []*model.Address
	var slots []int
	for i, a := range addrs {
		if a == nil || !a.Valid() {
			out[i].Status = model.StatusMissingAddress
			continue
		}
		toValidate = append(toValidate, a)
		slots = append(slots, i)
	}
	if len(toValidate) == 0 || !s.usps.Available() {
		return out
	}

	validations, err := s.usps.Validate(ctx, toValidate)
	if err != nil {
		zap.L().Warn("address: usps validate failed", zap.Error(err))
		return out
	}
	for j, v := range validations {
		i := slots[j]
		if !v.Validated {
			if v.Error != "" {
				out[i].Messages = append(out[i].Messages, v.Error)
			}
			continue
		}
		v.Address.Parsed = addrs[i].Parsed
		out[i].Address = v.Address
		out[i].Validated = true
		out[i].Status = model.StatusSuccess
		if v.Footnotes != "" {
			out[i].Messages = append(out[i].Messages, v.Footnotes)
		}
	}
	return out
}

// CityState resolves the city and state for a zip code.
func (s *Service) CityState(ctx context.Context, zip5 string) *model.AddressResult {
	result := &model.AddressResult{
		Source:    "usps",
		Status:    model.StatusNoAddressValidateResult,
		Timestamp: time.Now(),
	}
	if len(zip5) != 5 {
		result.Status = model.StatusMissingInputParams
		return result
	}
	if !s.usps.Available() {
		return result
	}

	city, state, err := s.usps.CityState(ctx, zip5)
	if err != nil {
		zap.L().Warn("address: usps citystate failed", zap.Error(err))
		return result
	}
	if city == "" {
		return result
	}
	result.Address = &model.Address{City: city, State: state, Zip5: zip5}
	result.Validated = true
	result.Status = model.StatusSuccess
	return result
}

// ZipLookup completes the zip5/zip4 for a street address.
func (s *Service) ZipLookup(ctx context.Context, addr *model.Address) *model.AddressResult {
	result := &model.AddressResult{
		Address:   addr,
		Source:    "usps",
		Status:    model.StatusNoAddressValidateResult,
		Timestamp: time.Now(),
	}
	if addr == nil || addr.Addr1 == "" || addr.City == "" {
		result.Status = model.StatusInsufficientAddress
		return result
	}
	if !s.usps.Available() {
		return result
	}

	zip5, zip4, err := s.usps.ZipLookup(ctx, addr)
	if err != nil {
		zap.L().Warn("address: usps ziplookup failed", zap.Error(err))
		return result
	}
	if zip5 == "" {
		return result
	}
	completed := *addr
	completed.Zip5 = zip5
	completed.Zip4 = zip4
	result.Address = &completed
	result.Validated = true
	result.Status = model.StatusSuccess
	return result
}
