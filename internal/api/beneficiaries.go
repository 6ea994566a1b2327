package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) GetBeneficiaries(ctx context.Context) ([]Beneficiary, error) {
	var list []Beneficiary
	if err := c.get(ctx, "/beneficiary", &list); err != nil {
		return nil, fmt.Errorf("fetching beneficiaries: %w", err)
	}
	return list, nil
}

func (c *Client) GetBeneficiary(ctx context.Context, id int) (*Beneficiary, error) {
	var b Beneficiary
	if err := c.get(ctx, fmt.Sprintf("/beneficiary/%d", id), &b); err != nil {
		return nil, fmt.Errorf("fetching beneficiary %d: %w", id, err)
	}
	return &b, nil
}

// CreateBeneficiary links the user identified by mobile number as a recipient.
func (c *Client) CreateBeneficiary(ctx context.Context, countryCode, mobile string) error {
	req := CreateBeneficiaryRequest{MobileCountryCode: countryCode, MobileNumber: mobile}
	if err := c.send(ctx, http.MethodPost, "/beneficiary", req); err != nil {
		return fmt.Errorf("adding beneficiary: %w", err)
	}
	return nil
}

// UpdateBeneficiary soft-deletes (deleted=true) or restores a beneficiary.
func (c *Client) UpdateBeneficiary(ctx context.Context, id int, deleted bool) error {
	req := UpdateBeneficiaryRequest{BeneficiaryID: id}
	if deleted {
		req.IsDeleted = 1
	}
	if err := c.send(ctx, http.MethodPut, "/beneficiary", req); err != nil {
		return fmt.Errorf("updating beneficiary %d: %w", id, err)
	}
	return nil
}
