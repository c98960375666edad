package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Frequency string  `json:"frequency" default:"weekly" validate:"oneof=daily weekly monthly"`
	Amount    float64 `json:"amount" default:"100" validate:"gt=0"`
	Start     string  `json:"start" validate:"omitempty,datetime=2006-01-02"`
}

func TestApplyDefaultsAndValidate(t *testing.T) {
	req := sampleRequest{}
	require.NoError(t, ApplyDefaultsAndValidate(&req))
	assert.Equal(t, "weekly", req.Frequency)
	assert.Equal(t, 100.0, req.Amount)

	bad := sampleRequest{Frequency: "hourly", Start: "01/02/2024"}
	err := ApplyDefaultsAndValidate(&bad)
	require.Error(t, err)

	errs := ValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "ERR_ONEOF", errs[0].Code)
	assert.Equal(t, "Frequency", errs[0].Field)
	assert.Equal(t, "ERR_DATETIME", errs[1].Code)
	assert.Equal(t, "2006-01-02", errs[1].Params["layout"])
}
