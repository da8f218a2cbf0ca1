//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCampaign_ProbabilitySumExceedsOne(t *testing.T) {
	cleanupAll(t)

	resp, err := postJSON(formatURL("/campaign"), map[string]any{
		"coupon_types": []couponTypePayload{
			{Description: "10% off", Probability: 0.5},
			{Description: "free drink", Probability: 0.6},
		},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body map[string]string
	require.NoError(t, readJSONResponse(resp, &body))
	assert.Equal(t, "Sum of probabilities of coupon types in campaign exceed 1: 1.1", body["Conflict"])
}

func TestCreateCampaign_SumExactlyOneIsAccepted(t *testing.T) {
	cleanupAll(t)

	resp, err := postJSON(formatURL("/campaign"), map[string]any{
		"coupon_types": []couponTypePayload{
			{Description: "a", Probability: 0.5},
			{Description: "b", Probability: 0.5},
		},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestGetCampaign_ReturnsTypesWithQuotas(t *testing.T) {
	cleanupAll(t)

	total, daily := 100, 30
	id := createTestCampaign(t, []couponTypePayload{
		{Description: "10% off", Probability: 0.3, TotalQuota: &total, DailyQuota: &daily},
		{Description: "free drink", Probability: 0.2},
	})

	resp, err := httpClient.Get(formatURL(fmt.Sprintf("/campaign/%d", id)))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		CouponTypes []struct {
			Description  string  `json:"description"`
			Probability  float32 `json:"probability"`
			TotalQuota   *int    `json:"total_quota"`
			CurrentQuota *int    `json:"current_quota"`
		} `json:"coupon_types"`
	}
	require.NoError(t, readJSONResponse(resp, &body))
	require.Len(t, body.CouponTypes, 2)
	assert.Equal(t, "10% off", body.CouponTypes[0].Description)
	require.NotNil(t, body.CouponTypes[0].CurrentQuota)
	assert.Equal(t, 100, *body.CouponTypes[0].CurrentQuota)
	assert.Nil(t, body.CouponTypes[1].TotalQuota, "unlimited type stays null")
}

func TestGetCampaign_UnknownID(t *testing.T) {
	cleanupAll(t)

	resp, err := httpClient.Get(formatURL("/campaign/999999"))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, readJSONResponse(resp, &body))
	assert.Contains(t, body["NotFound"], "doesn't exist")
}
