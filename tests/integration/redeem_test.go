//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// winCoupon drives a certain-win draw and returns the issued coupon id.
func winCoupon(t *testing.T, phone string) (userID, couponID int) {
	t.Helper()
	userID = createTestUser(t, phone)
	campaignID := createTestCampaign(t, []couponTypePayload{
		{Description: "always wins", Probability: 1.0},
	})

	resp := draw(t, userID, campaignID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result drawResult
	require.NoError(t, readJSONResponse(resp, &result))
	require.NotNil(t, result.MaybeCoupon)
	return userID, result.MaybeCoupon.ID
}

func TestRedeem_Success(t *testing.T) {
	cleanupAll(t)
	userID, couponID := winCoupon(t, "+852 2222 0001")

	resp, err := postJSON(formatURL("/redeem"), map[string]any{
		"coupon_id": couponID,
		"user_id":   userID,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var coupon struct {
		ID       int  `json:"id"`
		Redeemed bool `json:"redeemed"`
	}
	require.NoError(t, readJSONResponse(resp, &coupon))
	assert.Equal(t, couponID, coupon.ID)
	assert.True(t, coupon.Redeemed)
}

func TestRedeem_SecondAttemptConflicts(t *testing.T) {
	cleanupAll(t)
	userID, couponID := winCoupon(t, "+852 2222 0002")

	resp, err := postJSON(formatURL("/redeem"), map[string]any{
		"coupon_id": couponID,
		"user_id":   userID,
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = postJSON(formatURL("/redeem"), map[string]any{
		"coupon_id": couponID,
		"user_id":   userID,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body map[string]string
	require.NoError(t, readJSONResponse(resp, &body))
	assert.Equal(t, "Coupon not found, or it has already been redeemed", body["Conflict"])
}

func TestRedeem_UnknownCoupon(t *testing.T) {
	cleanupAll(t)
	userID := createTestUser(t, "+852 2222 0003")

	resp, err := postJSON(formatURL("/redeem"), map[string]any{
		"coupon_id": 999999,
		"user_id":   userID,
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "absent and already-redeemed are indistinguishable")
}
