package emails

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "Validation of your antiquity", KindListingValidated.Subject())
	assert.Equal(t, "You received a payment", KindCommissionPaid.Subject())
	assert.Equal(t, "", Kind(99).Subject())
}

func TestContent_ListingValidated(t *testing.T) {
	html, err := content(KindListingValidated, Payload{
		"title": "Louis XV chair", "description": "Walnut, 1760", "price": "120.00",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Louis XV chair")
	assert.Contains(t, html, "120.00")
}

func TestContent_CommissionApplied(t *testing.T) {
	html, err := content(KindCommissionApplied, Payload{
		"title": "Clock", "description": "Mantel clock", "price": "120",
	})
	require.NoError(t, err)
	// 120 includes the 20% commission over a 100 base.
	assert.Contains(t, html, "20.00")
}

func TestContent_CommissionPaid(t *testing.T) {
	html, err := content(KindCommissionPaid, Payload{
		"title": "Clock", "description": "Mantel clock", "price": "100",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "20.00")
}

func TestContent_RejectedIncludesNotes(t *testing.T) {
	html, err := content(KindListingRejected, Payload{
		"title": "Vase", "description": "Ming style", "price": "50.00",
		"note_title": "Misleading title", "note_description": "Too vague",
		"note_price": "Overpriced", "note_photo": "Blurry",
	})
	require.NoError(t, err)
	for _, note := range []string{"Misleading title", "Too vague", "Overpriced", "Blurry"} {
		assert.Contains(t, html, note)
	}
}

func TestContent_BadPrice(t *testing.T) {
	_, err := content(KindCommissionApplied, Payload{"price": "not-a-price"})
	require.Error(t, err)
}

func TestContent_EscapesHTML(t *testing.T) {
	html, err := content(KindNewListing, Payload{
		"title": `<script>alert("x")</script>`, "description": "d", "price": "1.00",
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestEmailLayout_WrapsContent(t *testing.T) {
	out := EmailLayout("<h1>Hello</h1>")
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<h1>Hello</h1>")
	assert.Contains(t, out, "Anticair'App")
}

func TestBrevoClient_NoKeyIsNoop(t *testing.T) {
	c := &BrevoClient{}
	err := c.Send(context.Background(), "someone@anticair.be", KindDataDeleted, nil)
	assert.NoError(t, err)
}
