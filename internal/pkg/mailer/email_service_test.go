package mailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderBody(t *testing.T) {
	s := &emailService{frontendURL: "https://app.example.com"}

	body := s.renderBody("Cleaner running late", "Arriving <20 minutes> late", "/reservations/42")
	assert.Contains(t, body, "Cleaner running late")
	assert.Contains(t, body, "Arriving &lt;20 minutes&gt; late")
	assert.Contains(t, body, `href="https://app.example.com/reservations/42"`)

	body = s.renderBody("Cancelled", "Your booking was cancelled", "")
	assert.NotContains(t, body, "href")
}
