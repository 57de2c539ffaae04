package handlers

import (
	"encoding/base64"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/penurwill/agent_network/services"
)

// 1x1 transparent GIF.
var pixelData, _ = base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")

func sendPixel(c *fiber.Ctx) error {
	c.Set("Content-Type", "image/gif")
	c.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Set("Pragma", "no-cache")
	c.Set("Expires", "0")
	c.Set("Access-Control-Allow-Origin", "*")
	c.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
	return c.Status(fiber.StatusOK).Send(pixelData)
}

func queryParam(c *fiber.Ctx, short, long string) string {
	if v := c.Query(short); v != "" {
		return v
	}
	return c.Query(long)
}

// TrackPixel records a visit from a cross-domain tracking pixel. It always
// answers the pixel regardless of tracking success so embedding pages never
// break; errors are logged only.
func TrackPixel(c *fiber.Ctx) error {
	code := queryParam(c, "rc", "referral_code")
	visitURL := queryParam(c, "url", "visit_url")

	visitTime := time.Now()
	if raw := queryParam(c, "t", "visit_time"); raw != "" {
		if parsed, err := parseVisitTime(raw); err == nil {
			visitTime = parsed
		}
	}

	if code == "" || visitURL == "" {
		return sendPixel(c)
	}

	ip, fallbackUA := requestMeta(c)
	userAgent := strOrNil(queryParam(c, "ua", "user_agent"))
	if userAgent == nil {
		userAgent = fallbackUA
	}

	_, _, err := services.TrackVisit(services.TrackVisitInput{
		ReferralCode:     code,
		VisitURL:         visitURL,
		VisitTime:        visitTime,
		ReferralPage:     strOrNil(queryParam(c, "ref", "referral_page")),
		SessionID:        strOrNil(queryParam(c, "sid", "session_id")),
		PageTitle:        strOrNil(queryParam(c, "title", "page_title")),
		IPAddress:        ip,
		UserAgent:        userAgent,
		ScreenResolution: strOrNil(queryParam(c, "sr", "screen_resolution")),
		Language:         strOrNil(queryParam(c, "lang", "language")),
		Timezone:         strOrNil(queryParam(c, "tz", "timezone")),
	})
	if err != nil {
		log.Printf("Tracking pixel error: %v", err)
	}

	return sendPixel(c)
}

func PixelPreflight(c *fiber.Ctx) error {
	c.Set("Access-Control-Allow-Origin", "*")
	c.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
	c.Set("Access-Control-Max-Age", "86400")
	return c.SendStatus(fiber.StatusOK)
}
