package auth

import "strings"

type uaPattern struct {
	needles []string
	name    string
}

// Order matters: Edge and Opera carry "Chrome/", Chrome carries "Safari/",
// iOS carries "Mac OS X" and Android carries "Linux".
var (
	browserPatterns = []uaPattern{
		{[]string{"Edg/", "Edge/"}, "Edge"},
		{[]string{"OPR/", "Opera"}, "Opera"},
		{[]string{"Firefox/", "FxiOS/"}, "Firefox"},
		{[]string{"Chrome/", "CriOS/"}, "Chrome"},
		{[]string{"Safari/"}, "Safari"},
	}
	osPatterns = []uaPattern{
		{[]string{"Windows"}, "Windows"},
		{[]string{"iPhone", "iPad", "iPod"}, "iOS"},
		{[]string{"Mac OS X", "Macintosh"}, "macOS"},
		{[]string{"Android"}, "Android"},
		{[]string{"CrOS"}, "ChromeOS"},
		{[]string{"Linux"}, "Linux"},
	}
)

func matchUA(ua string, patterns []uaPattern, fallback string) string {
	for _, p := range patterns {
		for _, n := range p.needles {
			if strings.Contains(ua, n) {
				return p.name
			}
		}
	}
	return fallback
}

// DeviceLabel derives a human-readable "<browser> on <os>" label from a user agent.
func DeviceLabel(userAgent string) string {
	browser := matchUA(userAgent, browserPatterns, "Unknown Device")
	os := matchUA(userAgent, osPatterns, "Unknown OS")
	return browser + " on " + os
}
