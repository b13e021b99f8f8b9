package render

import (
	"net/url"
	"strings"
)

// Search links are always constructed from recognized entity names. The
// model may name parts and repair tasks, but it never supplies a URL that
// survives rendering.

// YouTubeSearchURL builds a tutorial search for a repair task.
func YouTubeSearchURL(task, applianceType string) string {
	query := joinTerms(task, applianceType, "repair")
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
}

// AmazonSearchURL builds a part search from the part name, OEM number, and
// appliance type.
func AmazonSearchURL(partName, oem, applianceType string) string {
	query := joinTerms(oem, partName, applianceType)
	return "https://www.amazon.com/s?k=" + url.QueryEscape(query)
}

// RepairClinicSearchURL builds a part search, preferring the OEM number.
func RepairClinicSearchURL(partName, oem string) string {
	query := oem
	if strings.TrimSpace(query) == "" {
		query = partName
	}
	return "https://www.repairclinic.com/SearchResults?q=" + url.QueryEscape(strings.TrimSpace(query))
}

func joinTerms(terms ...string) string {
	var kept []string
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term != "" {
			kept = append(kept, term)
		}
	}
	return strings.Join(kept, " ")
}
