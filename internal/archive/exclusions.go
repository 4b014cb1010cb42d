package archive

import (
	"strings"
)

// defaultExclusions lists export files that never carry anything an import
// can use. Matching is a case-insensitive substring test on the file name.
var defaultExclusions = []string{
	"location_history",
	"primary_location",
	"primary_public_location",
	"device_location",
	"timezone",
	"your_group_membership_activity",
	"group_interactions",
	"your_groups",
	"your_badges",
	"badges",
	"events.json",
	"your_event_responses",
	"event_invitations",
	"search_history",
	"ads_interests",
	"advertisers_using_your_activity",
	"advertisers_you've_interacted_with",
	"off-facebook_activity",
	"apps_and_websites",
	"your_topics",
	"recently_viewed",
	"recently_visited",
	"account_activity",
	"logins_and_logouts",
	"where_you're_logged_in",
	"login_protection_data",
	"browser_cookies",
	"ip_address_activity",
	"information_submitted_to_advertisers",
	"notifications",
	"pokes",
	"your_pages",
	"pages_you've_liked",
	"who_you've_followed",
	"polls",
	"fundraisers",
	"marketplace",
	"your_saved_items",
	"instant_games",
	"your_avatar",
	"language_and_locale",
	"camera_roll_controls",
}

// Exclusions returns a copy of the built-in denylist.
func Exclusions() []string {
	out := make([]string, len(defaultExclusions))
	copy(out, defaultExclusions)
	return out
}

// ExclusionReason returns the denylist entry matching name. Blank names are
// excluded with reason "empty filename".
func ExclusionReason(name string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return "empty filename", true
	}
	for _, entry := range defaultExclusions {
		if strings.Contains(lower, entry) {
			return entry, true
		}
	}
	return "", false
}

// IsExcluded reports whether the file should be skipped entirely.
func IsExcluded(name string) bool {
	_, excluded := ExclusionReason(name)
	return excluded
}

// FilterExcluded returns names with every excluded entry removed, keeping order.
func FilterExcluded(names []string) []string {
	kept := make([]string, 0, len(names))
	for _, name := range names {
		if !IsExcluded(name) {
			kept = append(kept, name)
		}
	}
	return kept
}
