package adlist

import "fmt"

// CatalogEntry describes a well-known adlist that configuration can refer to
// by ID instead of spelling out its URL and format.
type CatalogEntry struct {
	ID          string
	URL         string
	Format      Format
	Description string
}

// Catalog lists the built-in adlists.
var Catalog = map[string]CatalogEntry{
	"stevenblack": {
		ID:          "stevenblack",
		URL:         "https://raw.githubusercontent.com/StevenBlack/hosts/master/hosts",
		Format:      FormatHosts,
		Description: "Unified hosts file with base extensions.",
	},
	"stevenblack_porn": {
		ID:          "stevenblack_porn",
		URL:         "https://raw.githubusercontent.com/StevenBlack/hosts/master/alternates/porn-only/hosts",
		Format:      FormatHosts,
		Description: "Adult content list without ad/tracker blocking.",
	},
	"peter_lowe": {
		ID:          "peter_lowe",
		URL:         "https://pgl.yoyo.org/adservers/serverlist.php?hostformat=hosts&showintro=0&mimetype=plaintext",
		Format:      FormatHosts,
		Description: "Ad servers and trackers in hosts format.",
	},
	"blocklistproject_malware": {
		ID:          "blocklistproject_malware",
		URL:         "https://blocklistproject.github.io/Lists/alt-version/malware-nl.txt",
		Format:      FormatDomains,
		Description: "Hosts associated with malware distribution.",
	},
	"blocklistproject_phishing": {
		ID:          "blocklistproject_phishing",
		URL:         "https://blocklistproject.github.io/Lists/alt-version/phishing-nl.txt",
		Format:      FormatDomains,
		Description: "Hosts associated with phishing campaigns.",
	},
	"firebog_easyprivacy": {
		ID:          "firebog_easyprivacy",
		URL:         "https://v.firebog.net/hosts/Easyprivacy.txt",
		Format:      FormatDomains,
		Description: "Tracking domains.",
	},
	"oisd_small_dnsmasq": {
		ID:          "oisd_small_dnsmasq",
		URL:         "https://small.oisd.nl/dnsmasq2",
		Format:      FormatDnsmasq,
		Description: "Ad and tracker blocking list in dnsmasq syntax.",
	},
}

// FromCatalog returns the catalog adlist with the given ID.
func FromCatalog(id string) (Adlist, error) {
	entry, ok := Catalog[id]
	if !ok {
		return Adlist{}, fmt.Errorf("unknown catalog adlist %q", id)
	}
	return New(entry.URL, entry.Format)
}
