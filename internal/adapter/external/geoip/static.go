package geoip

import (
	"fmt"
	"net/netip"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Riesling1623/honeydash/internal/entity"
)

// StaticEntry pins a location to an IP without asking the provider
type StaticEntry struct {
	IP                 string `yaml:"ip"`
	entity.GeoLocation `yaml:",inline"`
}

// StaticTable is an ordered list of pinned locations. Order matters for
// private address mapping.
type StaticTable []StaticEntry

func coord(v float64) *float64 { return &v }

// DefaultStaticTable returns the built-in table of well known resolver addresses
func DefaultStaticTable() StaticTable {
	return StaticTable{
		{"8.8.8.8", entity.GeoLocation{Country: "United States", CountryCode: "US", City: "Mountain View", Region: "California", Latitude: coord(37.4056), Longitude: coord(-122.0775), ISP: "Google LLC", Timezone: "America/Los_Angeles"}},
		{"1.1.1.1", entity.GeoLocation{Country: "Australia", CountryCode: "AU", City: "Sydney", Region: "New South Wales", Latitude: coord(-33.8688), Longitude: coord(151.2093), ISP: "Cloudflare Inc", Timezone: "Australia/Sydney"}},
		{"208.67.222.222", entity.GeoLocation{Country: "United States", CountryCode: "US", City: "San Francisco", Region: "California", Latitude: coord(37.7749), Longitude: coord(-122.4194), ISP: "OpenDNS LLC", Timezone: "America/Los_Angeles"}},
		{"185.228.168.9", entity.GeoLocation{Country: "Russia", CountryCode: "RU", City: "Moscow", Region: "Moscow", Latitude: coord(55.7558), Longitude: coord(37.6176), ISP: "Yandex LLC", Timezone: "Europe/Moscow"}},
		{"114.114.114.114", entity.GeoLocation{Country: "China", CountryCode: "CN", City: "Beijing", Region: "Beijing", Latitude: coord(39.9042), Longitude: coord(116.4074), ISP: "China Telecom", Timezone: "Asia/Shanghai"}},
		{"203.0.113.1", entity.GeoLocation{Country: "Japan", CountryCode: "JP", City: "Tokyo", Region: "Tokyo", Latitude: coord(35.6762), Longitude: coord(139.6503), ISP: "NTT Communications", Timezone: "Asia/Tokyo"}},
		{"80.80.80.80", entity.GeoLocation{Country: "Germany", CountryCode: "DE", City: "Berlin", Region: "Berlin", Latitude: coord(52.5200), Longitude: coord(13.4050), ISP: "Deutsche Telekom", Timezone: "Europe/Berlin"}},
		{"9.9.9.9", entity.GeoLocation{Country: "United Kingdom", CountryCode: "GB", City: "London", Region: "England", Latitude: coord(51.5074), Longitude: coord(-0.1278), ISP: "Quad9", Timezone: "Europe/London"}},
		{"208.67.220.220", entity.GeoLocation{Country: "Canada", CountryCode: "CA", City: "Toronto", Region: "Ontario", Latitude: coord(43.6532), Longitude: coord(-79.3832), ISP: "Rogers Communications", Timezone: "America/Toronto"}},
		{"77.88.8.8", entity.GeoLocation{Country: "France", CountryCode: "FR", City: "Paris", Region: "Île-de-France", Latitude: coord(48.8566), Longitude: coord(2.3522), ISP: "Orange S.A.", Timezone: "Europe/Paris"}},
	}
}

// LoadStaticTable reads a YAML list of entries from path
func LoadStaticTable(path string) (StaticTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read static geo table: %w", err)
	}

	var table StaticTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse static geo table %s: %w", path, err)
	}
	for i, e := range table {
		if e.IP == "" {
			return nil, fmt.Errorf("static geo table %s: entry %d has no ip", path, i)
		}
	}
	return table, nil
}

// Find returns the pinned location of ip
func (t StaticTable) Find(ip string) (*entity.GeoLocation, bool) {
	for i := range t {
		if t[i].IP == ip {
			geo := t[i].GeoLocation
			return &geo, true
		}
	}
	return nil, false
}

// MapPrivate picks a table entry for a private or loopback address so lab
// traffic still shows up on the map. The last IPv4 octet selects the entry.
func (t StaticTable) MapPrivate(ip string) (*entity.GeoLocation, bool) {
	if len(t) == 0 || !IsPrivate(ip) {
		return nil, false
	}

	index := 1
	if addr, err := netip.ParseAddr(ip); err == nil && addr.Unmap().Is4() {
		b := addr.Unmap().As4()
		index = int(b[3])
	}

	geo := t[index%len(t)].GeoLocation
	return &geo, true
}

// IsPrivate reports whether ip is a private, loopback or localhost address
func IsPrivate(ip string) bool {
	if strings.EqualFold(ip, "localhost") {
		return true
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return addr.IsPrivate() || addr.IsLoopback()
}
