package checker

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// CountryLookup resolves an IP address to an ISO country code.
type CountryLookup interface {
	Country(ip string) (string, error)
	Close() error
}

type noopLookup struct{}

func (noopLookup) Country(string) (string, error) { return "", nil }
func (noopLookup) Close() error                   { return nil }

type geoipLookup struct {
	reader *geoip2.Reader
}

// OpenCountryLookup opens a GeoLite2/GeoIP2 Country database. An empty path
// disables lookups.
func OpenCountryLookup(path string) (CountryLookup, error) {
	if path == "" {
		return noopLookup{}, nil
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open country DB at %s: %w", path, err)
	}
	return &geoipLookup{reader: reader}, nil
}

func (g *geoipLookup) Country(ipStr string) (string, error) {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "", fmt.Errorf("invalid ip: %s", ipStr)
	}

	record, err := g.reader.Country(ip)
	if err != nil {
		return "", fmt.Errorf("country lookup failed: %w", err)
	}
	return record.Country.IsoCode, nil
}

func (g *geoipLookup) Close() error {
	return g.reader.Close()
}
