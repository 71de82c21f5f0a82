package services

import (
	"strings"

	"github.com/google/uuid"

	"ipscope/internal/domain/models"
)

// MockGenerator produces deterministic synthetic analyses for offline
// development and demos. The same IP string always yields the same output:
// every varying field is drawn from one linear-congruential stream seeded
// from the IP's bytes, and the detection set is computed by the real
// classifier over the synthetic signal. It is only used when no live
// provider produced a report.
type MockGenerator struct {
	classifier *Classifier
}

// NewMockGenerator creates a MockGenerator backed by the given classifier.
func NewMockGenerator(classifier *Classifier) *MockGenerator {
	return &MockGenerator{classifier: classifier}
}

// mockLocale is a synthetic geolocation profile.
type mockLocale struct {
	country  string
	code     string
	city     string
	region   string
	timezone string
	lat      float64
	lon      float64
}

var mockLocales = []mockLocale{
	{"United States", "US", "Ashburn", "Virginia", "America/New_York", 39.0438, -77.4874},
	{"United States", "US", "San Jose", "California", "America/Los_Angeles", 37.3382, -121.8863},
	{"Germany", "DE", "Frankfurt", "Hesse", "Europe/Berlin", 50.1109, 8.6821},
	{"Netherlands", "NL", "Amsterdam", "North Holland", "Europe/Amsterdam", 52.3676, 4.9041},
	{"United Kingdom", "GB", "London", "England", "Europe/London", 51.5072, -0.1276},
	{"France", "FR", "Paris", "Île-de-France", "Europe/Paris", 48.8566, 2.3522},
	{"Singapore", "SG", "Singapore", "Central", "Asia/Singapore", 1.3521, 103.8198},
	{"Japan", "JP", "Tokyo", "Kantō", "Asia/Tokyo", 35.6762, 139.6503},
	{"Brazil", "BR", "São Paulo", "São Paulo", "America/Sao_Paulo", -23.5505, -46.6333},
	{"Australia", "AU", "Sydney", "New South Wales", "Australia/Sydney", -33.8688, 151.2093},
}

// mockNetwork is a synthetic operator profile. The names are chosen so the
// classifier reproduces each profile's intended detection character.
type mockNetwork struct {
	org string
	isp string
	asn string
}

var mockNetworks = []mockNetwork{
	{"Comcast Cable Communications", "Comcast", "AS7922"},
	{"Deutsche Telekom AG", "Deutsche Telekom", "AS3320"},
	{"Vodafone GmbH", "Vodafone", "AS3209"},
	{"NordVPN International", "Tefincom S.A.", "AS136787"},
	{"ExpressVPN Services", "Express Technologies", "AS209103"},
	{"Amazon.com Inc.", "Amazon Technologies", "AS16509"},
	{"DigitalOcean LLC", "DigitalOcean", "AS14061"},
	{"Hetzner Online GmbH", "Hetzner", "AS24940"},
	{"M247 Europe SRL", "M247", "AS9009"},
	{"Orange S.A.", "Orange", "AS3215"},
	{"Telstra Corporation", "Telstra", "AS1221"},
	{"ProxyRack Networks", "ProxyRack", "AS62240"},
}

// mockStream is a linear-congruential generator (Numerical Recipes constants).
type mockStream struct {
	state uint32
}

// newMockStream seeds the stream from the sum of the IP's bytes.
func newMockStream(ip string) *mockStream {
	var sum uint32
	for i := 0; i < len(ip); i++ {
		sum += uint32(ip[i])
	}
	return &mockStream{state: sum}
}

func (s *mockStream) next() uint32 {
	s.state = s.state*1664525 + 1013904223
	return s.state
}

// intn returns a value in [0, n). Uses the high bits, which cycle better in
// an LCG than the low ones.
func (s *mockStream) intn(n int) int {
	return int((s.next() >> 16) % uint32(n))
}

// Generate builds the synthetic analysis for ip. AnalyzedAt is left zero for
// the caller to stamp; every other field is reproducible.
func (g *MockGenerator) Generate(ip string) *models.Analysis {
	stream := newMockStream(ip)

	network := mockNetworks[stream.intn(len(mockNetworks))]
	locale := mockLocales[stream.intn(len(mockLocales))]

	// Jitter coordinates within ~0.1 degree of the city center.
	lat := locale.lat + float64(stream.intn(200)-100)/1000.0
	lon := locale.lon + float64(stream.intn(200)-100)/1000.0

	signal := models.NormalizedSignal{
		Organization: strPtr(network.org),
		ISP:          strPtr(network.isp),
		ASN:          strPtr(network.asn),
		Country:      strPtr(locale.country),
		CountryCode:  strPtr(locale.code),
		City:         strPtr(locale.city),
		Region:       strPtr(locale.region),
		Timezone:     strPtr(locale.timezone),
		Latitude:     &lat,
		Longitude:    &lon,
	}

	// Roughly one in five synthetic IPs carries an abuse history.
	if stream.intn(5) == 0 {
		abuse := stream.intn(101)
		reports := stream.intn(12)
		signal.AbuseScore = &abuse
		signal.ReportCount = &reports
	}

	// Rare synthetic Tor exits.
	if stream.intn(25) == 0 {
		t := true
		signal.TorFlag = &t
	}

	return &models.Analysis{
		ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("ipscope:mock:"+ip)),
		IPAddress: ip,
		IPVersion: ipVersion(ip),
		Signal:    signal,
		Detection: g.classifier.Classify(signal, ip),
		Sources:   []string{"mock"},
	}
}

func ipVersion(ip string) int {
	if strings.Contains(ip, ":") {
		return 6
	}
	return 4
}

func strPtr(s string) *string {
	return &s
}
