package services

// Static name lists for the classifier. These are configuration data, matched
// case-insensitively as substrings of an IP's organization/ISP strings, and
// can be overridden through config.ScoringConfig.

// defaultVPNProviders are consumer VPN brands. The matched entry becomes the
// reported vpn_provider.
var defaultVPNProviders = []string{
	"NordVPN",
	"ExpressVPN",
	"Surfshark",
	"CyberGhost",
	"Private Internet Access",
	"ProtonVPN",
	"Mullvad",
	"TorGuard",
	"IPVanish",
	"Windscribe",
	"Hide.me",
	"TunnelBear",
	"PureVPN",
	"VyprVPN",
	"Hotspot Shield",
	"Atlas VPN",
	"Ivacy",
}

// defaultVPNHostingProviders are hosting companies whose address space is
// predominantly leased to commercial VPN services. A match here counts as a
// VPN detection, not just a datacenter one.
var defaultVPNHostingProviders = []string{
	"M247",
	"Datacamp",
	"Packethub",
	"Clouvider",
	"HostRoyale",
	"Creanova",
	"xTom",
	"Perfect Quality Hosting",
}

// defaultHostingProviders are general cloud/hosting networks. A match flags
// the IP as datacenter space.
var defaultHostingProviders = []string{
	"Amazon",
	"AWS",
	"Google Cloud",
	"Google LLC",
	"Microsoft Azure",
	"Microsoft Corporation",
	"DigitalOcean",
	"Linode",
	"Akamai",
	"Vultr",
	"Choopa",
	"OVH",
	"Hetzner",
	"Contabo",
	"Scaleway",
	"LeaseWeb",
	"Alibaba",
	"Tencent",
	"Oracle Cloud",
	"Fly.io",
	"M247",
	"Datacamp",
	"Clouvider",
}
