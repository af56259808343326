package device

import (
	"strings"

	"github.com/lone-faerie/smsgateway/log"
)

// HuaweiVendorID is the USB vendor id of Huawei.
const HuaweiVendorID = "12d1"

// huaweiPatterns are matched against the model and product of a device.
var huaweiPatterns = []string{
	"e3276", "e3131", "e3372", "e3531", "e353", "e173",
	"huawei", "mobile_connect", "mobile connect",
}

// IsHuawei reports whether info looks like a Huawei modem. The by-id path
// is checked first, then the vendor id, the manufacturer and finally the
// model and product against known modem names.
func IsHuawei(info *Info) bool {
	if strings.Contains(strings.ToLower(info.ByIDPath), "huawei") {
		return true
	}
	if strings.EqualFold(info.Vendor, HuaweiVendorID) {
		return true
	}
	if strings.Contains(strings.ToLower(info.Manufacturer), "huawei") {
		return true
	}

	model, product := strings.ToLower(info.Model), strings.ToLower(info.Product)
	for _, p := range huaweiPatterns {
		if strings.Contains(model, p) || strings.Contains(product, p) {
			return true
		}
	}
	return false
}

// Reasons reported by [Select].
const (
	ReasonConfigured = "user-configured in add-on options"
	ReasonNone       = "no devices found"
	ReasonSingle     = "single device auto-detected"
	ReasonHuawei     = "Huawei modem selected from multiple devices"
	ReasonAmbiguous  = "multiple non-Huawei devices, manual config required"
)

// A Selection is the outcome of [Select]. Path is empty when no device
// could be chosen.
type Selection struct {
	Path   string
	Reason string
	// Info is the selected device, if it was discovered.
	Info *Info
}

// Select chooses the device to use. A configured device always wins. With
// nothing configured a single discovered device is used, and among several
// the first Huawei modem is used by its by-id path when it has one.
func Select(configured string, infos []Info) Selection {
	switch {
	case configured != "":
		sel := Selection{Path: configured, Reason: ReasonConfigured}
		for i := range infos {
			if infos[i].Matches(configured) {
				sel.Info = &infos[i]
				break
			}
		}
		return sel
	case len(infos) == 0:
		return Selection{Reason: ReasonNone}
	case len(infos) == 1:
		return Selection{Path: infos[0].Path, Reason: ReasonSingle, Info: &infos[0]}
	}

	for i := range infos {
		if IsHuawei(&infos[i]) {
			log.Debug("Huawei device found", "path", infos[i].Path, "vendor", infos[i].Vendor, "model", infos[i].Model)
			return Selection{Path: infos[i].Preferred(), Reason: ReasonHuawei, Info: &infos[i]}
		}
	}
	return Selection{Reason: ReasonAmbiguous}
}
