package device

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/lone-faerie/smsgateway/internal/file"
	"github.com/lone-faerie/smsgateway/log"
)

// Info describes a discovered serial device. Fields that could not be read
// are left empty.
type Info struct {
	Path         string `json:"path"`
	ByIDPath     string `json:"by_id_path,omitempty"`
	Vendor       string `json:"vendor,omitempty"`
	Product      string `json:"product,omitempty"`
	Model        string `json:"model,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Serial       string `json:"serial,omitempty"`
}

// Preferred returns the by-id path if known, since it survives
// re-enumeration, and the device path otherwise.
func (i *Info) Preferred() string {
	if i.ByIDPath != "" {
		return i.ByIDPath
	}
	return i.Path
}

// Matches reports whether path names this device.
func (i *Info) Matches(path string) bool {
	return path == i.Path || (path != "" && path == i.ByIDPath)
}

// A Scanner discovers serial devices below DevDir, reading their USB
// metadata below SysDir.
type Scanner struct {
	DevDir string
	SysDir string
}

// DefaultScanner scans the real /dev and /sys.
var DefaultScanner = &Scanner{DevDir: "/dev", SysDir: "/sys"}

// Scan discovers serial devices with [DefaultScanner].
func Scan() ([]Info, error) {
	return DefaultScanner.Scan()
}

// Scan returns the ttyUSB and ttyACM devices, in that order, with any
// /dev/serial/by-id links attached to the device they point to. A by-id
// link to a device not otherwise found is added as its own entry.
func (s *Scanner) Scan() ([]Info, error) {
	var infos []Info

	for _, pattern := range []string{"ttyUSB*", "ttyACM*"} {
		paths, err := filepath.Glob(filepath.Join(s.DevDir, pattern))
		if err != nil {
			return nil, err
		}
		slices.Sort(paths)
		for _, p := range paths {
			info := s.Info(p)
			log.Info("Discovered device", "path", p, "vendor", info.Vendor, "product", info.Product)
			infos = append(infos, info)
		}
	}

	links, err := filepath.Glob(filepath.Join(s.DevDir, "serial", "by-id", "*"))
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		target, err := filepath.EvalSymlinks(link)
		if err != nil {
			log.Debug("Skipping by-id link", "path", link, "error", err)
			continue
		}

		i := slices.IndexFunc(infos, func(info Info) bool {
			p, err := filepath.EvalSymlinks(info.Path)
			return err == nil && p == target
		})
		if i >= 0 {
			infos[i].ByIDPath = link
			log.Debug("Associated by-id path", "by_id_path", link, "path", infos[i].Path)
			continue
		}

		info := s.Info(target)
		info.ByIDPath = link
		log.Info("Discovered device by-id", "by_id_path", link, "path", target)
		infos = append(infos, info)
	}

	return infos, nil
}

// Info reads the USB metadata of the device at path from sysfs. The USB
// device is found by walking up from the tty's device directory to the
// first directory holding idVendor.
func (s *Scanner) Info(path string) Info {
	info := Info{Path: path}

	dev := filepath.Join(s.SysDir, "class", "tty", filepath.Base(path), "device")
	dir, err := filepath.EvalSymlinks(dev)
	if err != nil {
		log.Debug("No sysfs entry for device", "path", path)
		return info
	}

	usb, ok := file.FindUp(dir, "idVendor", s.SysDir)
	if !ok {
		return info
	}

	read := func(name string) string {
		v, _ := file.ReadString(filepath.Join(usb, name))
		return v
	}
	info.Vendor = read("idVendor")
	info.Product = read("idProduct")
	info.Manufacturer = read("manufacturer")
	info.Model = read("product")
	info.Serial = read("serial")
	return info
}

// SaveList writes infos as JSON to path, creating its directory if needed.
func SaveList(path string, infos []Info) error {
	if infos == nil {
		infos = []Info{}
	}
	b, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return file.WriteFile(path, append(b, '\n'), 0o644)
}
