package device

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// fakeTree lays out ttyUSB0 and ttyUSB1 from a Huawei modem and ttyACM0
// from another vendor, with a by-id link to ttyUSB1.
func fakeTree(t *testing.T) *Scanner {
	t.Helper()
	root := t.TempDir()
	s := &Scanner{DevDir: filepath.Join(root, "dev"), SysDir: filepath.Join(root, "sys")}

	byID := filepath.Join(s.DevDir, "serial", "by-id")
	if err := os.MkdirAll(byID, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"ttyUSB0", "ttyUSB1", "ttyACM0"} {
		if err := os.WriteFile(filepath.Join(s.DevDir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Symlink(filepath.Join(s.DevDir, "ttyUSB1"), filepath.Join(byID, "usb-HUAWEI_Mobile_Connect-if02-port0")); err != nil {
		t.Fatal(err)
	}

	devices := map[string]map[string]string{
		"1-1": {"idVendor": "12d1", "idProduct": "1506", "manufacturer": "HUAWEI", "product": "HUAWEI Mobile", "serial": "0123"},
		"1-2": {"idVendor": "2341", "idProduct": "0043", "manufacturer": "Arduino"},
	}
	ports := map[string]string{"ttyUSB0": "1-1", "ttyUSB1": "1-1", "ttyACM0": "1-2"}

	for usb, attrs := range devices {
		dir := filepath.Join(s.SysDir, "devices", "usb1", usb)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		writeFiles(t, dir, attrs)
	}
	for tty, usb := range ports {
		port := filepath.Join(s.SysDir, "devices", "usb1", usb, usb+":1.0", tty)
		if err := os.MkdirAll(port, 0o755); err != nil {
			t.Fatal(err)
		}
		class := filepath.Join(s.SysDir, "class", "tty", tty)
		if err := os.MkdirAll(class, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(port, filepath.Join(class, "device")); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestScan(t *testing.T) {
	s := fakeTree(t)
	infos, err := s.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 3 {
		t.Fatalf("wanted 3 devices, got %d: %+v", len(infos), infos)
	}

	var tests = []struct {
		path   string
		vendor string
		byID   bool
	}{
		{"ttyUSB0", "12d1", false},
		{"ttyUSB1", "12d1", true},
		{"ttyACM0", "2341", false},
	}
	for i, tt := range tests {
		info := infos[i]
		if info.Path != filepath.Join(s.DevDir, tt.path) {
			t.Errorf("%d: wanted %s, got %s", i, tt.path, info.Path)
		}
		if info.Vendor != tt.vendor {
			t.Errorf("%s: wanted vendor %s, got %q", tt.path, tt.vendor, info.Vendor)
		}
		if (info.ByIDPath != "") != tt.byID {
			t.Errorf("%s: unexpected by-id path %q", tt.path, info.ByIDPath)
		}
	}
	if infos[0].Model != "HUAWEI Mobile" || infos[0].Serial != "0123" || infos[0].Manufacturer != "HUAWEI" {
		t.Errorf("unexpected metadata %+v", infos[0])
	}
}

func TestScanEmpty(t *testing.T) {
	root := t.TempDir()
	s := &Scanner{DevDir: filepath.Join(root, "dev"), SysDir: filepath.Join(root, "sys")}
	infos, err := s.Scan()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 0 {
		t.Errorf("wanted no devices, got %+v", infos)
	}
}

func TestSaveList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "available_usb.json")
	infos := []Info{{Path: "/dev/ttyUSB0", Vendor: "12d1", ByIDPath: "/dev/serial/by-id/usb-HUAWEI"}}
	if err := SaveList(path, infos); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]string
	if err = json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0]["path"] != "/dev/ttyUSB0" || got[0]["by_id_path"] != "/dev/serial/by-id/usb-HUAWEI" {
		t.Errorf("unexpected list %s", b)
	}

	if err = SaveList(path, nil); err != nil {
		t.Fatal(err)
	}
	if b, _ = os.ReadFile(path); string(b) != "[]\n" {
		t.Errorf("wanted empty list, got %q", b)
	}
}
