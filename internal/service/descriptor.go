package service

import (
	"fmt"
	"strings"
)

// Fixed registration values for the scraper service.
const (
	DefaultUnitDir     = "/etc/systemd/system"
	DefaultName        = "willhaben-scraper"
	DefaultDescription = "Willhaben Property Scraper"
	DefaultExecPath    = "/usr/local/bin/willhaben-scraper"
	DefaultUser        = "scraper"
	DefaultRestart     = "always"
)

// UnitDescriptor describes how the service manager should run the service.
type UnitDescriptor struct {
	Name         string
	Description  string
	ExecPath     string
	User         string
	Restart      string
	After        []string
	WantedBy     []string
	EnableOnBoot bool
}

// DefaultUnit returns the descriptor registered by the installer. It does
// not depend on the operator's configuration.
func DefaultUnit() UnitDescriptor {
	return UnitDescriptor{
		Name:         DefaultName,
		Description:  DefaultDescription,
		ExecPath:     DefaultExecPath,
		User:         DefaultUser,
		Restart:      DefaultRestart,
		After:        []string{"network.target"},
		WantedBy:     []string{"multi-user.target"},
		EnableOnBoot: true,
	}
}

// UnitName returns the unit name with its ".service" suffix.
func (d UnitDescriptor) UnitName() string {
	return unitName(d.Name)
}

func unitName(name string) string {
	if strings.HasSuffix(name, ".service") {
		return name
	}
	return name + ".service"
}

// DescriptorError reports a descriptor that cannot be rendered into a
// usable unit file.
type DescriptorError struct {
	Unit   string
	Reason string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("invalid unit %q: %s", e.Unit, e.Reason)
}

// Validate rejects descriptors that would render an unusable unit file.
func (d UnitDescriptor) Validate() error {
	bad := func(format string, args ...interface{}) error {
		return &DescriptorError{Unit: d.Name, Reason: fmt.Sprintf(format, args...)}
	}
	switch {
	case strings.TrimSuffix(d.Name, ".service") == "":
		return bad("name is required")
	case strings.ContainsAny(d.Name, "/ \t\n"):
		return bad("name contains invalid characters")
	case !strings.HasPrefix(d.ExecPath, "/"):
		return bad("exec path %q must be absolute", d.ExecPath)
	}
	for _, v := range []string{d.Description, d.ExecPath, d.User, d.Restart} {
		if strings.ContainsAny(v, "\n\r") {
			return bad("value %q spans multiple lines", v)
		}
	}
	return nil
}

// Render produces the unit file. Equal descriptors render to identical bytes.
func (d UnitDescriptor) Render() []byte {
	var b strings.Builder

	b.WriteString("[Unit]\n")
	writeKey(&b, "Description", d.Description)
	if len(d.After) > 0 {
		writeKey(&b, "After", strings.Join(d.After, " "))
	}

	b.WriteString("\n[Service]\n")
	writeKey(&b, "ExecStart", d.ExecPath)
	writeKey(&b, "Restart", d.Restart)
	writeKey(&b, "User", d.User)

	if len(d.WantedBy) > 0 {
		b.WriteString("\n[Install]\n")
		writeKey(&b, "WantedBy", strings.Join(d.WantedBy, " "))
	}

	return []byte(b.String())
}

func writeKey(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(value)
	b.WriteByte('\n')
}
