package servo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultSysfsRoot is where the kernel exposes PWM chips.
const DefaultSysfsRoot = "/sys/class/pwm"

// SysfsDriver drives one channel of a Linux sysfs PWM chip.
type SysfsDriver struct {
	root     string
	chip     int
	channel  int
	dir      string
	exported bool
}

// NewSysfsDriver exports the channel if needed, sets Period and enables
// output. root is normally DefaultSysfsRoot.
func NewSysfsDriver(root string, chip, channel int) (*SysfsDriver, error) {
	if root == "" {
		root = DefaultSysfsRoot
	}
	chipDir := filepath.Join(root, fmt.Sprintf("pwmchip%d", chip))
	d := &SysfsDriver{
		root:    root,
		chip:    chip,
		channel: channel,
		dir:     filepath.Join(chipDir, fmt.Sprintf("pwm%d", channel)),
	}

	if _, err := os.Stat(d.dir); errors.Is(err, os.ErrNotExist) {
		if err := writeFile(filepath.Join(chipDir, "export"), strconv.Itoa(channel)); err != nil {
			return nil, fmt.Errorf("export pwm%d: %w", channel, err)
		}
		d.exported = true
	}

	if err := d.write("period", int64(Period)); err != nil {
		return nil, err
	}
	if err := d.write("enable", 1); err != nil {
		return nil, err
	}
	return d, nil
}

// SetPulse sets the duty cycle to width.
func (d *SysfsDriver) SetPulse(width time.Duration) error {
	if width < 0 || width > Period {
		return fmt.Errorf("pulse %v outside period %v", width, Period)
	}
	return d.write("duty_cycle", int64(width))
}

// Close disables output and unexports a channel this driver exported.
func (d *SysfsDriver) Close() error {
	var errs []error
	if err := d.write("enable", 0); err != nil {
		errs = append(errs, err)
	}
	if d.exported {
		unexport := filepath.Join(d.root, fmt.Sprintf("pwmchip%d", d.chip), "unexport")
		if err := writeFile(unexport, strconv.Itoa(d.channel)); err != nil {
			errs = append(errs, fmt.Errorf("unexport pwm%d: %w", d.channel, err))
		}
	}
	return errors.Join(errs...)
}

func (d *SysfsDriver) write(attr string, v int64) error {
	if err := writeFile(filepath.Join(d.dir, attr), strconv.FormatInt(v, 10)); err != nil {
		return fmt.Errorf("write %s: %w", attr, err)
	}
	return nil
}

func writeFile(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}
