// Package config defines the machine's YAML-loadable configuration: CPU
// variant selection, device base addresses, and host directories. There is
// no teacher equivalent to adapt (the original has no config file, just
// compile-time constants), so this is authored fresh against the pack's
// established gopkg.in/yaml.v3 idiom.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type MachineConfig struct {
	CPU       CPUConfig       `yaml:"cpu"`
	Devices   DeviceConfig    `yaml:"devices"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type CPUConfig struct {
	// Variant is one of "nmos", "nmos6510", "cmos".
	Variant string `yaml:"variant"`
}

type DeviceConfig struct {
	VGCBase     uint16 `yaml:"vgc_base"`
	DMABase     uint16 `yaml:"dma_base"`
	BlitterBase uint16 `yaml:"blitter_base"`
	TimerBase   uint16 `yaml:"timer_base"`
	SIDBase     uint16 `yaml:"sid_base"`
	NICBase     uint16 `yaml:"nic_base"`
	FIOBase     uint16 `yaml:"fio_base"`
	CompilerBase uint16 `yaml:"compiler_base"`
	XRAMSize    int    `yaml:"xram_size"`
}

type StorageConfig struct {
	ProgramDir string `yaml:"program_dir"`
}

type SchedulerConfig struct {
	FrequencyHz uint64 `yaml:"frequency_hz"`
	BacklogCap  uint64 `yaml:"backlog_cap"`
}

// Default returns the machine's standard configuration, matching the
// addresses the bus fabric wires up when no override file is supplied.
func Default() MachineConfig {
	return MachineConfig{
		CPU: CPUConfig{Variant: "cmos"},
		Devices: DeviceConfig{
			VGCBase:      0xA000,
			DMABase:      0xA100,
			BlitterBase:  0xA200,
			TimerBase:    0xA300,
			SIDBase:      0xA400,
			NICBase:      0xA440,
			FIOBase:      0xA480,
			CompilerBase: 0xA4A0,
			XRAMSize:     512 * 1024,
		},
		Storage: StorageConfig{ProgramDir: "./programs"},
		Scheduler: SchedulerConfig{
			FrequencyHz: 10_000_000,
			BacklogCap:  1_000_000,
		},
	}
}

// Load reads a MachineConfig from a YAML file, filling any field the file
// omits from Default.
func Load(path string) (MachineConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg MachineConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
