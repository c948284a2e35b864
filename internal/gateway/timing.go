package gateway

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/iqrf-gateway/internal/protocol/dpa"
)

// TimingProfile 单个 mType 的等待提示（毫秒）
type TimingProfile struct {
	Timeout int64 `yaml:"timeout"`
	Process int64 `yaml:"process"`
}

// Timing 转为请求调度提示
func (p TimingProfile) Timing() dpa.Timing {
	return dpa.Timing{
		DpaRspTime:     time.Duration(p.Timeout) * time.Millisecond,
		DevProcessTime: time.Duration(p.Process) * time.Millisecond,
	}
}

// TimingProfiles mType -> 等待提示，未命中时使用 Default
type TimingProfiles struct {
	Default  TimingProfile            `yaml:"default"`
	Profiles map[string]TimingProfile `yaml:"profiles"`
}

// DefaultTimingProfiles 内置的长耗时命令提示
func DefaultTimingProfiles() *TimingProfiles {
	return &TimingProfiles{
		Default: TimingProfile{Timeout: 1000},
		Profiles: map[string]TimingProfile{
			dpa.CoordinatorDiscovery.Name:    {Timeout: 60000},
			dpa.CoordinatorBondNode.Name:     {Timeout: 12000},
			dpa.CoordinatorSmartConnect.Name: {Timeout: 12000},
			dpa.CoordinatorBackup.Name:       {Timeout: 3000},
			dpa.CoordinatorRestore.Name:      {Timeout: 3000},
			dpa.FRCSend.Name:                 {Timeout: 10000, Process: 2000},
			dpa.FRCSendSelective.Name:        {Timeout: 10000, Process: 2000},
		},
	}
}

// LoadTimingProfiles 读取 YAML 文件
func LoadTimingProfiles(path string) (*TimingProfiles, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timing profiles: %w", err)
	}
	var p TimingProfiles
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("unmarshal timing profiles: %w", err)
	}
	if p.Profiles == nil {
		p.Profiles = make(map[string]TimingProfile)
	}
	for name := range p.Profiles {
		if _, err := dpa.MTypeFromString(name); err != nil {
			return nil, fmt.Errorf("timing profile %q: %w", name, err)
		}
	}
	return &p, nil
}

// Lookup 返回 mType 的等待提示
func (p *TimingProfiles) Lookup(mtype string) dpa.Timing {
	if p == nil {
		return dpa.Timing{}
	}
	if v, ok := p.Profiles[mtype]; ok {
		return v.Timing()
	}
	return p.Default.Timing()
}

// Merge 用 other 覆盖同名条目，other 的非零 Default 也会覆盖
func (p *TimingProfiles) Merge(other *TimingProfiles) {
	if p == nil || other == nil {
		return
	}
	if p.Profiles == nil {
		p.Profiles = make(map[string]TimingProfile)
	}
	if other.Default != (TimingProfile{}) {
		p.Default = other.Default
	}
	for k, v := range other.Profiles {
		p.Profiles[k] = v
	}
}
