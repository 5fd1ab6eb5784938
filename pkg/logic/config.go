// Copyright 2019, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/mpegts"
	"github.com/q191201771/lalsi/pkg/psi"
	"github.com/q191201771/naza/pkg/nazajson"
	"github.com/q191201771/naza/pkg/nazalog"
)

type Config struct {
	ConfVersion      string           `json:"conf_version"`
	ServerId         string           `json:"server_id"`
	InputConfig      InputConfig      `json:"input"`
	RingBufferConfig RingBufferConfig `json:"ring_buffer"`
	SdtConfig        SdtConfig        `json:"sdt"`
	PatConfig        PatConfig        `json:"pat"`
	HttpApiConfig    HttpApiConfig    `json:"http_api"`
	HttpNotifyConfig HttpNotifyConfig `json:"http_notify"`
	PprofConfig      PprofConfig      `json:"pprof"`
	LogConfig        nazalog.Option   `json:"log"`
	DebugConfig      DebugConfig      `json:"debug"`
}

type InputConfig struct {
	Type           string `json:"type"` // udp, file, dump
	Addr           string `json:"addr"`
	Filename       string `json:"filename"`
	PacketSize     int    `json:"packet_size"`
	ReadIntervalMs int    `json:"read_interval_ms"`
	ReplayRealtime bool   `json:"replay_realtime"`

	// ExitOnEof file和dump类型读取结束后是否退出，为false时继续提供http api服务直到收到信号
	ExitOnEof bool `json:"exit_on_eof"`
}

type RingBufferConfig struct {
	Capacity      int  `json:"capacity"`
	SlotSize      int  `json:"slot_size"`
	AllowOverflow bool `json:"allow_overflow"`
}

type SdtConfig struct {
	Enable             bool   `json:"enable"`
	Pid                int    `json:"pid"`
	Table              string `json:"table"` // actual, other, all
	StrictPid          bool   `json:"strict_pid"`
	VerifyCrc32        bool   `json:"verify_crc32"`
	AcceptNextSections bool   `json:"accept_next_sections"`
}

type PatConfig struct {
	Enable      bool `json:"enable"`
	FollowPmt   bool `json:"follow_pmt"`
	VerifyCrc32 bool `json:"verify_crc32"`
}

type HttpApiConfig struct {
	Enable bool   `json:"enable"`
	Addr   string `json:"addr"`
}

type HttpNotifyConfig struct {
	Enable        bool   `json:"enable"`
	OnServerStart string `json:"on_server_start"`
	OnSdtUpdate   string `json:"on_sdt_update"`
	OnPatUpdate   string `json:"on_pat_update"`
}

type PprofConfig struct {
	Enable bool   `json:"enable"`
	Addr   string `json:"addr"`
}

type DebugConfig struct {
	LogStatIntervalSec int `json:"log_stat_interval_sec"`
}

// LoadConf 解析配置内容，不存在的配置项使用默认值，并检查配置项是否合法
func LoadConf(rawContent []byte) (*Config, error) {
	var config Config
	if err := json.Unmarshal(rawContent, &config); err != nil {
		return nil, err
	}

	j, err := nazajson.New(rawContent)
	if err != nil {
		return nil, err
	}

	// 配置项不存在时，设置默认值
	if !j.Exist("server_id") {
		config.ServerId = "1"
	}
	if !j.Exist("input.type") {
		config.InputConfig.Type = base.InputTypeUdp
	}
	if !j.Exist("input.addr") {
		config.InputConfig.Addr = ":1234"
	}
	if !j.Exist("input.packet_size") {
		config.InputConfig.PacketSize = base.MpegtsPacketSize
	}
	if !j.Exist("input.exit_on_eof") {
		config.InputConfig.ExitOnEof = true
	}
	if !j.Exist("ring_buffer.capacity") {
		config.RingBufferConfig.Capacity = base.RingBufferDefaultCapacity
	}
	if !j.Exist("ring_buffer.slot_size") {
		config.RingBufferConfig.SlotSize = base.RingBufferDefaultSlotSize
	}
	if !j.Exist("ring_buffer.allow_overflow") {
		config.RingBufferConfig.AllowOverflow = true
	}
	if !j.Exist("sdt.enable") {
		config.SdtConfig.Enable = true
	}
	if !j.Exist("sdt.pid") {
		config.SdtConfig.Pid = int(mpegts.PidSdt)
	}
	if !j.Exist("sdt.table") {
		config.SdtConfig.Table = psi.SdtSelectActual.String()
	}
	if !j.Exist("pat.enable") {
		config.PatConfig.Enable = true
	}
	if !j.Exist("pat.follow_pmt") {
		config.PatConfig.FollowPmt = true
	}
	if !j.Exist("http_api.addr") {
		config.HttpApiConfig.Addr = ":8083"
	}
	if !j.Exist("pprof.addr") {
		config.PprofConfig.Addr = ":8084"
	}
	if !j.Exist("debug.log_stat_interval_sec") {
		config.DebugConfig.LogStatIntervalSec = 30
	}
	if !j.Exist("log.level") {
		config.LogConfig.Level = nazalog.LevelDebug
	}
	if !j.Exist("log.filename") {
		config.LogConfig.Filename = "./logs/lalsi.log"
	}
	if !j.Exist("log.is_to_stdout") {
		config.LogConfig.IsToStdout = true
	}
	if !j.Exist("log.is_rotate_daily") {
		config.LogConfig.IsRotateDaily = true
	}
	if !j.Exist("log.short_file_flag") {
		config.LogConfig.ShortFileFlag = true
	}
	if !j.Exist("log.assert_behavior") {
		config.LogConfig.AssertBehavior = nazalog.AssertError
	}

	if err := config.check(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfAndInitLog 失败时直接退出进程
func LoadConfAndInitLog(rawContent []byte) *Config {
	config, err := LoadConf(rawContent)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "load conf failed. err=%+v\n", err)
		base.OsExitAndWaitPressIfWindows(1)
	}

	if err = nazalog.Init(func(option *nazalog.Option) {
		*option = config.LogConfig
	}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "initial log failed. err=%+v\n", err)
		base.OsExitAndWaitPressIfWindows(1)
	}
	Log.Info("initial log succ.")

	if config.ConfVersion != base.ConfVersion {
		Log.Warnf("config version invalid. conf version of lalsi=%s, conf version of config file=%s",
			base.ConfVersion, config.ConfVersion)
	}

	Log.Infof("load conf succ. config=%+v", config)
	return config
}

// ---------------------------------------------------------------------------------------------------------------------

func (c *Config) check() error {
	switch c.InputConfig.Type {
	case base.InputTypeUdp:
	case base.InputTypeFile, base.InputTypeDump:
		if c.InputConfig.Filename == "" {
			return fmt.Errorf("%w. input.filename is empty, type=%s", base.ErrConfigInvalid, c.InputConfig.Type)
		}
	default:
		return fmt.Errorf("%w. input.type=%s", base.ErrConfigInvalid, c.InputConfig.Type)
	}
	if c.InputConfig.PacketSize != base.MpegtsPacketSize {
		return fmt.Errorf("%w. input.packet_size=%d", base.ErrConfigInvalid, c.InputConfig.PacketSize)
	}
	if c.RingBufferConfig.Capacity <= 0 {
		return fmt.Errorf("%w. ring_buffer.capacity=%d", base.ErrConfigInvalid, c.RingBufferConfig.Capacity)
	}
	if c.RingBufferConfig.SlotSize < base.MpegtsPacketSize {
		return fmt.Errorf("%w. ring_buffer.slot_size=%d", base.ErrConfigInvalid, c.RingBufferConfig.SlotSize)
	}
	if c.SdtConfig.Pid < 0 || c.SdtConfig.Pid > int(mpegts.PidNull) {
		return fmt.Errorf("%w. sdt.pid=%d", base.ErrConfigInvalid, c.SdtConfig.Pid)
	}
	if _, err := psi.ParseSdtTableSelector(c.SdtConfig.Table); err != nil {
		return err
	}
	return nil
}
