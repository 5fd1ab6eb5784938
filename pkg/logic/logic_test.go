// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/ingest"
	"github.com/q191201771/lalsi/pkg/mpegts"
	"github.com/q191201771/naza/pkg/assert"
)

const (
	testPmtPid   uint16 = 0x1000
	testVideoPid uint16 = 0x100
	testAudioPid uint16 = 0x101
)

type notifyRecorder struct {
	mutex sync.Mutex
	start []base.LalsiInfo
	sdts  []base.SdtUpdateInfo
	pats  []base.PatUpdateInfo
}

func (r *notifyRecorder) OnServerStart(info base.LalsiInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.start = append(r.start, info)
}

func (r *notifyRecorder) OnSdtUpdate(info base.SdtUpdateInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sdts = append(r.sdts, info)
}

func (r *notifyRecorder) OnPatUpdate(info base.PatUpdateInfo) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.pats = append(r.pats, info)
}

func (r *notifyRecorder) sdtCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.sdts)
}

func genSdtSection(t *testing.T, sn uint8, lsn uint8, firstServiceId uint16) []byte {
	var services []mpegts.SdtServiceElement
	for i := uint16(0); i < 2; i++ {
		id := firstServiceId + i
		services = append(services, mpegts.SdtServiceElement{
			ServiceId:               id,
			EitPresentFollowingFlag: true,
			RunningStatus:           4,
			Descriptors: []mpegts.Descriptor{
				{
					Tag:     mpegts.DescriptorTagService,
					Service: &mpegts.DescriptorService{Type: 1, Provider: "lalsi", Name: fmt.Sprintf("svc%d", id)},
				},
			},
		})
	}
	sec := mpegts.NewSdtSection(mpegts.TableIdSdtActual, 1, 0x2000, services)
	sec.VersionNumber = 3
	sec.SectionNumber = sn
	sec.LastSectionNumber = lsn
	b, err := sec.Pack()
	assert.Equal(t, nil, err)
	return b
}

// genTsFile PAT、PMT、两个section的SDT，中间夹一个sync byte错误的packet
func genTsFile(t *testing.T) string {
	filename := filepath.Join(t.TempDir(), "psi.ts")

	var fw mpegts.FileWriter
	assert.Equal(t, nil, fw.Create(filename))

	pat, err := mpegts.NewPatSection(1, []mpegts.PatProgramElement{{ProgramNumber: 1, Pid: testPmtPid}}).Pack()
	assert.Equal(t, nil, err)
	pmt, err := mpegts.NewPmtSection(1, testVideoPid, nil, []mpegts.PmtProgramElement{
		{StreamType: mpegts.StreamTypeAvc, Pid: testVideoPid},
		{StreamType: mpegts.StreamTypeAac, Pid: testAudioPid},
	}).Pack()
	assert.Equal(t, nil, err)

	assert.Equal(t, nil, fw.WriteSections(mpegts.PidPat, pat))
	assert.Equal(t, nil, fw.WriteSections(testPmtPid, pmt))
	assert.Equal(t, nil, fw.WriteSections(mpegts.PidSdt, genSdtSection(t, 0, 1, 0x10)))

	bad := make([]byte, base.MpegtsPacketSize)
	bad[0] = 0x00
	assert.Equal(t, nil, fw.Write(bad))

	assert.Equal(t, nil, fw.WriteSections(mpegts.PidSdt, genSdtSection(t, 1, 1, 0x20)))
	assert.Equal(t, nil, fw.Dispose())
	return filename
}

func loadTestConf(t *testing.T, format string, v ...interface{}) *Config {
	config, err := LoadConf([]byte(fmt.Sprintf(format, v...)))
	assert.Equal(t, nil, err)
	return config
}

// ---------------------------------------------------------------------------------------------------------------------

func TestLoadConf(t *testing.T) {
	config := loadTestConf(t, `{"conf_version": "v0.1.0"}`)
	assert.Equal(t, base.InputTypeUdp, config.InputConfig.Type)
	assert.Equal(t, ":1234", config.InputConfig.Addr)
	assert.Equal(t, base.MpegtsPacketSize, config.InputConfig.PacketSize)
	assert.Equal(t, base.RingBufferDefaultCapacity, config.RingBufferConfig.Capacity)
	assert.Equal(t, base.RingBufferDefaultSlotSize, config.RingBufferConfig.SlotSize)
	assert.Equal(t, true, config.RingBufferConfig.AllowOverflow)
	assert.Equal(t, true, config.SdtConfig.Enable)
	assert.Equal(t, int(mpegts.PidSdt), config.SdtConfig.Pid)
	assert.Equal(t, "actual", config.SdtConfig.Table)
	assert.Equal(t, true, config.PatConfig.Enable)
	assert.Equal(t, true, config.PatConfig.FollowPmt)
	assert.Equal(t, "1", config.ServerId)

	// 显式配置为false的项不被默认值覆盖
	config = loadTestConf(t, `{"ring_buffer": {"allow_overflow": false, "capacity": 8}, "sdt": {"enable": false, "pid": 100, "table": "other"}}`)
	assert.Equal(t, false, config.RingBufferConfig.AllowOverflow)
	assert.Equal(t, 8, config.RingBufferConfig.Capacity)
	assert.Equal(t, false, config.SdtConfig.Enable)
	assert.Equal(t, 100, config.SdtConfig.Pid)
	assert.Equal(t, "other", config.SdtConfig.Table)
}

func TestLoadConf_Invalid(t *testing.T) {
	cases := []string{
		`{"input": {"type": "rtp"}}`,
		`{"input": {"type": "file"}}`,
		`{"input": {"packet_size": 204}}`,
		`{"ring_buffer": {"capacity": 0}}`,
		`{"ring_buffer": {"slot_size": 100}}`,
		`{"sdt": {"pid": 8192}}`,
		`{"sdt": {"table": "bat"}}`,
	}
	for _, c := range cases {
		_, err := LoadConf([]byte(c))
		assert.Equal(t, true, errors.Is(err, base.ErrConfigInvalid), c)
	}

	_, err := LoadConf([]byte(`{`))
	assert.Equal(t, true, err != nil)
}

func TestPipeline(t *testing.T) {
	filename := genTsFile(t)
	config := loadTestConf(t, `{"input": {"type": "file", "filename": %q}, "ring_buffer": {"capacity": 2, "allow_overflow": false}}`, filename)

	var recorder notifyRecorder
	p, err := NewPipeline("TEST", config, ingest.NewFileInput(filename, 0), &recorder)
	assert.Equal(t, nil, err)

	assert.Equal(t, true, p.Sdt() == nil)
	assert.Equal(t, true, p.Pat() == nil)

	err = p.RunLoop(context.Background())
	assert.Equal(t, nil, err)

	sdt := p.Sdt()
	assert.Equal(t, true, sdt != nil)
	assert.Equal(t, true, sdt.Complete)
	assert.Equal(t, mpegts.PidSdt, sdt.Pid)
	assert.Equal(t, mpegts.TableIdSdtActual, sdt.TableId)
	assert.Equal(t, uint16(1), sdt.TransportStreamId)
	assert.Equal(t, uint16(0x2000), sdt.OriginalNetworkId)
	assert.Equal(t, uint8(3), sdt.VersionNumber)
	assert.Equal(t, []int{0, 1}, sdt.CompletedSections)
	assert.Equal(t, 4, len(sdt.Services))
	assert.Equal(t, uint16(0x21), sdt.Services[3].ServiceId)
	assert.Equal(t, "svc33", sdt.Services[3].ServiceName)
	assert.Equal(t, "lalsi", sdt.Services[3].ProviderName)
	assert.Equal(t, uint8(1), sdt.Services[3].ServiceType)
	assert.Equal(t, []int{int(mpegts.DescriptorTagService)}, sdt.Services[3].DescriptorTags)

	pat := p.Pat()
	assert.Equal(t, true, pat != nil)
	assert.Equal(t, 1, len(pat.Programs))
	assert.Equal(t, uint16(1), pat.Programs[0].ProgramNumber)
	assert.Equal(t, testPmtPid, pat.Programs[0].Pid)
	assert.Equal(t, 0, pat.Programs[0].PmtVersionNumber)
	assert.Equal(t, testVideoPid, pat.Programs[0].PcrPid)
	assert.Equal(t, []base.StatPmtStream{
		{StreamType: mpegts.StreamTypeAvc, Pid: testVideoPid},
		{StreamType: mpegts.StreamTypeAac, Pid: testAudioPid},
	}, pat.Programs[0].Streams)

	// 回调发生在consumer goroutine中，RunLoop返回时已经全部完成
	assert.Equal(t, 2, len(recorder.sdts))
	assert.Equal(t, uint8(0), recorder.sdts[0].SectionNumber)
	assert.Equal(t, false, recorder.sdts[0].Sdt.Complete)
	assert.Equal(t, uint8(1), recorder.sdts[1].SectionNumber)
	assert.Equal(t, true, recorder.sdts[1].Sdt.Complete)
	assert.Equal(t, 1, len(recorder.pats))

	stat := p.Stat()
	assert.Equal(t, uint64(5), stat.TsPackets)
	assert.Equal(t, uint64(1), stat.TsPacketErrors)
	assert.Equal(t, uint64(0), stat.AddRecordErrors)
	assert.Equal(t, stat.RingBuffer.Added, stat.RingBuffer.Removed)
	assert.Equal(t, 0, stat.RingBuffer.Fullness)
	assert.Equal(t, 3, len(stat.Decoders))
	var published uint64
	for _, d := range stat.Decoders {
		published += d.SectionsPublished
	}
	assert.Equal(t, uint64(4), published)
}

func TestPipeline_SdtDisabled(t *testing.T) {
	filename := genTsFile(t)
	config := loadTestConf(t, `{"input": {"type": "file", "filename": %q}, "sdt": {"enable": false}, "pat": {"follow_pmt": false}}`, filename)

	p, err := NewPipeline("TEST", config, ingest.NewFileInput(filename, 0), nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, p.RunLoop(context.Background()))

	assert.Equal(t, true, p.Sdt() == nil)
	pat := p.Pat()
	assert.Equal(t, true, pat != nil)
	assert.Equal(t, -1, pat.Programs[0].PmtVersionNumber)
	assert.Equal(t, 1, len(p.Stat().Decoders))
}

func TestPipeline_PatDropsProgram(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "pat.ts")

	packPat := func(version uint8, programs ...mpegts.PatProgramElement) []byte {
		sec := mpegts.NewPatSection(1, programs)
		sec.VersionNumber = version
		b, err := sec.Pack()
		assert.Equal(t, nil, err)
		return b
	}
	packPmt := func(programNumber uint16, pid uint16) []byte {
		b, err := mpegts.NewPmtSection(programNumber, pid, nil, []mpegts.PmtProgramElement{
			{StreamType: mpegts.StreamTypeAvc, Pid: pid},
		}).Pack()
		assert.Equal(t, nil, err)
		return b
	}

	var fw mpegts.FileWriter
	assert.Equal(t, nil, fw.Create(filename))
	assert.Equal(t, nil, fw.WriteSections(mpegts.PidPat, packPat(0,
		mpegts.PatProgramElement{ProgramNumber: 1, Pid: testPmtPid},
		mpegts.PatProgramElement{ProgramNumber: 2, Pid: testPmtPid + 1})))
	assert.Equal(t, nil, fw.WriteSections(testPmtPid, packPmt(1, testVideoPid)))
	assert.Equal(t, nil, fw.WriteSections(testPmtPid+1, packPmt(2, testVideoPid+1)))
	// 新版本的PAT去掉了program 2
	assert.Equal(t, nil, fw.WriteSections(mpegts.PidPat, packPat(1,
		mpegts.PatProgramElement{ProgramNumber: 1, Pid: testPmtPid})))
	assert.Equal(t, nil, fw.WriteSections(testPmtPid+1, packPmt(2, testVideoPid+1)))
	assert.Equal(t, nil, fw.Dispose())

	config := loadTestConf(t, `{"input": {"type": "file", "filename": %q}}`, filename)
	var recorder notifyRecorder
	p, err := NewPipeline("TEST", config, ingest.NewFileInput(filename, 0), &recorder)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, p.RunLoop(context.Background()))

	assert.Equal(t, 2, len(recorder.pats))
	assert.Equal(t, 2, len(recorder.pats[0].Pat.Programs))
	assert.Equal(t, 1, len(recorder.pats[1].Pat.Programs))

	pat := p.Pat()
	assert.Equal(t, 1, len(pat.Programs))
	assert.Equal(t, uint16(1), pat.Programs[0].ProgramNumber)
	assert.Equal(t, testVideoPid, pat.Programs[0].PcrPid)

	var pmtDecoders int
	for _, d := range p.Stat().Decoders {
		if d.Table == "pmt" {
			pmtDecoders++
			assert.Equal(t, int(testPmtPid), d.Pid)
		}
	}
	assert.Equal(t, 1, pmtDecoders)

	p.mutex.Lock()
	assert.Equal(t, 1, len(p.latestPmt))
	assert.Equal(t, 1, len(p.pmtDecoders))
	p.mutex.Unlock()
}

func TestNewPipeline_InvalidSdtTable(t *testing.T) {
	config := loadTestConf(t, `{"input": {"type": "udp", "addr": "127.0.0.1:0"}}`)
	config.SdtConfig.Table = "bat"

	p, err := NewPipeline("TEST", config, ingest.NewUdpInput(config.InputConfig.Addr), nil)
	assert.Equal(t, true, errors.Is(err, base.ErrConfigInvalid))
	assert.Equal(t, true, p == nil)
}

func TestPipeline_Dispose(t *testing.T) {
	config := loadTestConf(t, `{"input": {"type": "udp", "addr": "127.0.0.1:0"}}`)
	in := ingest.NewUdpInput(config.InputConfig.Addr)
	assert.Equal(t, nil, in.Listen())
	p, err := NewPipeline("TEST", config, in, nil)
	assert.Equal(t, nil, err)

	done := make(chan error, 1)
	go func() {
		done <- p.RunLoop(context.Background())
	}()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, nil, p.Dispose())

	select {
	case err := <-done:
		assert.Equal(t, nil, err)
	case <-time.After(time.Second):
		t.Fatal("pipeline not stopped by dispose")
	}
}

func TestServerManager(t *testing.T) {
	filename := genTsFile(t)

	var recorder notifyRecorder
	sm := NewServerManager(func(option *Option) {
		option.ConfRawContent = []byte(fmt.Sprintf(`{
  "conf_version": "v0.1.0",
  "server_id": "test",
  "input": {"type": "file", "filename": %q, "exit_on_eof": true},
  "http_api": {"enable": false},
  "pprof": {"enable": false},
  "debug": {"log_stat_interval_sec": 0},
  "log": {"level": 1, "filename": "", "is_to_stdout": true}
}`, filename))
		option.NotifyHandler = &recorder
	})
	assert.Equal(t, nil, sm.RunLoop())

	assert.Equal(t, "test", sm.StatLalsiInfo().ServerId)
	assert.Equal(t, base.LalsiVersion, sm.StatLalsiInfo().LalsiVersion)
	assert.Equal(t, 4, len(sm.StatSdt().Services))
	assert.Equal(t, 1, len(sm.StatPat().Programs))
	assert.Equal(t, base.InputTypeFile, sm.StatPipeline().Input.Type)

	// notify在单独的worker中执行
	for i := 0; i < 100 && recorder.sdtCount() < 2; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 2, recorder.sdtCount())

	assert.Equal(t, nil, sm.Dispose())
	assert.Equal(t, nil, sm.Dispose())
}
