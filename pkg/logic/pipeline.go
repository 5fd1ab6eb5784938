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
	"sort"
	"sync"
	"time"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/ingest"
	"github.com/q191201771/lalsi/pkg/mpegts"
	"github.com/q191201771/lalsi/pkg/psi"
	"github.com/q191201771/lalsi/pkg/ringbuffer"
	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/q191201771/naza/pkg/nazaerrors"
)

// IPipelineObserver 回调发生在consumer goroutine中
type IPipelineObserver interface {
	OnSdtUpdate(info base.SdtUpdateInfo)
	OnPatUpdate(info base.PatUpdateInfo)
}

// Pipeline
//
// input(producer goroutine) -> ring buffer -> consumer goroutine -> 按PID分发 -> PAT/PMT/SDT decoder
//
// decoder只在consumer goroutine中使用，解析结果的快照由mutex保护，供http api读取
type Pipeline struct {
	uniqueKey string
	config    *Config
	observer  IPipelineObserver

	input ingest.IInput
	rb    *ringbuffer.RingBuffer

	sdtPid      uint16
	sdtDecoder  *psi.SdtDecoder
	patDecoder  *psi.PatDecoder
	pmtDecoders map[uint16]*psi.PmtDecoder // key: pmt pid

	mutex     sync.Mutex
	latestSdt *base.StatSdt
	latestPat *base.StatPat
	latestPmt map[uint16]psi.PmtTable // key: program_number

	decoderStats map[string]base.StatDecoder // key: decoder unique key

	tsPackets       nazaatomic.Uint64
	tsPacketErrors  nazaatomic.Uint64
	addRecordErrors nazaatomic.Uint64

	logDump base.LogDump

	disposeOnce sync.Once
	cancel      context.CancelFunc
	cancelMutex sync.Mutex
}

// NewPipeline
//
// @param config: 只使用其中input以外的配置
func NewPipeline(uniqueKey string, config *Config, input ingest.IInput, observer IPipelineObserver) (*Pipeline, error) {
	selector, err := psi.ParseSdtTableSelector(config.SdtConfig.Table)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		uniqueKey:    uniqueKey,
		config:       config,
		observer:     observer,
		input:        input,
		sdtPid:       uint16(config.SdtConfig.Pid),
		pmtDecoders:  make(map[uint16]*psi.PmtDecoder),
		latestPmt:    make(map[uint16]psi.PmtTable),
		decoderStats: make(map[string]base.StatDecoder),
		logDump:      base.NewLogDump(Log, base.LogicDumpDebugMaxNum, 32),
	}

	p.rb = ringbuffer.NewRingBuffer(func(option *ringbuffer.RingBufferOption) {
		option.Capacity = config.RingBufferConfig.Capacity
		option.SlotSize = config.RingBufferConfig.SlotSize
		option.AllowOverflow = config.RingBufferConfig.AllowOverflow
	})

	if config.SdtConfig.Enable {
		p.sdtDecoder = psi.NewSdtDecoder(selector, func(option *psi.SectionDecoderOption) {
			option.Pid = config.SdtConfig.Pid
			option.StrictPid = config.SdtConfig.StrictPid
			option.VerifyCrc32 = config.SdtConfig.VerifyCrc32
			option.AcceptNextSections = config.SdtConfig.AcceptNextSections
		}).WithOnTableChanged(p.onSdtChanged)
		p.updateDecoderStat(p.sdtDecoder.UniqueKey(), "sdt", p.sdtDecoder.Stat())
	}
	if config.PatConfig.Enable {
		p.patDecoder = psi.NewPatDecoder(func(option *psi.SectionDecoderOption) {
			option.Pid = int(mpegts.PidPat)
			option.VerifyCrc32 = config.PatConfig.VerifyCrc32
		}).WithOnTableChanged(p.onPatChanged)
		p.updateDecoderStat(p.patDecoder.UniqueKey(), "pat", p.patDecoder.Stat())
	}

	Log.Infof("[%s] new pipeline. input=%s, ring buffer=%s", p.uniqueKey, input.UniqueKey(), p.rb.UniqueKey())
	return p, nil
}

// RunLoop 阻塞直到输入结束并且ring buffer中的数据被处理完，或者 ctx 结束，或者 Dispose
func (p *Pipeline) RunLoop(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancelMutex.Lock()
	p.cancel = cancel
	p.cancelMutex.Unlock()
	defer cancel()

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- p.runConsumer(ctx)
	}()

	inputErr := p.input.RunLoop(p.onData)
	if inputErr != nil && !errors.Is(inputErr, base.ErrIngestDisposed) {
		Log.Errorf("[%s] input loop break. err=%+v", p.uniqueKey, inputErr)
	} else {
		Log.Infof("[%s] input loop done. err=%+v", p.uniqueKey, inputErr)
		p.waitDrain(ctx)
	}

	cancel()
	consumerErr := <-consumerDone
	if errors.Is(consumerErr, context.Canceled) || errors.Is(consumerErr, base.ErrRingBufferDisposed) {
		consumerErr = nil
	}
	if errors.Is(inputErr, base.ErrIngestDisposed) {
		inputErr = nil
	}
	return nazaerrors.CombineErrors(inputErr, consumerErr)
}

func (p *Pipeline) Dispose() error {
	var retErr error
	p.disposeOnce.Do(func() {
		Log.Infof("[%s] lifecycle dispose pipeline.", p.uniqueKey)
		e1 := p.input.Dispose()
		p.cancelMutex.Lock()
		if p.cancel != nil {
			p.cancel()
		}
		p.cancelMutex.Unlock()
		e2 := p.rb.Dispose()
		retErr = nazaerrors.CombineErrors(e1, e2)
	})
	return retErr
}

// Sdt 最近一次的SDT快照，还没有收到时返回nil
func (p *Pipeline) Sdt() *base.StatSdt {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.latestSdt == nil {
		return nil
	}
	ret := *p.latestSdt
	return &ret
}

// Pat 最近一次的PAT快照，已经收到的PMT会填充到对应的program中
func (p *Pipeline) Pat() *base.StatPat {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.latestPat == nil {
		return nil
	}
	ret := *p.latestPat
	ret.Programs = make([]base.StatPatProgram, len(p.latestPat.Programs))
	copy(ret.Programs, p.latestPat.Programs)
	for i := range ret.Programs {
		if pmt, ok := p.latestPmt[ret.Programs[i].ProgramNumber]; ok {
			Trans.FillStatPatProgram(&ret.Programs[i], pmt)
		}
	}
	return &ret
}

func (p *Pipeline) Stat() base.StatPipeline {
	stat := base.StatPipeline{
		Input:           p.input.Stat(),
		RingBuffer:      Trans.RingBufferStat2StatRingBuffer(p.rb.UniqueKey(), p.rb.Stat()),
		TsPackets:       p.tsPackets.Load(),
		TsPacketErrors:  p.tsPacketErrors.Load(),
		AddRecordErrors: p.addRecordErrors.Load(),
	}

	p.mutex.Lock()
	for _, ds := range p.decoderStats {
		stat.Decoders = append(stat.Decoders, ds)
	}
	p.mutex.Unlock()
	sort.Slice(stat.Decoders, func(i, j int) bool {
		return stat.Decoders[i].SessionId < stat.Decoders[j].SessionId
	})
	return stat
}

// ----- producer ------------------------------------------------------------------------------------------------------

func (p *Pipeline) onData(b []byte, timestamp int64) bool {
	// 超过slot大小的datagram按packet边界拆分
	maxLen := p.rb.SlotSize() - p.rb.SlotSize()%base.MpegtsPacketSize
	for len(b) > 0 {
		n := len(b)
		if n > maxLen {
			n = maxLen
		}

		var err error
		if timestamp == ingest.NoTimestamp {
			err = p.rb.Add(b[:n])
		} else {
			err = p.rb.AddWithTimestamp(b[:n], timestamp)
		}
		if err != nil {
			if errors.Is(err, base.ErrRingBufferDisposed) {
				return false
			}
			p.addRecordErrors.Increment()
			if c := p.addRecordErrors.Load(); c == 1 || c%1000 == 0 {
				Log.Warnf("[%s] add record to ring buffer failed. count=%d, err=%+v", p.uniqueKey, c, err)
			}
		}
		b = b[n:]
	}
	return true
}

// ----- consumer ------------------------------------------------------------------------------------------------------

func (p *Pipeline) runConsumer(ctx context.Context) error {
	out := make([]byte, p.rb.SlotSize())
	for {
		n, _, err := p.rb.Remove(ctx, out)
		if err != nil {
			return err
		}
		p.processRecord(out[:n])
	}
}

func (p *Pipeline) waitDrain(ctx context.Context) {
	t := time.NewTicker(5 * time.Millisecond)
	defer t.Stop()
	for p.rb.Fullness() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (p *Pipeline) processRecord(b []byte) {
	for _, raw := range mpegts.SplitTsPackets(b) {
		p.tsPackets.Increment()
		pkt, err := mpegts.ParseTsPacket(raw)
		if err != nil {
			p.tsPacketErrors.Increment()
			p.logDump.DumpHex(raw, "[%s] parse ts packet failed. err=%+v", p.uniqueKey, err)
			continue
		}
		p.route(pkt)
	}
}

// route 按PID分发给对应的decoder，decoder的统计在consumer goroutine中拷贝一份供http api读取
func (p *Pipeline) route(pkt mpegts.TsPacket) {
	switch {
	case pkt.Pid == mpegts.PidPat && p.patDecoder != nil:
		p.logFeedErr("pat", p.patDecoder.FeedTsPacket(pkt))
		p.updateDecoderStat(p.patDecoder.UniqueKey(), "pat", p.patDecoder.Stat())
	case pkt.Pid == p.sdtPid && p.sdtDecoder != nil:
		p.logFeedErr("sdt", p.sdtDecoder.FeedTsPacket(pkt))
		p.updateDecoderStat(p.sdtDecoder.UniqueKey(), "sdt", p.sdtDecoder.Stat())
	default:
		// pmtDecoders只在consumer goroutine中修改
		if d, ok := p.pmtDecoders[pkt.Pid]; ok {
			p.logFeedErr("pmt", d.FeedTsPacket(pkt))
			p.updateDecoderStat(d.UniqueKey(), "pmt", d.Stat())
		}
	}
}

func (p *Pipeline) updateDecoderStat(uniqueKey string, table string, stat psi.SectionDecoderStat) {
	p.mutex.Lock()
	p.decoderStats[uniqueKey] = Trans.DecoderStat2StatDecoder(uniqueKey, table, stat)
	p.mutex.Unlock()
}

func (p *Pipeline) logFeedErr(table string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, base.ErrPsiPointerFieldOutOfRange):
		// decoder内部已经打印过警告日志
	case errors.Is(err, base.ErrPsiDescriptorOutOfRange), errors.Is(err, base.ErrPsiItemLoopOutOfRange),
		errors.Is(err, base.ErrPsiSectionTooShort):
		Log.Warnf("[%s] corrupt %s section, discarded. err=%+v", p.uniqueKey, table, err)
	case errors.Is(err, base.ErrPsiCrc32Mismatch):
		Log.Warnf("[%s] %s section crc32 mismatch, discarded. err=%+v", p.uniqueKey, table, err)
	case errors.Is(err, base.ErrPsiPidMismatch):
		Log.Debugf("[%s] %s pid mismatch. err=%+v", p.uniqueKey, table, err)
	default:
		Log.Errorf("[%s] feed %s failed. err=%+v", p.uniqueKey, table, err)
	}
}

// ----- decoder callback ----------------------------------------------------------------------------------------------

func (p *Pipeline) onSdtChanged(table psi.SdtTable) {
	stat := Trans.SdtTable2StatSdt(table)
	Log.Infof("[%s] sdt update. table id=0x%02x, version=%d, section=%d/%d, services=%d, complete=%v",
		p.uniqueKey, table.TableId, table.VersionNumber, table.SectionNumber, table.LastSectionNumber,
		len(stat.Services), stat.Complete)

	p.mutex.Lock()
	p.latestSdt = &stat
	p.mutex.Unlock()

	if p.observer != nil {
		p.observer.OnSdtUpdate(base.SdtUpdateInfo{
			SectionNumber: table.SectionNumber,
			Sdt:           stat,
		})
	}
}

func (p *Pipeline) onPatChanged(table psi.PatTable) {
	stat := Trans.PatTable2StatPat(table)
	Log.Infof("[%s] pat update. tsid=%d, version=%d, programs=%d", p.uniqueKey, stat.TransportStreamId,
		stat.VersionNumber, len(stat.Programs))

	p.mutex.Lock()
	p.latestPat = &stat
	if p.config.PatConfig.FollowPmt {
		// PAT还不完整时，缺少的section中的program可能仍然有效，不做清理
		if !table.ItemsIncomplete {
			p.prunePmt(table)
		}
		for _, program := range table.Items {
			if _, ok := p.pmtDecoders[program.ProgramMapPid]; ok {
				continue
			}
			Log.Debugf("[%s] follow pmt. program number=%d, pid=0x%x", p.uniqueKey, program.ProgramNumber, program.ProgramMapPid)
			p.pmtDecoders[program.ProgramMapPid] = psi.NewPmtDecoder(func(option *psi.SectionDecoderOption) {
				option.Pid = int(program.ProgramMapPid)
				option.VerifyCrc32 = p.config.PatConfig.VerifyCrc32
			}).WithOnTableChanged(p.onPmtChanged)
		}
	}
	p.mutex.Unlock()

	if p.observer != nil {
		p.observer.OnPatUpdate(base.PatUpdateInfo{
			Pat: *p.Pat(),
		})
	}
}

// prunePmt 新的PAT中已经不存在的program，删除对应的PMT decoder以及PMT快照
//
// 调用方持有锁
func (p *Pipeline) prunePmt(table psi.PatTable) {
	pids := make(map[uint16]struct{})
	programNumbers := make(map[uint16]struct{})
	for _, program := range table.Items {
		pids[program.ProgramMapPid] = struct{}{}
		programNumbers[program.ProgramNumber] = struct{}{}
	}

	for pid, d := range p.pmtDecoders {
		if _, ok := pids[pid]; ok {
			continue
		}
		Log.Debugf("[%s] unfollow pmt. pid=0x%x", p.uniqueKey, pid)
		delete(p.pmtDecoders, pid)
		delete(p.decoderStats, d.UniqueKey())
	}
	for pn := range p.latestPmt {
		if _, ok := programNumbers[pn]; !ok {
			delete(p.latestPmt, pn)
		}
	}
}

func (p *Pipeline) onPmtChanged(table psi.PmtTable) {
	Log.Infof("[%s] pmt update. program number=%d, version=%d, pcr pid=0x%x, streams=%d",
		p.uniqueKey, table.TableIdExtension, table.VersionNumber, table.Ext.PcrPid, len(table.Items))

	p.mutex.Lock()
	p.latestPmt[table.TableIdExtension] = table
	p.mutex.Unlock()
}
