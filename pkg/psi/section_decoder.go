// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi

import (
	"fmt"

	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/mpegts"
)

// TableParser 具体表类型的解析策略
//
// H 为表级别的扩展字段（比如SDT的original_network_id），T 为item循环中的单个item
type TableParser[H any, T any] interface {
	// AcceptTableId 不接受的table_id对应的section被静默丢弃
	AcceptTableId(tableId uint8) bool

	// ParseSection 解析section中table_id_extension ~ last_section_number之后、CRC_32之前的部分
	//
	// @param data:         累积的数据，section从 headerOffset 开始
	// @param headerOffset: table_id所在位置
	// @param end:          CRC_32所在位置，解析不能超过该位置
	//
	ParseSection(data []byte, headerOffset int, end int) (H, []T, error)
}

// Table 一个或多个section聚合后的表，发布给订阅者的是快照，订阅者不应修改
type Table[H any, T any] struct {
	Pid                  uint16
	PointerField         uint8
	TableId              uint8
	SectionLength        uint16
	TableIdExtension     uint16
	VersionNumber        uint8
	CurrentNextIndicator uint8
	SectionNumber        uint8 // 最近一个完成的section
	LastSectionNumber    uint8

	Ext   H
	Items []T

	// CompletedSections 当前版本已完成的section_number，升序
	CompletedSections []uint8

	// ItemsIncomplete [0, LastSectionNumber] 中还有section没有收到
	ItemsIncomplete bool
}

type ITableObserver[H any, T any] interface {
	OnTableChanged(table Table[H, T])
}

type OnTableChanged[H any, T any] func(table Table[H, T])

type SectionDecoderOption struct {
	// Pid 小于0时，第一个收到的packet的PID为准
	Pid int

	// StrictPid 为true时，PID不一致返回 base.ErrPsiPidMismatch，否则静默忽略
	StrictPid bool

	// VerifyCrc32 为true时，CRC_32校验失败的section返回 base.ErrPsiCrc32Mismatch，不发布
	VerifyCrc32 bool

	// AcceptNextSections 为false时，current_next_indicator为0（尚未生效）的section被静默丢弃
	AcceptNextSections bool
}

var defaultSectionDecoderOption = SectionDecoderOption{
	Pid:                -1,
	StrictPid:          false,
	VerifyCrc32:        false,
	AcceptNextSections: false,
}

type ModSectionDecoderOption func(option *SectionDecoderOption)

type SectionDecoderStat struct {
	Pid                   uint16 `json:"pid"`
	SectionsPublished     uint64 `json:"sections_published"`
	SectionsFiltered      uint64 `json:"sections_filtered"`
	SectionsDuplicated    uint64 `json:"sections_duplicated"`
	SectionsFailed        uint64 `json:"sections_failed"`
	PointerFieldAnomalies uint64 `json:"pointer_field_anomalies"`
	VersionChanges        uint64 `json:"version_changes"`
}

// SectionDecoder 通用的PSI/SI section解码状态机，具体表的解析由 TableParser 完成
//
// 一个实例只处理一个PID上的一种表，非并发安全，调用方保证在同一个goroutine中调用 FeedPacket
type SectionDecoder[H any, T any] struct {
	uniqueKey string
	option    SectionDecoderOption
	parser    TableParser[H, T]
	acc       *SectionAccumulator
	logDump   base.LogDump

	observers []OnTableChanged[H, T]

	// 当前section的状态
	curPointerField  uint8
	curHeaderChecked bool
	curSkip          bool

	// 当前版本的聚合状态
	hasAggregate bool
	aggTableId   uint8
	aggVersion   uint8
	completed    [256]bool
	items        []T

	published *Table[H, T]
	stat      SectionDecoderStat
}

func NewSectionDecoder[H any, T any](parser TableParser[H, T], modOptions ...ModSectionDecoderOption) *SectionDecoder[H, T] {
	option := defaultSectionDecoderOption
	for _, fn := range modOptions {
		fn(&option)
	}

	d := &SectionDecoder[H, T]{
		uniqueKey: base.GenUkSectionDecoder(),
		option:    option,
		parser:    parser,
		acc:       NewSectionAccumulator(),
		logDump:   base.NewLogDump(Log, base.LogicDumpDebugMaxNum, 32),
	}
	if option.Pid >= 0 {
		d.acc.SetPid(uint16(option.Pid))
		d.stat.Pid = uint16(option.Pid)
	}
	Log.Debugf("[%s] lifecycle new section decoder. option=%+v", d.uniqueKey, option)
	return d
}

// WithObserver 注册订阅者，每个成功解析的section触发一次回调
func (d *SectionDecoder[H, T]) WithObserver(observer ITableObserver[H, T]) *SectionDecoder[H, T] {
	d.observers = append(d.observers, observer.OnTableChanged)
	return d
}

func (d *SectionDecoder[H, T]) WithOnTableChanged(onTableChanged OnTableChanged[H, T]) *SectionDecoder[H, T] {
	d.observers = append(d.observers, onTableChanged)
	return d
}

func (d *SectionDecoder[H, T]) UniqueKey() string {
	return d.uniqueKey
}

// FeedTsPacket 见 FeedPacket
func (d *SectionDecoder[H, T]) FeedTsPacket(pkt mpegts.TsPacket) error {
	return d.FeedPacket(pkt.Pid, pkt.PayloadUnitStart, pkt.Payload)
}

// FeedPacket 输入一个ts packet的payload
//
// @param payload: 调用结束后内部不再持有
//
// @return: 以下情况返回nil
//   - 数据不完整，等待后续packet
//   - table_id不匹配、重复的section_number，静默丢弃
//   - section解析成功并发布
//
// 以下情况返回错误，当前section被放弃，后续从下一个section起始继续解码:
//   - base.ErrPsiPointerFieldOutOfRange
//   - base.ErrPsiDescriptorOutOfRange, base.ErrPsiItemLoopOutOfRange, base.ErrPsiSectionTooShort
//   - base.ErrPsiCrc32Mismatch （开启 SectionDecoderOption.VerifyCrc32 时）
//   - base.ErrPsiPidMismatch （开启 SectionDecoderOption.StrictPid 时）
func (d *SectionDecoder[H, T]) FeedPacket(pid uint16, payloadUnitStart bool, payload []byte) error {
	if !d.acc.CheckPid(pid) {
		if d.option.StrictPid {
			expected, _ := d.acc.Pid()
			return base.NewErrPsiPidMismatch(expected, pid)
		}
		return nil
	}
	d.stat.Pid = pid

	if !payloadUnitStart {
		if !d.acc.InProgress() {
			return nil
		}
		d.acc.AppendBytes(payload)
		return d.process()
	}

	if len(payload) == 0 || int(payload[0]) > len(payload) {
		pointerField := -1
		if len(payload) > 0 {
			pointerField = int(payload[0])
		}
		d.acc.Abandon()
		d.stat.PointerFieldAnomalies++
		Log.Warnf("[%s] pointer field out of range, abort section. pointer field=%d, payload len=%d",
			d.uniqueKey, pointerField, len(payload))
		d.logDump.DumpHex(payload, "[%s] pointer field anomaly payload", d.uniqueKey)
		return base.NewErrPsiPointerFieldOutOfRange(pointerField, len(payload))
	}

	pointerField := payload[0]

	// pointer_field最大可以等于payload长度，此时新section从下一个packet开始，不视为错误。
	// 超出payload的部分按payload结尾处理
	offset := int(pointerField)
	if offset > len(payload)-1 {
		offset = len(payload) - 1
	}

	// pointer_field之前的字节属于正在累积的section
	var prevErr error
	if d.acc.InProgress() {
		d.acc.AppendBytes(payload[1 : 1+offset])
		prevErr = d.process()
	}

	d.beginSection(pid, uint8(offset))
	d.curPointerField = pointerField
	d.acc.AppendBytes(payload)
	if err := d.process(); err != nil {
		if prevErr != nil {
			Log.Warnf("[%s] previous section failed. err=%+v", d.uniqueKey, prevErr)
		}
		return err
	}
	return prevErr
}

// Table 最近一次发布的快照
func (d *SectionDecoder[H, T]) Table() (Table[H, T], bool) {
	if d.published == nil {
		return Table[H, T]{}, false
	}
	return d.snapshot(d.published), true
}

func (d *SectionDecoder[H, T]) Stat() SectionDecoderStat {
	return d.stat
}

// Reset 丢弃正在累积的section以及所有聚合状态，已发布的快照保留
//
// 比如输入源切换时调用
func (d *SectionDecoder[H, T]) Reset() {
	d.acc.Abandon()
	d.resetAggregate()
	d.hasAggregate = false
}

// ---------------------------------------------------------------------------------------------------------------------

func (d *SectionDecoder[H, T]) beginSection(pid uint16, pointerField uint8) {
	d.acc.BeginSection(pid, pointerField)
	d.curPointerField = pointerField
	d.curHeaderChecked = false
	d.curSkip = false
}

// process 处理累积区域中的数据，可能包含多个首尾相连的section
func (d *SectionDecoder[H, T]) process() error {
	var firstErr error
	for d.acc.InProgress() {
		data := d.acc.AccumulatedData()
		ho := d.acc.HeaderOffset()

		if len(data) > ho && data[ho] == stuffingByte {
			d.acc.Abandon()
			break
		}
		if len(data) < ho+SectionHeaderSize {
			break
		}

		if !d.curHeaderChecked {
			if err := d.checkHeader(SectionView(data[ho:])); err != nil {
				d.acc.Abandon()
				d.stat.SectionsFailed++
				if firstErr != nil {
					return firstErr
				}
				return err
			}
			d.curHeaderChecked = true
		}

		if !d.acc.IsComplete() {
			break
		}

		if !d.curSkip {
			if err := d.parseAndPublish(data, ho); err != nil {
				d.stat.SectionsFailed++
				Log.Warnf("[%s] parse section failed. err=%+v", d.uniqueKey, err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}

		// 同一个payload中可能紧跟着下一个section
		if !d.acc.ConsumeSection() {
			break
		}
		d.curPointerField = 0
		d.curHeaderChecked = false
		d.curSkip = false
	}
	return firstErr
}

// checkHeader section头部到齐后，做过滤、版本、去重检查
//
// 需要跳过的section仍然要累积完整，以便找到同一个payload中紧随其后的section
func (d *SectionDecoder[H, T]) checkHeader(v SectionView) error {
	if int(v.SectionLength()) < SectionHeaderSize-3+Crc32Size {
		return fmt.Errorf("%w. section length=%d", base.ErrPsiSectionTooShort, v.SectionLength())
	}

	tableId := v.TableId()
	if !d.parser.AcceptTableId(tableId) {
		d.curSkip = true
		d.stat.SectionsFiltered++
		return nil
	}
	if v.CurrentNextIndicator() == 0 && !d.option.AcceptNextSections {
		d.curSkip = true
		d.stat.SectionsFiltered++
		return nil
	}

	version := v.VersionNumber()
	if d.hasAggregate && (version != d.aggVersion || tableId != d.aggTableId) {
		Log.Infof("[%s] table changed, reset. table id=0x%02x->0x%02x, version=%d->%d",
			d.uniqueKey, d.aggTableId, tableId, d.aggVersion, version)
		d.resetAggregate()
		d.stat.VersionChanges++
	}
	d.hasAggregate = true
	d.aggTableId = tableId
	d.aggVersion = version

	if d.completed[v.SectionNumber()] {
		d.curSkip = true
		d.stat.SectionsDuplicated++
		return nil
	}
	return nil
}

func (d *SectionDecoder[H, T]) parseAndPublish(data []byte, ho int) error {
	v := SectionView(data[ho:])
	total := v.TotalLength()

	if d.option.VerifyCrc32 && !mpegts.VerifySectionCrc32(data[ho:ho+total]) {
		return fmt.Errorf("%w. table id=0x%02x, section number=%d", base.ErrPsiCrc32Mismatch, v.TableId(), v.SectionNumber())
	}

	ext, items, err := d.parser.ParseSection(data, ho, ho+total-Crc32Size)
	if err != nil {
		return err
	}

	sn := v.SectionNumber()
	lsn := v.LastSectionNumber()

	d.items = append(d.items, items...)
	d.completed[sn] = true

	t := &Table[H, T]{
		Pid:                  d.stat.Pid,
		PointerField:         d.curPointerField,
		TableId:              v.TableId(),
		SectionLength:        v.SectionLength(),
		TableIdExtension:     v.TableIdExtension(),
		VersionNumber:        v.VersionNumber(),
		CurrentNextIndicator: v.CurrentNextIndicator(),
		SectionNumber:        sn,
		LastSectionNumber:    lsn,
		Ext:                  ext,
		Items:                d.items,
		ItemsIncomplete:      false,
	}
	for i := 0; i <= int(lsn); i++ {
		if !d.completed[i] {
			t.ItemsIncomplete = true
			break
		}
	}
	for i := 0; i < len(d.completed); i++ {
		if d.completed[i] {
			t.CompletedSections = append(t.CompletedSections, uint8(i))
		}
	}
	d.published = t
	d.stat.SectionsPublished++

	Log.Debugf("[%s] section published. table id=0x%02x, version=%d, section=%d/%d, items=%d, incomplete=%v",
		d.uniqueKey, t.TableId, t.VersionNumber, sn, lsn, len(items), t.ItemsIncomplete)

	d.notifyChanged()
	return nil
}

func (d *SectionDecoder[H, T]) notifyChanged() {
	for _, fn := range d.observers {
		fn(d.snapshot(d.published))
	}
}

func (d *SectionDecoder[H, T]) snapshot(t *Table[H, T]) Table[H, T] {
	ret := *t
	ret.Items = make([]T, len(t.Items))
	copy(ret.Items, t.Items)
	ret.CompletedSections = append([]uint8(nil), t.CompletedSections...)
	return ret
}

func (d *SectionDecoder[H, T]) resetAggregate() {
	d.completed = [256]bool{}
	d.items = nil
}
