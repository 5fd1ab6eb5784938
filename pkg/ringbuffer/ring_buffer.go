// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package ringbuffer 生产者与消费者之间固定容量、预分配内存的记录缓存
package ringbuffer

import (
	"context"
	"sync"
	"time"

	"github.com/q191201771/lalsi/pkg/base"
)

type RingBufferOption struct {
	// Capacity 最多可缓存的记录个数，内部会多分配一个slot用于区分空和满
	Capacity int

	// SlotSize 单个记录的最大字节数
	SlotSize int

	// AllowOverflow 满时，为false则 Add 返回 base.ErrRingBufferFull，为true则丢弃最旧的记录
	AllowOverflow bool
}

var defaultRingBufferOption = RingBufferOption{
	Capacity:      base.RingBufferDefaultCapacity,
	SlotSize:      base.RingBufferDefaultSlotSize,
	AllowOverflow: false,
}

type ModRingBufferOption func(option *RingBufferOption)

type RingBufferStat struct {
	Capacity            int    `json:"capacity"`
	SlotSize            int    `json:"slot_size"`
	AllowOverflow       bool   `json:"allow_overflow"`
	Fullness            int    `json:"fullness"`
	NextAddPosition     int    `json:"next_add_position"`
	LastRemovedPosition int    `json:"last_removed_position"`
	Added               uint64 `json:"added"`
	Removed             uint64 `json:"removed"`
	Dropped             uint64 `json:"dropped"`
}

type slot struct {
	data      []byte
	length    int
	timestamp int64
}

// RingBuffer
//
// 所有内部状态由一把锁保护，每个公开函数在整个调用期间持有该锁，Remove 在等待数据时释放锁。
// Add 从不阻塞。建议单消费者使用，多个消费者之间没有顺序保证。
type RingBuffer struct {
	uniqueKey string
	option    RingBufferOption
	startTime time.Time

	mu          sync.Mutex
	slots       []slot // Capacity+1个
	addPos      int
	removePos   int
	lastRemoved int
	disposed    bool
	added       uint64
	removed     uint64
	dropped     uint64

	// 每个实例独立的唤醒信号
	notifyCh  chan struct{}
	disposeCh chan struct{}
}

func NewRingBuffer(modOptions ...ModRingBufferOption) *RingBuffer {
	option := defaultRingBufferOption
	for _, fn := range modOptions {
		fn(&option)
	}
	if option.Capacity < 1 {
		option.Capacity = 1
	}
	if option.SlotSize < 1 {
		option.SlotSize = 1
	}

	slots := make([]slot, option.Capacity+1)
	for i := range slots {
		slots[i].data = make([]byte, option.SlotSize)
	}

	r := &RingBuffer{
		uniqueKey:   base.GenUkRingBuffer(),
		option:      option,
		startTime:   time.Now(),
		slots:       slots,
		lastRemoved: -1,
		notifyCh:    make(chan struct{}, 1),
		disposeCh:   make(chan struct{}),
	}
	Log.Infof("[%s] lifecycle new ring buffer. capacity=%d, slot size=%d, allow overflow=%v",
		r.uniqueKey, option.Capacity, option.SlotSize, option.AllowOverflow)
	return r
}

// Add 使用单调时钟作为时间戳，见 AddWithTimestamp
func (r *RingBuffer) Add(data []byte) error {
	return r.AddWithTimestamp(data, r.Now())
}

// AddWithTimestamp 拷贝一条记录
//
// @param data: 函数调用结束后，内部不持有该内存块
//
// @return err: base.ErrRingBufferRecordTooLarge, base.ErrRingBufferFull, base.ErrRingBufferDisposed
func (r *RingBuffer) AddWithTimestamp(data []byte, timestamp int64) error {
	if len(data) > r.option.SlotSize {
		return base.NewErrRingBufferRecordTooLarge(r.option.SlotSize, len(data))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return base.ErrRingBufferDisposed
	}

	if r.isFull() {
		if !r.option.AllowOverflow {
			return base.ErrRingBufferFull
		}
		r.removePos = r.next(r.removePos)
		r.dropped++
		if r.dropped == 1 || r.dropped%1000 == 0 {
			Log.Warnf("[%s] ring buffer overflow, drop oldest record. dropped=%d", r.uniqueKey, r.dropped)
		}
	}

	s := &r.slots[r.addPos]
	copy(s.data, data)
	s.length = len(data)
	s.timestamp = timestamp
	r.addPos = r.next(r.addPos)
	r.added++

	r.signal()
	return nil
}

// Remove 取出最旧的一条记录，没有数据时阻塞，直到有数据、ctx结束或者 Dispose
//
// @param out: 长度不足时返回所需长度以及 base.ErrRingBufferShortBuffer，记录不被取出
//
// @return n: 记录长度
func (r *RingBuffer) Remove(ctx context.Context, out []byte) (n int, timestamp int64, err error) {
	for {
		r.mu.Lock()
		if r.disposed {
			r.mu.Unlock()
			return 0, 0, base.ErrRingBufferDisposed
		}
		if !r.isEmpty() {
			s := &r.slots[r.removePos]
			if len(out) < s.length {
				r.mu.Unlock()
				return s.length, 0, base.NewErrRingBufferShortBuffer(s.length, len(out))
			}
			n = copy(out, s.data[:s.length])
			timestamp = s.timestamp
			r.lastRemoved = r.removePos
			r.removePos = r.next(r.removePos)
			r.removed++
			if !r.isEmpty() {
				// 可能还有其他消费者在等待
				r.signal()
			}
			r.mu.Unlock()
			return n, timestamp, nil
		}
		r.mu.Unlock()

		select {
		case <-r.notifyCh:
		case <-r.disposeCh:
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		}
	}
}

// Peek 读取指定slot中尚未被取出的记录，不移动任何游标
//
// @param position: slot下标，取值范围 [0, Capacity]，并且该slot中必须有未被取出的记录
func (r *RingBuffer) Peek(position int, out []byte) (n int, timestamp int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if position < 0 || position >= len(r.slots) || !r.isOccupied(position) {
		return 0, 0, base.ErrRingBufferInvalidPosition
	}
	s := &r.slots[position]
	if len(out) < s.length {
		return s.length, 0, base.NewErrRingBufferShortBuffer(s.length, len(out))
	}
	n = copy(out, s.data[:s.length])
	return n, s.timestamp, nil
}

// Fullness 当前缓存的记录个数，[0, Capacity]
func (r *RingBuffer) Fullness() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fullness()
}

func (r *RingBuffer) NextAddPosition() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addPos
}

// LastRemovedPosition 最近一次 Remove 取出的slot下标，还没有取出过时为-1
func (r *RingBuffer) LastRemovedPosition() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRemoved
}

func (r *RingBuffer) Capacity() int {
	return r.option.Capacity
}

func (r *RingBuffer) SlotSize() int {
	return r.option.SlotSize
}

func (r *RingBuffer) UniqueKey() string {
	return r.uniqueKey
}

// Now Add 使用的时间戳，单位纳秒，基于单调时钟，从创建时开始计算
func (r *RingBuffer) Now() int64 {
	return int64(time.Since(r.startTime))
}

func (r *RingBuffer) Stat() RingBufferStat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RingBufferStat{
		Capacity:            r.option.Capacity,
		SlotSize:            r.option.SlotSize,
		AllowOverflow:       r.option.AllowOverflow,
		Fullness:            r.fullness(),
		NextAddPosition:     r.addPos,
		LastRemovedPosition: r.lastRemoved,
		Added:               r.added,
		Removed:             r.removed,
		Dropped:             r.dropped,
	}
}

// Dispose 唤醒所有阻塞在 Remove 上的消费者，之后的 Add 和 Remove 都返回 base.ErrRingBufferDisposed
//
// 可重复调用
func (r *RingBuffer) Dispose() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return nil
	}
	r.disposed = true
	close(r.disposeCh)
	Log.Infof("[%s] lifecycle dispose ring buffer. added=%d, removed=%d, dropped=%d",
		r.uniqueKey, r.added, r.removed, r.dropped)
	return nil
}

// ---------------------------------------------------------------------------------------------------------------------

func (r *RingBuffer) next(pos int) int {
	return (pos + 1) % len(r.slots)
}

func (r *RingBuffer) fullness() int {
	return (r.addPos - r.removePos + len(r.slots)) % len(r.slots)
}

func (r *RingBuffer) isEmpty() bool {
	return r.addPos == r.removePos
}

func (r *RingBuffer) isFull() bool {
	return r.next(r.addPos) == r.removePos
}

// isOccupied position是否位于 [removePos, addPos) 区间内
func (r *RingBuffer) isOccupied(position int) bool {
	return (position-r.removePos+len(r.slots))%len(r.slots) < r.fullness()
}

func (r *RingBuffer) signal() {
	select {
	case r.notifyCh <- struct{}{}:
	default:
	}
}
