// Copyright 2021, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"fmt"
)

// ----- 通用的 ---------------------------------------------------------------------------------------------------------

var (
	ErrShortBuffer  = errors.New("lalsi: buffer too short")
	ErrFileNotExist = errors.New("lalsi: file not exist")

	ErrDumpFileVersion = errors.New("lalsi: invalid dump file version")
)

// ----- pkg/mpegts ----------------------------------------------------------------------------------------------------

var (
	ErrMpegtsPacketSize            = errors.New("lalsi.mpegts: invalid packet size")
	ErrMpegtsSyncByte              = errors.New("lalsi.mpegts: invalid sync byte")
	ErrMpegtsAdaptationFieldLength = errors.New("lalsi.mpegts: adaptation field length out of range")
	ErrMpegtsSectionTooLarge       = errors.New("lalsi.mpegts: section too large")
	ErrMpegtsDescriptorTooLarge    = errors.New("lalsi.mpegts: descriptor too large")
	ErrMpegtsFileWriterNotCreated  = errors.New("lalsi.mpegts: file writer not created")
)

func NewErrMpegtsPacketSize(actual int) error {
	return fmt.Errorf("%w. need=188, actual=%d", ErrMpegtsPacketSize, actual)
}

func NewErrMpegtsSyncByte(b byte) error {
	return fmt.Errorf("%w. b=0x%02x", ErrMpegtsSyncByte, b)
}

// ----- pkg/psi -------------------------------------------------------------------------------------------------------

var (
	// ErrPsiPointerFieldOutOfRange pointer_field 指向了当前packet payload之外，当前section被放弃，等待下一个section起始
	ErrPsiPointerFieldOutOfRange = errors.New("lalsi.psi: pointer field out of range")

	// ErrPsiDescriptorOutOfRange descriptor声明的长度超出了可读范围，流已损坏或失去同步
	ErrPsiDescriptorOutOfRange = errors.New("lalsi.psi: descriptor out of range")

	// ErrPsiItemLoopOutOfRange item循环（或其中的descriptor循环）超出了section范围
	ErrPsiItemLoopOutOfRange = errors.New("lalsi.psi: item loop out of range")

	ErrPsiSectionTooShort = errors.New("lalsi.psi: section too short")
	ErrPsiPidMismatch     = errors.New("lalsi.psi: pid mismatch")
	ErrPsiCrc32Mismatch   = errors.New("lalsi.psi: crc32 mismatch")

	ErrPsiDescriptorTagMismatch = errors.New("lalsi.psi: descriptor tag mismatch")
)

func NewErrPsiPointerFieldOutOfRange(pointerField, payloadLength int) error {
	return fmt.Errorf("%w. pointer field=%d, payload length=%d", ErrPsiPointerFieldOutOfRange, pointerField, payloadLength)
}

func NewErrPsiDescriptorOutOfRange(need, actual int) error {
	return fmt.Errorf("%w. need=%d, actual=%d", ErrPsiDescriptorOutOfRange, need, actual)
}

func NewErrPsiItemLoopOutOfRange(need, actual int) error {
	return fmt.Errorf("%w. need=%d, actual=%d", ErrPsiItemLoopOutOfRange, need, actual)
}

func NewErrPsiPidMismatch(expected, actual uint16) error {
	return fmt.Errorf("%w. expected=0x%x, actual=0x%x", ErrPsiPidMismatch, expected, actual)
}

// ----- pkg/ringbuffer ------------------------------------------------------------------------------------------------

var (
	ErrRingBufferFull            = errors.New("lalsi.ringbuffer: buffer full")
	ErrRingBufferRecordTooLarge  = errors.New("lalsi.ringbuffer: record larger than slot size")
	ErrRingBufferShortBuffer     = errors.New("lalsi.ringbuffer: destination buffer too short")
	ErrRingBufferInvalidPosition = errors.New("lalsi.ringbuffer: invalid slot position")
	ErrRingBufferDisposed        = errors.New("lalsi.ringbuffer: disposed")
)

func NewErrRingBufferRecordTooLarge(slotSize, actual int) error {
	return fmt.Errorf("%w. slot size=%d, actual=%d", ErrRingBufferRecordTooLarge, slotSize, actual)
}

func NewErrRingBufferShortBuffer(need, actual int) error {
	return fmt.Errorf("%w. need=%d, actual=%d", ErrRingBufferShortBuffer, need, actual)
}

// ----- pkg/ingest ----------------------------------------------------------------------------------------------------

var (
	ErrIngestUnknownType = errors.New("lalsi.ingest: unknown input type")
	ErrIngestDisposed    = errors.New("lalsi.ingest: disposed")
)

// ----- pkg/logic -----------------------------------------------------------------------------------------------------

var (
	ErrConfigInvalid = errors.New("lalsi.logic: invalid config")
)

// ---------------------------------------------------------------------------------------------------------------------
