// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi

import (
	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/mpegts"
)

// Descriptor 通用的tag-length-value结构，不解析具体tag的负载语义
//
// descriptor_tag    [8b]
// descriptor_length [8b]
// data              [descriptor_length bytes]
type Descriptor struct {
	Tag    uint8
	Length uint8
	Data   []byte // 独立申请的内存，不引用输入
}

// ParseDescriptor 从 b 的 offset 位置解析一个descriptor
//
// @param b: 可读区域，通常是descriptor循环的结束位置之前的数据
//
// @return consumed: 消耗的字节数，等于 Length + 2
//
// @return err: tag和length本身不完整，或者length超出了可读区域时，返回 base.ErrPsiDescriptorOutOfRange
func ParseDescriptor(b []byte, offset int) (d Descriptor, consumed int, err error) {
	if offset < 0 || offset+2 > len(b) {
		return d, 0, base.NewErrPsiDescriptorOutOfRange(offset+2, len(b))
	}

	d.Tag = b[offset]
	d.Length = b[offset+1]

	end := offset + 2 + int(d.Length)
	if end > len(b) {
		return Descriptor{}, 0, base.NewErrPsiDescriptorOutOfRange(end, len(b))
	}

	d.Data = make([]byte, d.Length)
	copy(d.Data, b[offset+2:end])
	return d, int(d.Length) + 2, nil
}

// ParseDescriptors 解析 [offset, end) 区间内连续的descriptor
//
// 任意一个descriptor越界，整体失败
func ParseDescriptors(b []byte, offset int, end int) (ds []Descriptor, err error) {
	if end > len(b) {
		return nil, base.NewErrPsiDescriptorOutOfRange(end, len(b))
	}

	region := b[:end]
	for offset < end {
		d, n, err := ParseDescriptor(region, offset)
		if err != nil {
			return nil, err
		}
		ds = append(ds, d)
		offset += n
	}
	return ds, nil
}

// ServiceDescriptor service_descriptor(0x48)的负载
//
// service_type                  [8b]
// service_provider_name_length  [8b]
// service_provider_name         [N bytes]
// service_name_length           [8b]
// service_name                  [N bytes]
type ServiceDescriptor struct {
	ServiceType  uint8
	ProviderName []byte
	ServiceName  []byte
}

// ParseServiceDescriptor
//
// @return err: tag不是0x48时返回 base.ErrPsiDescriptorTagMismatch，长度字段越界时返回 base.ErrPsiDescriptorOutOfRange
func ParseServiceDescriptor(d Descriptor) (sd ServiceDescriptor, err error) {
	if d.Tag != mpegts.DescriptorTagService {
		return sd, base.ErrPsiDescriptorTagMismatch
	}
	b := d.Data
	if len(b) < 2 {
		return sd, base.NewErrPsiDescriptorOutOfRange(2, len(b))
	}
	sd.ServiceType = b[0]
	index := 1
	n := int(b[index])
	index++
	if index+n+1 > len(b) {
		return ServiceDescriptor{}, base.NewErrPsiDescriptorOutOfRange(index+n+1, len(b))
	}
	sd.ProviderName = b[index : index+n]
	index += n
	n = int(b[index])
	index++
	if index+n > len(b) {
		return ServiceDescriptor{}, base.NewErrPsiDescriptorOutOfRange(index+n, len(b))
	}
	sd.ServiceName = b[index : index+n]
	return sd, nil
}

// DvbString 去掉DVB字符串开头的字符集选择字节，不做字符集转换
func DvbString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	switch {
	case b[0] == 0x10:
		if len(b) < 3 {
			return ""
		}
		return string(b[3:])
	case b[0] == 0x1F:
		if len(b) < 2 {
			return ""
		}
		return string(b[2:])
	case b[0] < 0x20:
		return string(b[1:])
	}
	return string(b)
}
