// Copyright 2019, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package logic

import (
	"github.com/q191201771/lalsi/pkg/base"
	"github.com/q191201771/lalsi/pkg/psi"
	"github.com/q191201771/lalsi/pkg/ringbuffer"
)

var Trans trans

type trans struct {
}

// SdtTable2StatSdt [copy]
func (t trans) SdtTable2StatSdt(table psi.SdtTable) base.StatSdt {
	ret := base.StatSdt{
		Pid:               table.Pid,
		TableId:           table.TableId,
		TransportStreamId: table.TableIdExtension,
		OriginalNetworkId: table.Ext.OriginalNetworkId,
		VersionNumber:     table.VersionNumber,
		LastSectionNumber: table.LastSectionNumber,
		CompletedSections: t.sectionNumbers(table.CompletedSections),
		Complete:          !table.ItemsIncomplete,
		Services:          make([]base.StatSdtService, 0, len(table.Items)),
	}
	for i := range table.Items {
		s := &table.Items[i]
		ss := base.StatSdtService{
			ServiceId:               s.ServiceId,
			RunningStatus:           s.RunningStatus,
			FreeCaMode:              s.FreeCaMode,
			EitScheduleFlag:         s.EitScheduleFlag,
			EitPresentFollowingFlag: s.EitPresentFollowingFlag,
			DescriptorTags:          make([]int, 0, len(s.Descriptors)),
		}
		for _, d := range s.Descriptors {
			ss.DescriptorTags = append(ss.DescriptorTags, int(d.Tag))
		}
		if sd, ok := s.ServiceDescriptor(); ok {
			ss.ServiceType = sd.ServiceType
			ss.ProviderName = psi.DvbString(sd.ProviderName)
			ss.ServiceName = psi.DvbString(sd.ServiceName)
		}
		ret.Services = append(ret.Services, ss)
	}
	return ret
}

// PatTable2StatPat [copy] PMT相关字段需要调用 FillStatPatProgram 填充
func (t trans) PatTable2StatPat(table psi.PatTable) base.StatPat {
	ret := base.StatPat{
		TransportStreamId: table.TableIdExtension,
		VersionNumber:     table.VersionNumber,
		Complete:          !table.ItemsIncomplete,
		Programs:          make([]base.StatPatProgram, 0, len(table.Items)),
	}
	for _, p := range table.Items {
		ret.Programs = append(ret.Programs, base.StatPatProgram{
			ProgramNumber:    p.ProgramNumber,
			Pid:              p.ProgramMapPid,
			PmtVersionNumber: -1,
		})
	}
	return ret
}

func (t trans) FillStatPatProgram(program *base.StatPatProgram, table psi.PmtTable) {
	program.PmtVersionNumber = int(table.VersionNumber)
	program.PcrPid = table.Ext.PcrPid
	program.Streams = make([]base.StatPmtStream, 0, len(table.Items))
	for _, s := range table.Items {
		program.Streams = append(program.Streams, base.StatPmtStream{
			StreamType: s.StreamType,
			Pid:        s.Pid,
		})
	}
}

func (t trans) RingBufferStat2StatRingBuffer(uniqueKey string, stat ringbuffer.RingBufferStat) base.StatRingBuffer {
	return base.StatRingBuffer{
		SessionId:           uniqueKey,
		Capacity:            stat.Capacity,
		SlotSize:            stat.SlotSize,
		AllowOverflow:       stat.AllowOverflow,
		Fullness:            stat.Fullness,
		NextAddPosition:     stat.NextAddPosition,
		LastRemovedPosition: stat.LastRemovedPosition,
		Added:               stat.Added,
		Removed:             stat.Removed,
		Dropped:             stat.Dropped,
	}
}

func (t trans) DecoderStat2StatDecoder(uniqueKey string, table string, stat psi.SectionDecoderStat) base.StatDecoder {
	return base.StatDecoder{
		SessionId:             uniqueKey,
		Table:                 table,
		Pid:                   int(stat.Pid),
		SectionsPublished:     stat.SectionsPublished,
		SectionsFiltered:      stat.SectionsFiltered,
		SectionsDuplicated:    stat.SectionsDuplicated,
		SectionsFailed:        stat.SectionsFailed,
		PointerFieldAnomalies: stat.PointerFieldAnomalies,
		VersionChanges:        stat.VersionChanges,
	}
}

func (t trans) sectionNumbers(sns []uint8) []int {
	ret := make([]int, len(sns))
	for i, sn := range sns {
		ret[i] = int(sn)
	}
	return ret
}
