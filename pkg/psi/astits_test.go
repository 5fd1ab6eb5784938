// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package psi_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	ts "github.com/asticode/go-astits"
	"github.com/q191201771/lalsi/pkg/mpegts"
	"github.com/q191201771/lalsi/pkg/psi"
	"github.com/q191201771/naza/pkg/assert"
)

// 与go-astits的解析结果交叉验证
func TestSdt_CrossCheckWithAstits(t *testing.T) {
	services0 := genServices(0x10, 3)
	services0[1].FreeCaMode = true
	services0[1].EitScheduleFlag = true
	services0[2].RunningStatus = psi.RunningStatusNotRunning
	services1 := genServices(0x20, 2)

	stream := toTs(mpegts.PidSdt,
		packSdt(t, mpegts.TableIdSdtActual, 3, 0, 1, services0),
		packSdt(t, mpegts.TableIdSdtActual, 3, 1, 1, services1),
	)

	d := psi.NewSdtDecoder(psi.SdtSelectActual)
	assert.Equal(t, nil, feedTs(t, d, stream))
	table, ok := d.Table()
	assert.Equal(t, true, ok)
	assert.Equal(t, false, table.ItemsIncomplete)

	var expected []*ts.SDTDataService
	dmx := ts.NewDemuxer(context.Background(), bytes.NewReader(stream), ts.DemuxerOptPacketSize(mpegts.PacketSize))
	for {
		data, err := dmx.NextData()
		if err != nil {
			assert.Equal(t, true, errors.Is(err, ts.ErrNoMorePackets))
			break
		}
		if data.SDT == nil {
			continue
		}
		assert.Equal(t, table.Ext.OriginalNetworkId, data.SDT.OriginalNetworkID)
		assert.Equal(t, table.TableIdExtension, data.SDT.TransportStreamID)
		expected = append(expected, data.SDT.Services...)
	}

	assert.Equal(t, len(expected), len(table.Items))
	for i, e := range expected {
		s := table.Items[i]
		assert.Equal(t, e.ServiceID, s.ServiceId)
		assert.Equal(t, e.HasEITSchedule, s.EitScheduleFlag)
		assert.Equal(t, e.HasEITPresentFollowing, s.EitPresentFollowingFlag)
		assert.Equal(t, e.HasFreeCSAMode, s.FreeCaMode)
		assert.Equal(t, e.RunningStatus, s.RunningStatus)
		assert.Equal(t, len(e.Descriptors), len(s.Descriptors))
		for j, ed := range e.Descriptors {
			assert.Equal(t, ed.Tag, s.Descriptors[j].Tag)
			assert.Equal(t, ed.Length, s.Descriptors[j].Length)
			if ed.Service != nil {
				assert.Equal(t, ed.Service.Type, s.Descriptors[j].Data[0])
				assert.Equal(t, true, bytes.Contains(s.Descriptors[j].Data, ed.Service.Name))
				assert.Equal(t, true, bytes.Contains(s.Descriptors[j].Data, ed.Service.Provider))
			}
		}
	}
}
