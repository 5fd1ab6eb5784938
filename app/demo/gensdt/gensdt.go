// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/lalsi
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/q191201771/lalsi/pkg/mpegts"
	"github.com/q191201771/naza/pkg/nazalog"
)

// 生成只包含PAT和SDT的ts文件，用于lalsi的file输入或者sdtcmp
//
// 每个service一个program，SDT按 -s 指定的数量平均分到多个section中

func main() {
	_ = nazalog.Init(func(option *nazalog.Option) {
		option.AssertBehavior = nazalog.AssertFatal
	})
	defer nazalog.Sync()

	outFilename, serviceNum, sectionNum, repeat := parseFlag()

	var programs []mpegts.PatProgramElement
	var services []mpegts.SdtServiceElement
	for i := 0; i < serviceNum; i++ {
		id := uint16(i + 1)
		programs = append(programs, mpegts.PatProgramElement{ProgramNumber: id, Pid: 0x1000 + id})
		services = append(services, mpegts.SdtServiceElement{
			ServiceId:               id,
			EitPresentFollowingFlag: true,
			RunningStatus:           4,
			Descriptors: []mpegts.Descriptor{
				{
					Tag: mpegts.DescriptorTagService,
					Service: &mpegts.DescriptorService{
						Type:     1,
						Provider: "lalsi",
						Name:     fmt.Sprintf("service%d", id),
					},
				},
			},
		})
	}

	pat, err := mpegts.NewPatSection(1, programs).Pack()
	nazalog.Assert(nil, err)

	var sdts [][]byte
	perSection := (serviceNum + sectionNum - 1) / sectionNum
	for sn := 0; sn < sectionNum; sn++ {
		begin := sn * perSection
		end := begin + perSection
		if end > serviceNum {
			end = serviceNum
		}
		if begin > end {
			begin = end
		}
		sec := mpegts.NewSdtSection(mpegts.TableIdSdtActual, 1, 1, services[begin:end])
		sec.SectionNumber = uint8(sn)
		sec.LastSectionNumber = uint8(sectionNum - 1)
		b, err := sec.Pack()
		nazalog.Assert(nil, err)
		sdts = append(sdts, b)
	}

	var fw mpegts.FileWriter
	nazalog.Assert(nil, fw.Create(outFilename))
	for i := 0; i < repeat; i++ {
		nazalog.Assert(nil, fw.WriteSections(mpegts.PidPat, pat))
		nazalog.Assert(nil, fw.WriteSections(mpegts.PidSdt, sdts...))
	}
	nazalog.Assert(nil, fw.Dispose())
	nazalog.Infof("write done. file=%s, services=%d, sdt sections=%d, repeat=%d", outFilename, serviceNum, sectionNum, repeat)
}

func parseFlag() (string, int, int, int) {
	o := flag.String("o", "", "specify output ts file")
	n := flag.Int("n", 8, "number of services")
	s := flag.Int("s", 2, "number of sdt sections")
	r := flag.Int("r", 1, "repeat times")
	flag.Parse()
	if *o == "" || *n <= 0 || *s <= 0 || *s > 256 || *r <= 0 {
		flag.Usage()
		_, _ = fmt.Fprintf(os.Stderr, `Example:
  %s -o /tmp/sdt.ts -n 40 -s 3
`, os.Args[0])
		os.Exit(1)
	}
	return *o, *n, *s, *r
}
